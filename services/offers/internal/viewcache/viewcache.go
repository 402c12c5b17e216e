// Package viewcache carries the staleness signal the offers service sends
// after a mutation. The presentation layer owns the actual cache; this
// side only names the views that went stale.
package viewcache

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Invalidator receives the logical identifiers of views that became stale,
// e.g. "dashboard:jane@example.com" or "offer:off_123".
type Invalidator interface {
	Invalidate(ctx context.Context, views ...string)
}

func DashboardView(email string) string { return "dashboard:" + email }
func OfferView(id string) string        { return "offer:" + id }

// Nop discards invalidation signals. Default when no cache is configured.
type Nop struct{}

func (Nop) Invalidate(context.Context, ...string) {}

// Recorder collects invalidated views for test assertions.
type Recorder struct {
	mu    sync.Mutex
	views []string
}

func (r *Recorder) Invalidate(_ context.Context, views ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, views...)
}

func (r *Recorder) Views() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.views...)
}

// Redis deletes cached pages keyed under "views:" in a shared redis, so a
// page-cache layer in front of the app drops stale renders.
type Redis struct {
	client *redis.Client
}

func NewRedis(addr string) *Redis {
	return &Redis{client: redis.NewClient(&redis.Options{Addr: addr})}
}

func (r *Redis) Invalidate(ctx context.Context, views ...string) {
	if len(views) == 0 {
		return
	}
	keys := make([]string, len(views))
	for i, v := range views {
		keys[i] = "views:" + v
	}
	// Best effort: a failed invalidation only leaves a stale page.
	_ = r.client.Del(ctx, keys...).Err()
}
