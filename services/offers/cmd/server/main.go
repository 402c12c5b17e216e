package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/jdanjohnson/handshake-ai/pkg/db"
	"github.com/jdanjohnson/handshake-ai/services/offers/internal/service"
	"github.com/jdanjohnson/handshake-ai/services/offers/internal/store"
	"github.com/jdanjohnson/handshake-ai/services/offers/internal/viewcache"
)

func main() {
	ctx := context.Background()

	var st store.OfferStore
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pool, err := db.Connect(ctx, dsn)
		if err != nil {
			log.Fatalf("offers: %v", err)
		}
		pg := store.New(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatalf("offers: ensure schema: %v", err)
		}
		st = pg
	} else {
		// Demo mode: in-memory store, identity asserted by email, no auth.
		mem := store.NewMemory()
		if os.Getenv("SEED_DEMO_DATA") == "true" {
			mem.Seed()
		}
		st = mem
		log.Printf("offers: DATABASE_URL not set, using in-memory store")
	}

	var cache viewcache.Invalidator = viewcache.Nop{}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cache = viewcache.NewRedis(addr)
	}

	svc := service.New(st, cache)

	port := os.Getenv("SERVICE_PORT")
	if port == "" {
		port = "8082"
	}

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	registerOfferRoutes(r, svc)

	log.Printf("offers: listening on :%s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("offers: %v", err)
	}
}
