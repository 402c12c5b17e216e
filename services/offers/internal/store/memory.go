package store

import (
	"context"
	"sync"
	"time"

	"github.com/jdanjohnson/handshake-ai/pkg/domain"
)

// Memory is the in-memory OfferStore used in demo mode and tests.
// A single mutex serializes all writes, which satisfies the atomicity
// contract for a single-process deployment.
type Memory struct {
	mu     sync.Mutex
	offers []domain.Offer // most recent first
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{now: func() time.Time { return time.Now().UTC() }}
}

func (m *Memory) AddOffer(_ context.Context, in NewOffer) (*domain.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := domain.Offer{
		ID:             newOfferID(),
		Title:          in.Title,
		Terms:          in.Terms,
		SpecificTerms:  in.SpecificTerms,
		PaymentAmount:  in.PaymentAmount,
		PaymentDueDate: in.PaymentDueDate,
		PaymentMethod:  in.PaymentMethod,
		Duration:       in.Duration,
		Location:       in.Location,
		OfferorName:    in.OfferorName,
		OfferorEmail:   in.OfferorEmail,
		Offerees:       in.Offerees,
		Status:         initialStatus(in.Draft),
		CreatedAt:      m.now(),
	}
	m.offers = append([]domain.Offer{o}, m.offers...)
	return copyOffer(&o), nil
}

func (m *Memory) GetOfferByID(_ context.Context, id string) (*domain.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.offers {
		if m.offers[i].ID == id {
			return copyOffer(&m.offers[i]), nil
		}
	}
	return nil, nil
}

func (m *Memory) GetOffersByEmail(_ context.Context, email string) ([]domain.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Offer
	for i := range m.offers {
		if m.offers[i].HasParticipant(email) {
			out = append(out, *copyOffer(&m.offers[i]))
		}
	}
	// insertion keeps most-recent-first, but seeded data may not; sort to
	// honor the createdAt-descending contract.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].CreatedAt.After(out[j-1].CreatedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

// UpdateOfferStatus applies the new status under the store mutex, so the
// guard and the write are one atomic step. Terminal statuses are sticky: a
// write that would move an offer out of accepted or declined is refused and
// reported like a missing row. acceptedAt is written on the first accept
// only and never overwritten.
func (m *Memory) UpdateOfferStatus(_ context.Context, id string, status domain.Status) (*domain.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.offers {
		if m.offers[i].ID != id {
			continue
		}
		o := &m.offers[i]
		if o.Status.Terminal() && o.Status != status {
			return nil, nil
		}
		o.Status = status
		if status == domain.StatusAccepted && o.AcceptedAt == nil {
			t := m.now()
			o.AcceptedAt = &t
		}
		return copyOffer(o), nil
	}
	return nil, nil
}

// Len reports the number of stored offers.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.offers)
}

// Seed loads the three demo offers used when no database is configured.
func (m *Memory) Seed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	accepted := now.AddDate(0, 0, -8)
	demo := []domain.Offer{
		{
			ID:           "off_demo_website_design",
			Title:        "Website Design Services",
			Terms:        "Design and develop a 5-page responsive website for a new coffee shop brand. Includes 2 rounds of revisions. Final deliverables to include all source files. Payment: 50% upfront, 50% on completion.",
			OfferorName:  "Jane Doe",
			OfferorEmail: "jane@example.com",
			Offerees:     []domain.Party{{Name: "John Smith", Email: "john@example.com"}},
			Status:       domain.StatusPending,
			CreatedAt:    now.AddDate(0, 0, -5),
		},
		{
			ID:           "off_demo_freelance_writing",
			Title:        "Freelance Writing Contract",
			Terms:        "Write four 1000-word blog posts on the topic of sustainable travel. SEO keywords will be provided. All articles must be original and pass plagiarism checks. Delivery schedule: one article per week.",
			OfferorName:  "John Smith",
			OfferorEmail: "john@example.com",
			Offerees:     []domain.Party{{Name: "Jane Doe", Email: "jane@example.com"}},
			Status:       domain.StatusAccepted,
			CreatedAt:    now.AddDate(0, 0, -10),
			AcceptedAt:   &accepted,
		},
		{
			ID:           "off_demo_apartment_lease",
			Title:        "Apartment Lease Agreement",
			Terms:        "12-month lease for apartment #4B at 123 Main St. Rent is $2000/month, due on the 1st. Security deposit of $2000 required. No pets allowed. Tenant responsible for utilities.",
			OfferorName:  "Landlord Corp",
			OfferorEmail: "landlord@example.com",
			Offerees:     []domain.Party{{Name: "Jane Doe", Email: "jane@example.com"}},
			Status:       domain.StatusPending,
			CreatedAt:    now.AddDate(0, 0, -2),
		},
	}
	m.offers = append(demo, m.offers...)
}

func copyOffer(o *domain.Offer) *domain.Offer {
	c := *o
	if o.SpecificTerms != nil {
		c.SpecificTerms = append([]domain.SpecificTerm(nil), o.SpecificTerms...)
	}
	c.Offerees = append([]domain.Party(nil), o.Offerees...)
	if o.AcceptedAt != nil {
		t := *o.AcceptedAt
		c.AcceptedAt = &t
	}
	return &c
}
