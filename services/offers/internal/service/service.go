package service

import (
	"context"
	"log"

	"github.com/jdanjohnson/handshake-ai/pkg/domain"
	"github.com/jdanjohnson/handshake-ai/pkg/termshash"
	"github.com/jdanjohnson/handshake-ai/pkg/validate"
	"github.com/jdanjohnson/handshake-ai/services/offers/internal/store"
	"github.com/jdanjohnson/handshake-ai/services/offers/internal/viewcache"
)

// CreateResult is the discriminated outcome of CreateOffer. Exactly one of
// Offer, FieldErrors, or Message is populated alongside Success.
type CreateResult struct {
	Success     bool                 `json:"success"`
	Offer       *domain.Offer        `json:"offer,omitempty"`
	Message     string               `json:"message,omitempty"`
	FieldErrors validate.FieldErrors `json:"field_errors,omitempty"`
}

// Kind discriminates transition outcomes so transports route on a typed
// value instead of matching the user-facing message.
type Kind string

const (
	KindOK         Kind = "ok"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindStoreError Kind = "store_error"
)

// UpdateResult is the outcome of a status transition. TermsHash is the
// acceptance receipt: the canonical hash of the terms frozen at acceptance.
// Kind is an internal routing detail and stays off the wire.
type UpdateResult struct {
	Success   bool          `json:"success"`
	Kind      Kind          `json:"-"`
	Offer     *domain.Offer `json:"offer,omitempty"`
	Message   string        `json:"message,omitempty"`
	TermsHash string        `json:"terms_hash,omitempty"`
}

// Service orchestrates offer operations against the store. It is the only
// caller of the OfferStore; no error crosses this boundary unconverted.
type Service struct {
	store store.OfferStore
	cache viewcache.Invalidator
}

func New(st store.OfferStore, cache viewcache.Invalidator) *Service {
	if cache == nil {
		cache = viewcache.Nop{}
	}
	return &Service{store: st, cache: cache}
}

// CreateOffer validates raw input, derives the effective title, and
// persists the offer. Validation failures come back field-attributed;
// storage faults come back as a generic retryable message.
func (s *Service) CreateOffer(ctx context.Context, raw validate.OfferInput) CreateResult {
	in, fieldErrs := validate.Offer(raw)
	if fieldErrs != nil {
		return CreateResult{Success: false, Message: "validation failed, please check your input", FieldErrors: fieldErrs}
	}

	offer, err := s.store.AddOffer(ctx, store.NewOffer{
		Title:          in.EffectiveTitle(),
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
		Draft:          in.SaveAsDraft,
	})
	if err != nil {
		log.Printf("offers: add offer failed: %v", err)
		return CreateResult{Success: false, Message: "failed to create offer, please try again"}
	}

	s.invalidateFor(ctx, offer)
	return CreateResult{Success: true, Offer: offer}
}

// AcceptOffer transitions a pending offer to accepted and returns the
// acceptance receipt. Accepting an already-accepted offer is a no-op that
// still succeeds; acceptedAt is set exactly once and never reset. The
// accepter's email is recorded for the staleness signal only; it is not
// verified against the offerees (demo-mode identity).
func (s *Service) AcceptOffer(ctx context.Context, offerID, accepterEmail string) UpdateResult {
	offer, err := s.store.GetOfferByID(ctx, offerID)
	if err != nil {
		log.Printf("offers: accept lookup failed: %v", err)
		return UpdateResult{Success: false, Kind: KindStoreError, Message: "failed to accept offer, please try again"}
	}
	if offer == nil {
		return UpdateResult{Success: false, Kind: KindNotFound, Message: "offer not found"}
	}
	if offer.Status == domain.StatusAccepted {
		return s.acceptedResult(offer)
	}
	if !domain.CanTransition(offer.Status, domain.StatusAccepted) {
		return UpdateResult{Success: false, Kind: KindConflict, Message: "offer cannot be accepted in status " + string(offer.Status)}
	}

	updated, err := s.store.UpdateOfferStatus(ctx, offerID, domain.StatusAccepted)
	if err != nil {
		log.Printf("offers: accept update failed: %v", err)
		return UpdateResult{Success: false, Kind: KindStoreError, Message: "failed to accept offer, please try again"}
	}
	if updated == nil {
		return s.resolveMiss(ctx, offerID, domain.StatusAccepted, "accepted")
	}

	s.invalidateFor(ctx, updated)
	return s.acceptedResult(updated)
}

// DeclineOffer transitions a pending offer to the declined terminal state.
// Terms are never frozen and acceptedAt stays null.
func (s *Service) DeclineOffer(ctx context.Context, offerID, declinerEmail string) UpdateResult {
	return s.transition(ctx, offerID, domain.StatusDeclined, "declined")
}

// FinalizeOffer promotes a saved draft to pending so it can be accepted.
func (s *Service) FinalizeOffer(ctx context.Context, offerID string) UpdateResult {
	return s.transition(ctx, offerID, domain.StatusPending, "finalized")
}

func (s *Service) transition(ctx context.Context, offerID string, to domain.Status, verb string) UpdateResult {
	offer, err := s.store.GetOfferByID(ctx, offerID)
	if err != nil {
		log.Printf("offers: %s lookup failed: %v", verb, err)
		return UpdateResult{Success: false, Kind: KindStoreError, Message: "failed to update offer, please try again"}
	}
	if offer == nil {
		return UpdateResult{Success: false, Kind: KindNotFound, Message: "offer not found"}
	}
	if !domain.CanTransition(offer.Status, to) {
		return UpdateResult{Success: false, Kind: KindConflict, Message: "offer cannot be " + verb + " in status " + string(offer.Status)}
	}

	updated, err := s.store.UpdateOfferStatus(ctx, offerID, to)
	if err != nil {
		log.Printf("offers: %s update failed: %v", verb, err)
		return UpdateResult{Success: false, Kind: KindStoreError, Message: "failed to update offer, please try again"}
	}
	if updated == nil {
		return s.resolveMiss(ctx, offerID, to, verb)
	}

	s.invalidateFor(ctx, updated)
	return UpdateResult{Success: true, Kind: KindOK, Offer: updated}
}

// resolveMiss reports a status write the store refused: the offer either
// vanished or a concurrent transition reached a terminal status first.
// Re-read to tell the two apart.
func (s *Service) resolveMiss(ctx context.Context, offerID string, to domain.Status, verb string) UpdateResult {
	offer, err := s.store.GetOfferByID(ctx, offerID)
	if err != nil {
		log.Printf("offers: %s re-read failed: %v", verb, err)
		return UpdateResult{Success: false, Kind: KindStoreError, Message: "failed to update offer, please try again"}
	}
	if offer == nil {
		return UpdateResult{Success: false, Kind: KindNotFound, Message: "offer not found"}
	}
	if to == domain.StatusAccepted && offer.Status == domain.StatusAccepted {
		return s.acceptedResult(offer)
	}
	return UpdateResult{Success: false, Kind: KindConflict, Message: "offer cannot be " + verb + " in status " + string(offer.Status)}
}

// GetOffer returns the offer or nil when absent; absence is routine.
func (s *Service) GetOffer(ctx context.Context, offerID string) (*domain.Offer, error) {
	return s.store.GetOfferByID(ctx, offerID)
}

// GetOffersByEmail lists every offer the email participates in, newest
// first. Matching is case-insensitive.
func (s *Service) GetOffersByEmail(ctx context.Context, email string) ([]domain.Offer, error) {
	return s.store.GetOffersByEmail(ctx, email)
}

func (s *Service) acceptedResult(offer *domain.Offer) UpdateResult {
	hash, err := termshash.Sum(offer)
	if err != nil {
		log.Printf("offers: terms hash failed for %s: %v", offer.ID, err)
	}
	return UpdateResult{Success: true, Kind: KindOK, Offer: offer, TermsHash: hash}
}

func (s *Service) invalidateFor(ctx context.Context, offer *domain.Offer) {
	views := []string{viewcache.OfferView(offer.ID)}
	for _, email := range offer.ParticipantEmails() {
		views = append(views, viewcache.DashboardView(email))
	}
	s.cache.Invalidate(ctx, views...)
}
