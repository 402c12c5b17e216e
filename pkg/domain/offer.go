package domain

import (
	"strings"
	"time"
)

type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

// CanTransition reports whether a status change is allowed.
// accepted and declined are terminal; there is no way back to pending.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusDraft:
		return to == StatusPending
	case StatusPending:
		return to == StatusAccepted || to == StatusDeclined
	default:
		return false
	}
}

func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusDeclined
}

// Party identifies an offeror or offeree. Email is the access key for
// listing views; it is asserted, not authenticated.
type Party struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SpecificTerm is a single titled clause inside an offer.
type SpecificTerm struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Offer is the central entity: a proposed agreement with terms, parties
// and a lifecycle status. Once accepted, terms are frozen — no operation
// mutates them afterwards.
type Offer struct {
	ID             string         `json:"offer_id"`
	Title          string         `json:"title"`
	Terms          string         `json:"terms"`
	SpecificTerms  []SpecificTerm `json:"specific_terms,omitempty"`
	PaymentAmount  string         `json:"payment_amount,omitempty"`
	PaymentDueDate string         `json:"payment_due_date,omitempty"`
	PaymentMethod  string         `json:"payment_method,omitempty"`
	Duration       string         `json:"duration,omitempty"`
	Location       string         `json:"location,omitempty"`
	OfferorName    string         `json:"offeror_name"`
	OfferorEmail   string         `json:"offeror_email"`
	Offerees       []Party        `json:"offerees"`
	Status         Status         `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	AcceptedAt     *time.Time     `json:"accepted_at,omitempty"`
}

// HasParticipant reports whether email matches the offeror or any offeree,
// case-insensitively.
func (o *Offer) HasParticipant(email string) bool {
	if strings.EqualFold(o.OfferorEmail, email) {
		return true
	}
	for _, p := range o.Offerees {
		if strings.EqualFold(p.Email, email) {
			return true
		}
	}
	return false
}

// ParticipantEmails returns the offeror's email followed by each offeree's,
// in offer order. Used to derive per-participant view identifiers.
func (o *Offer) ParticipantEmails() []string {
	out := make([]string, 0, len(o.Offerees)+1)
	out = append(out, o.OfferorEmail)
	for _, p := range o.Offerees {
		out = append(out, p.Email)
	}
	return out
}
