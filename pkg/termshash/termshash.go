package termshash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/jdanjohnson/handshake-ai/pkg/domain"
)

// canonicalTerms is the exact set of fields frozen at acceptance, in a
// fixed order. Identity and lifecycle fields are deliberately excluded so
// the hash depends only on what the parties agreed to.
type canonicalTerms struct {
	Title          string                `json:"title"`
	Terms          string                `json:"terms"`
	SpecificTerms  []domain.SpecificTerm `json:"specific_terms"`
	PaymentAmount  string                `json:"payment_amount"`
	PaymentDueDate string                `json:"payment_due_date"`
	PaymentMethod  string                `json:"payment_method"`
	Duration       string                `json:"duration"`
	Location       string                `json:"location"`
}

// Sum computes the canonical SHA-256 of an offer's terms:
// json.Marshal of the canonical field set, hashed, hex encoded with a
// "sha256:" prefix. Returned with acceptance receipts.
func Sum(o *domain.Offer) (string, error) {
	b, err := json.Marshal(canonicalTerms{
		Title:          o.Title,
		Terms:          o.Terms,
		SpecificTerms:  o.SpecificTerms,
		PaymentAmount:  o.PaymentAmount,
		PaymentDueDate: o.PaymentDueDate,
		PaymentMethod:  o.PaymentMethod,
		Duration:       o.Duration,
		Location:       o.Location,
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
