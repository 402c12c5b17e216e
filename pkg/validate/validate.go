package validate

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/jdanjohnson/handshake-ai/pkg/domain"
)

// minRunes counts characters, not bytes, so multibyte input is measured
// the way the user sees it.
func minRunes(s string, n int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) >= n
}

// FieldErrors maps an input field path (e.g. "terms", "offerees[0].email")
// to human-readable messages. A nil map means the input passed.
type FieldErrors map[string][]string

func (fe FieldErrors) add(field, message string) {
	fe[field] = append(fe[field], message)
}

// OfferInput is the raw offer-creation payload before normalization.
// Title may be given directly, or derived from AgreementType (with
// CustomAgreementType taking over when the type is "Other").
type OfferInput struct {
	AgreementType       string                `json:"agreement_type,omitempty"`
	CustomAgreementType string                `json:"custom_agreement_type,omitempty"`
	Title               string                `json:"title,omitempty"`
	Terms               string                `json:"terms"`
	SpecificTerms       []domain.SpecificTerm `json:"specific_terms,omitempty"`
	PaymentAmount       string                `json:"payment_amount,omitempty"`
	PaymentDueDate      string                `json:"payment_due_date,omitempty"`
	PaymentMethod       string                `json:"payment_method,omitempty"`
	Duration            string                `json:"duration,omitempty"`
	Location            string                `json:"location,omitempty"`
	OfferorName         string                `json:"offeror_name"`
	OfferorEmail        string                `json:"offeror_email"`
	Offerees            []domain.Party        `json:"offerees"`
	SaveAsDraft         bool                  `json:"save_as_draft,omitempty"`
}

// EffectiveTitle resolves the offer title: the custom value when the
// agreement type is "Other", else the selected type, else the title field.
func (in OfferInput) EffectiveTitle() string {
	t := strings.TrimSpace(in.AgreementType)
	if t == "" {
		return strings.TrimSpace(in.Title)
	}
	if t == "Other" {
		return strings.TrimSpace(in.CustomAgreementType)
	}
	return t
}

// Offer validates an offer-creation payload and returns the normalized
// input. On failure the FieldErrors map is non-nil and the input should be
// discarded. Optional fields are trimmed so that empty means absent.
func Offer(in OfferInput) (OfferInput, FieldErrors) {
	fe := FieldErrors{}

	if strings.TrimSpace(in.AgreementType) == "" {
		if !minRunes(in.Title, 5) {
			fe.add("title", "title must be at least 5 characters")
		}
	} else if strings.TrimSpace(in.AgreementType) == "Other" {
		// The error attaches to the custom field, not the type selector.
		if !minRunes(in.CustomAgreementType, 3) {
			fe.add("custom_agreement_type", "please specify the agreement type (at least 3 characters)")
		}
	}

	if !minRunes(in.OfferorName, 2) {
		fe.add("offeror_name", "your name is required")
	}
	if !validEmail(in.OfferorEmail) {
		fe.add("offeror_email", "a valid email for you is required")
	}

	if len(in.Offerees) == 0 {
		fe.add("offerees", "at least one offeree is required")
	}
	for i, p := range in.Offerees {
		if !minRunes(p.Name, 2) {
			fe.add(fmt.Sprintf("offerees[%d].name", i), "their name is required")
		}
		if !validEmail(p.Email) {
			fe.add(fmt.Sprintf("offerees[%d].email", i), "a valid email for them is required")
		}
	}

	if !minRunes(in.Terms, 20) {
		fe.add("terms", "agreement terms must be at least 20 characters")
	}

	for i, st := range in.SpecificTerms {
		if strings.TrimSpace(st.Title) == "" {
			fe.add(fmt.Sprintf("specific_terms[%d].title", i), "term title is required")
		}
		if strings.TrimSpace(st.Description) == "" {
			fe.add(fmt.Sprintf("specific_terms[%d].description", i), "term description is required")
		}
	}

	if len(fe) > 0 {
		return in, fe
	}
	return normalize(in), nil
}

func normalize(in OfferInput) OfferInput {
	in.AgreementType = strings.TrimSpace(in.AgreementType)
	in.CustomAgreementType = strings.TrimSpace(in.CustomAgreementType)
	in.Title = strings.TrimSpace(in.Title)
	in.Terms = strings.TrimSpace(in.Terms)
	in.PaymentAmount = strings.TrimSpace(in.PaymentAmount)
	in.PaymentDueDate = strings.TrimSpace(in.PaymentDueDate)
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	in.Duration = strings.TrimSpace(in.Duration)
	in.Location = strings.TrimSpace(in.Location)
	in.OfferorName = strings.TrimSpace(in.OfferorName)
	in.OfferorEmail = strings.TrimSpace(in.OfferorEmail)
	for i := range in.Offerees {
		in.Offerees[i].Name = strings.TrimSpace(in.Offerees[i].Name)
		in.Offerees[i].Email = strings.TrimSpace(in.Offerees[i].Email)
	}
	for i := range in.SpecificTerms {
		in.SpecificTerms[i].Title = strings.TrimSpace(in.SpecificTerms[i].Title)
		in.SpecificTerms[i].Description = strings.TrimSpace(in.SpecificTerms[i].Description)
	}
	return in
}

func validEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
