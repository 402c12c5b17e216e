package termshash

import (
	"strings"
	"testing"
	"time"

	"github.com/jdanjohnson/handshake-ai/pkg/domain"
)

func TestSumDeterministic(t *testing.T) {
	o := &domain.Offer{
		Title: "Camera Loan",
		Terms: "Loan of one camera for about a week, personal use only.",
		SpecificTerms: []domain.SpecificTerm{
			{Title: "Return date", Description: "October 24"},
		},
		PaymentAmount: "$0",
	}
	a, err := Sum(o)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	b, err := Sum(o)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if a != b {
		t.Fatalf("expected deterministic hash, got %s and %s", a, b)
	}
	if !strings.HasPrefix(a, "sha256:") {
		t.Fatalf("expected sha256: prefix, got %s", a)
	}
}

func TestSumSensitiveToTerms(t *testing.T) {
	o := &domain.Offer{Title: "Camera Loan", Terms: "one week"}
	a, _ := Sum(o)
	o.Terms = "two weeks"
	b, _ := Sum(o)
	if a == b {
		t.Fatalf("expected different hashes for different terms")
	}
}

func TestSumIgnoresLifecycleFields(t *testing.T) {
	now := time.Now()
	o := &domain.Offer{ID: "off_1", Title: "Camera Loan", Terms: "one week", Status: domain.StatusPending}
	a, _ := Sum(o)
	o.ID = "off_2"
	o.Status = domain.StatusAccepted
	o.AcceptedAt = &now
	b, _ := Sum(o)
	if a != b {
		t.Fatalf("expected hash to ignore identity and lifecycle fields")
	}
}
