package handshake

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jdanjohnson/handshake-ai/pkg/domain"
	"github.com/jdanjohnson/handshake-ai/pkg/validate"
)

func TestCreateOffer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/offers" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var in validate.OfferInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.WriteHeader(201)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"request_id": "hsk_req_1",
			"success":    true,
			"offer": domain.Offer{
				ID:           "off_1",
				Title:        in.Title,
				Terms:        in.Terms,
				OfferorName:  in.OfferorName,
				OfferorEmail: in.OfferorEmail,
				Offerees:     in.Offerees,
				Status:       domain.StatusPending,
				CreatedAt:    time.Now().UTC(),
			},
		})
	}))
	defer ts.Close()

	c := New(ts.URL, "")
	res, err := c.CreateOffer(context.Background(), validate.OfferInput{
		Title:        "Website Design",
		Terms:        "Build a five page responsive site.",
		OfferorName:  "Jane Doe",
		OfferorEmail: "jane@example.com",
		Offerees:     []domain.Party{{Name: "Bob", Email: "bob@x.com"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !res.Success || res.Offer == nil || res.Offer.ID != "off_1" {
		t.Fatalf("unexpected response %+v", res)
	}
}

func TestCreateOfferFieldErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(422)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"request_id":   "hsk_req_1",
			"success":      false,
			"message":      "validation failed, please check your input",
			"field_errors": map[string][]string{"terms": {"agreement terms must be at least 20 characters"}},
		})
	}))
	defer ts.Close()

	c := New(ts.URL, "")
	res, err := c.CreateOffer(context.Background(), validate.OfferInput{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Success || len(res.FieldErrors["terms"]) == 0 {
		t.Fatalf("expected field errors, got %+v", res)
	}
}

func TestGetOfferNotFoundIsNil(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"request_id": "hsk_req_1",
			"error":      map[string]any{"code": "NOT_FOUND", "message": "offer not found"},
		})
	}))
	defer ts.Close()

	c := New(ts.URL, "")
	offer, err := c.GetOffer(context.Background(), "off_nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if offer != nil {
		t.Fatalf("expected nil offer")
	}
}

func TestAcceptOfferConflictDecodesResult(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(409)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"request_id": "hsk_req_1",
			"success":    false,
			"message":    "offer cannot be accepted in status declined",
		})
	}))
	defer ts.Close()

	c := New(ts.URL, "")
	res, err := c.AcceptOffer(context.Background(), "off_1", "bob@x.com")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if res.Success || res.Message == "" {
		t.Fatalf("expected failure result, got %+v", res)
	}
}

func TestUnexpectedStatusIsTypedError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(503)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"request_id": "hsk_req_1",
			"error":      map[string]any{"code": "UNAVAILABLE", "message": "maintenance"},
		})
	}))
	defer ts.Close()

	c := New(ts.URL, "")
	_, err := c.ListOffers(context.Background(), "jane@example.com")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected typed error, got %v", err)
	}
	if apiErr.StatusCode != 503 || apiErr.ErrorCode != "UNAVAILABLE" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
}

func TestCheckCompleteness(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/advisory/completeness" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"request_id": "hsk_req_1",
			"result": map[string]any{
				"isComplete":     false,
				"missingDetails": []string{"return date"},
				"suggestions":    []string{"add a return date"},
			},
		})
	}))
	defer ts.Close()

	c := New("", ts.URL)
	res, err := c.CheckCompleteness(context.Background(), "Loan of one camera for about a week.")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.IsComplete || len(res.MissingDetails) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestAdvisoryErrorIsTyped(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"request_id": "hsk_req_1",
			"error":      "please enter at least 20 characters of your agreement terms to check",
		})
	}))
	defer ts.Close()

	c := New("", ts.URL)
	_, err := c.CheckCompleteness(context.Background(), "short")
	var advErr *AdvisoryError
	if !errors.As(err, &advErr) {
		t.Fatalf("expected advisory error, got %v", err)
	}
	if advErr.Message == "" {
		t.Fatalf("expected guidance message")
	}
}
