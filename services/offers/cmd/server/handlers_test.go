package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/jdanjohnson/handshake-ai/pkg/domain"
	"github.com/jdanjohnson/handshake-ai/services/offers/internal/service"
	"github.com/jdanjohnson/handshake-ai/services/offers/internal/store"
)

func newTestServer() (*httptest.Server, *store.Memory) {
	mem := store.NewMemory()
	r := chi.NewRouter()
	registerOfferRoutes(r, service.New(mem, nil))
	return httptest.NewServer(r), mem
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func validPayload() map[string]any {
	return map[string]any{
		"title":         "Website Design",
		"terms":         "Build a five page responsive site.",
		"offeror_name":  "Jane Doe",
		"offeror_email": "jane@example.com",
		"offerees":      []map[string]string{{"name": "Bob", "email": "bob@x.com"}},
	}
}

func TestCreateOfferEndpoint(t *testing.T) {
	ts, _ := newTestServer()
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/offers", validPayload())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var out struct {
		RequestID string `json:"request_id"`
		Success   bool   `json:"success"`
		Offer     struct {
			ID     string `json:"offer_id"`
			Status string `json:"status"`
		} `json:"offer"`
	}
	decode(t, resp, &out)
	if out.RequestID == "" {
		t.Fatalf("expected request_id")
	}
	if !out.Success || out.Offer.ID == "" || out.Offer.Status != "pending" {
		t.Fatalf("unexpected response %+v", out)
	}
}

func TestCreateOfferEndpointValidationError(t *testing.T) {
	ts, mem := newTestServer()
	defer ts.Close()

	payload := validPayload()
	payload["terms"] = "too short"
	resp := postJSON(t, ts.URL+"/offers", payload)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	var out struct {
		Success     bool                `json:"success"`
		FieldErrors map[string][]string `json:"field_errors"`
	}
	decode(t, resp, &out)
	if out.Success || len(out.FieldErrors["terms"]) == 0 {
		t.Fatalf("expected terms field error, got %+v", out)
	}
	if mem.Len() != 0 {
		t.Fatalf("expected store unchanged")
	}
}

func TestCreateOfferEndpointBadJSON(t *testing.T) {
	ts, _ := newTestServer()
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/offers", "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetOfferEndpointNotFound(t *testing.T) {
	ts, _ := newTestServer()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/offers/off_nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestAcceptOfferEndpoint(t *testing.T) {
	ts, _ := newTestServer()
	defer ts.Close()

	var created struct {
		Offer struct {
			ID string `json:"offer_id"`
		} `json:"offer"`
	}
	decode(t, postJSON(t, ts.URL+"/offers", validPayload()), &created)

	resp := postJSON(t, ts.URL+"/offers/"+created.Offer.ID+"/accept", map[string]string{"accepter_email": "bob@x.com"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Success   bool   `json:"success"`
		TermsHash string `json:"terms_hash"`
		Offer     struct {
			Status     string  `json:"status"`
			AcceptedAt *string `json:"accepted_at"`
		} `json:"offer"`
	}
	decode(t, resp, &out)
	if !out.Success || out.Offer.Status != "accepted" || out.Offer.AcceptedAt == nil {
		t.Fatalf("unexpected response %+v", out)
	}
	if out.TermsHash == "" {
		t.Fatalf("expected acceptance receipt hash")
	}
}

func TestAcceptOfferEndpointUnknownID(t *testing.T) {
	ts, _ := newTestServer()
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/offers/off_nope/accept", map[string]string{"accepter_email": "bob@x.com"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

type downStore struct{}

var errStoreDown = errors.New("store down")

func (downStore) AddOffer(context.Context, store.NewOffer) (*domain.Offer, error) {
	return nil, errStoreDown
}
func (downStore) GetOfferByID(context.Context, string) (*domain.Offer, error) {
	return nil, errStoreDown
}
func (downStore) GetOffersByEmail(context.Context, string) ([]domain.Offer, error) {
	return nil, errStoreDown
}
func (downStore) UpdateOfferStatus(context.Context, string, domain.Status) (*domain.Offer, error) {
	return nil, errStoreDown
}

func TestAcceptOfferEndpointStoreFault(t *testing.T) {
	r := chi.NewRouter()
	registerOfferRoutes(r, service.New(downStore{}, nil))
	ts := httptest.NewServer(r)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/offers/off_1/accept", map[string]string{"accepter_email": "bob@x.com"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestListOffersEndpoint(t *testing.T) {
	ts, _ := newTestServer()
	defer ts.Close()

	decode(t, postJSON(t, ts.URL+"/offers", validPayload()), &struct{}{})

	resp, err := http.Get(ts.URL + "/offers?email=JANE@EXAMPLE.COM")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var out struct {
		Offers []struct {
			OfferorEmail string `json:"offeror_email"`
		} `json:"offers"`
	}
	decode(t, resp, &out)
	if len(out.Offers) != 1 {
		t.Fatalf("expected 1 offer for jane, got %d", len(out.Offers))
	}

	resp, err = http.Get(ts.URL + "/offers?email=stranger@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var empty struct {
		Offers []any `json:"offers"`
	}
	decode(t, resp, &empty)
	if empty.Offers == nil || len(empty.Offers) != 0 {
		t.Fatalf("expected empty array, got %v", empty.Offers)
	}
}

func TestListOffersEndpointRequiresEmail(t *testing.T) {
	ts, _ := newTestServer()
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/offers")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDeclineOfferEndpoint(t *testing.T) {
	ts, _ := newTestServer()
	defer ts.Close()

	var created struct {
		Offer struct {
			ID string `json:"offer_id"`
		} `json:"offer"`
	}
	decode(t, postJSON(t, ts.URL+"/offers", validPayload()), &created)

	resp := postJSON(t, ts.URL+"/offers/"+created.Offer.ID+"/decline", map[string]string{"decliner_email": "bob@x.com"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Success bool `json:"success"`
		Offer   struct {
			Status string `json:"status"`
		} `json:"offer"`
	}
	decode(t, resp, &out)
	if !out.Success || out.Offer.Status != "declined" {
		t.Fatalf("unexpected response %+v", out)
	}

	// Terminal: accepting afterwards conflicts.
	resp = postJSON(t, ts.URL+"/offers/"+created.Offer.ID+"/accept", map[string]string{"accepter_email": "bob@x.com"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}
