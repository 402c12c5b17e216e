// Package handshake is the Go client for the Handshake Legal offers and
// advisory services.
package handshake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jdanjohnson/handshake-ai/pkg/domain"
	"github.com/jdanjohnson/handshake-ai/pkg/validate"
)

// Error is a decoded API error envelope.
type Error struct {
	StatusCode int
	ErrorCode  string
	Message    string
	RequestID  string
	Details    map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("handshake sdk error: status=%d code=%s message=%s", e.StatusCode, e.ErrorCode, e.Message)
}

// AdvisoryError is guidance returned by an advisory flow (input too short,
// model unavailable). It arrives with HTTP 200 and should be shown to the
// user as-is.
type AdvisoryError struct{ Message string }

func (e *AdvisoryError) Error() string { return e.Message }

type Client struct {
	OffersBaseURL   string
	AdvisoryBaseURL string
	HTTP            *http.Client
}

func New(offersBaseURL, advisoryBaseURL string) *Client {
	return &Client{
		OffersBaseURL:   offersBaseURL,
		AdvisoryBaseURL: advisoryBaseURL,
		HTTP:            &http.Client{Timeout: 60 * time.Second},
	}
}

type CreateOfferResponse struct {
	Success     bool                `json:"success"`
	Offer       *domain.Offer       `json:"offer,omitempty"`
	Message     string              `json:"message,omitempty"`
	FieldErrors map[string][]string `json:"field_errors,omitempty"`
}

type UpdateOfferResponse struct {
	Success   bool          `json:"success"`
	Offer     *domain.Offer `json:"offer,omitempty"`
	Message   string        `json:"message,omitempty"`
	TermsHash string        `json:"terms_hash,omitempty"`
}

// CreateOffer submits an offer-creation payload. Validation failures are
// not transport errors: inspect Success and FieldErrors on the response.
func (c *Client) CreateOffer(ctx context.Context, in validate.OfferInput) (*CreateOfferResponse, error) {
	var out CreateOfferResponse
	if err := c.do(ctx, "POST", c.OffersBaseURL+"/offers", in, &out, 201, 422, 500); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOffer returns the offer, or nil when it does not exist.
func (c *Client) GetOffer(ctx context.Context, offerID string) (*domain.Offer, error) {
	var out struct {
		Offer *domain.Offer `json:"offer"`
	}
	err := c.do(ctx, "GET", c.OffersBaseURL+"/offers/"+url.PathEscape(offerID), nil, &out, 200)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			return nil, nil
		}
		return nil, err
	}
	return out.Offer, nil
}

// ListOffers returns every offer the email participates in, newest first.
func (c *Client) ListOffers(ctx context.Context, email string) ([]domain.Offer, error) {
	var out struct {
		Offers []domain.Offer `json:"offers"`
	}
	u := c.OffersBaseURL + "/offers?email=" + url.QueryEscape(email)
	if err := c.do(ctx, "GET", u, nil, &out, 200); err != nil {
		return nil, err
	}
	return out.Offers, nil
}

func (c *Client) AcceptOffer(ctx context.Context, offerID, accepterEmail string) (*UpdateOfferResponse, error) {
	return c.update(ctx, offerID, "accept", map[string]string{"accepter_email": accepterEmail})
}

func (c *Client) DeclineOffer(ctx context.Context, offerID, declinerEmail string) (*UpdateOfferResponse, error) {
	return c.update(ctx, offerID, "decline", map[string]string{"decliner_email": declinerEmail})
}

func (c *Client) FinalizeOffer(ctx context.Context, offerID string) (*UpdateOfferResponse, error) {
	return c.update(ctx, offerID, "finalize", nil)
}

func (c *Client) update(ctx context.Context, offerID, action string, body any) (*UpdateOfferResponse, error) {
	var out UpdateOfferResponse
	u := c.OffersBaseURL + "/offers/" + url.PathEscape(offerID) + "/" + action
	if err := c.do(ctx, "POST", u, body, &out, 200, 404, 409, 500); err != nil {
		return nil, err
	}
	return &out, nil
}

type CompletenessResult struct {
	IsComplete     bool     `json:"isComplete"`
	MissingDetails []string `json:"missingDetails"`
	Suggestions    []string `json:"suggestions"`
}

type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

type AnalysisResult struct {
	Score           int              `json:"score"`
	Summary         string           `json:"summary"`
	Recommendations []Recommendation `json:"recommendations"`
}

type DescriptionResult struct {
	Description string `json:"description"`
}

func (c *Client) CheckCompleteness(ctx context.Context, terms string) (*CompletenessResult, error) {
	var out CompletenessResult
	if err := c.advisory(ctx, "/advisory/completeness", map[string]string{"terms": terms}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AnalyzeAgreement(ctx context.Context, terms string) (*AnalysisResult, error) {
	var out AnalysisResult
	if err := c.advisory(ctx, "/advisory/analysis", map[string]string{"terms": terms}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GenerateDescription(ctx context.Context, title string) (*DescriptionResult, error) {
	var out DescriptionResult
	if err := c.advisory(ctx, "/advisory/description", map[string]string{"title": title}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) advisory(ctx context.Context, path string, body, result any) error {
	var env struct {
		Error  string          `json:"error"`
		Result json.RawMessage `json:"result"`
	}
	if err := c.do(ctx, "POST", c.AdvisoryBaseURL+path, body, &env, 200); err != nil {
		return err
	}
	if env.Error != "" {
		return &AdvisoryError{Message: env.Error}
	}
	return json.Unmarshal(env.Result, result)
}

func (c *Client) do(ctx context.Context, method, u string, body, dst any, okStatuses ...int) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	expected := false
	for _, s := range okStatuses {
		if resp.StatusCode == s {
			expected = true
			break
		}
	}
	if !expected {
		return decodeError(resp.StatusCode, raw)
	}

	// Expected non-2xx statuses still carry an error envelope rather than
	// the result shape (e.g. 404 on GetOffer).
	if resp.StatusCode >= 400 {
		var envelope struct {
			Error *struct {
				Code    string         `json:"code"`
				Message string         `json:"message"`
				Details map[string]any `json:"details"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error != nil {
			return decodeError(resp.StatusCode, raw)
		}
	}
	if dst == nil {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func decodeError(status int, raw []byte) error {
	var env struct {
		RequestID string `json:"request_id"`
		Error     struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	_ = json.Unmarshal(raw, &env)
	return &Error{
		StatusCode: status,
		ErrorCode:  env.Error.Code,
		Message:    env.Error.Message,
		RequestID:  env.RequestID,
		Details:    env.Error.Details,
	}
}
