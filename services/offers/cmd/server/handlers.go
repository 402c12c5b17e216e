package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jdanjohnson/handshake-ai/pkg/domain"
	"github.com/jdanjohnson/handshake-ai/pkg/httpx"
	"github.com/jdanjohnson/handshake-ai/pkg/validate"
	"github.com/jdanjohnson/handshake-ai/services/offers/internal/service"
)

type createEnvelope struct {
	RequestID string `json:"request_id"`
	service.CreateResult
}

type updateEnvelope struct {
	RequestID string `json:"request_id"`
	service.UpdateResult
}

func registerOfferRoutes(r chi.Router, svc *service.Service) {
	r.Post("/offers", func(w http.ResponseWriter, req *http.Request) {
		var in validate.OfferInput
		if err := httpx.ReadJSON(req, &in); err != nil {
			httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
			return
		}
		res := svc.CreateOffer(req.Context(), in)
		status := http.StatusCreated
		switch {
		case res.FieldErrors != nil:
			status = http.StatusUnprocessableEntity
		case !res.Success:
			status = http.StatusInternalServerError
		}
		httpx.WriteJSON(w, status, createEnvelope{RequestID: httpx.NewRequestID(), CreateResult: res})
	})

	r.Get("/offers", func(w http.ResponseWriter, req *http.Request) {
		email := req.URL.Query().Get("email")
		if email == "" {
			httpx.WriteError(w, 400, "MISSING_EMAIL", "email query parameter is required", nil)
			return
		}
		offers, err := svc.GetOffersByEmail(req.Context(), email)
		if err != nil {
			httpx.WriteError(w, 500, "STORE_ERROR", "failed to list offers", nil)
			return
		}
		if offers == nil {
			offers = []domain.Offer{}
		}
		httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "offers": offers})
	})

	r.Get("/offers/{offer_id}", func(w http.ResponseWriter, req *http.Request) {
		offer, err := svc.GetOffer(req.Context(), chi.URLParam(req, "offer_id"))
		if err != nil {
			httpx.WriteError(w, 500, "STORE_ERROR", "failed to load offer", nil)
			return
		}
		if offer == nil {
			httpx.WriteNotFound(w, "offer not found")
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "offer": offer})
	})

	r.Post("/offers/{offer_id}/accept", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			AccepterEmail string `json:"accepter_email"`
		}
		if err := httpx.ReadJSON(req, &body); err != nil {
			httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
			return
		}
		res := svc.AcceptOffer(req.Context(), chi.URLParam(req, "offer_id"), body.AccepterEmail)
		httpx.WriteJSON(w, updateStatus(res), updateEnvelope{RequestID: httpx.NewRequestID(), UpdateResult: res})
	})

	r.Post("/offers/{offer_id}/decline", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			DeclinerEmail string `json:"decliner_email"`
		}
		if err := httpx.ReadJSON(req, &body); err != nil {
			httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
			return
		}
		res := svc.DeclineOffer(req.Context(), chi.URLParam(req, "offer_id"), body.DeclinerEmail)
		httpx.WriteJSON(w, updateStatus(res), updateEnvelope{RequestID: httpx.NewRequestID(), UpdateResult: res})
	})

	r.Post("/offers/{offer_id}/finalize", func(w http.ResponseWriter, req *http.Request) {
		res := svc.FinalizeOffer(req.Context(), chi.URLParam(req, "offer_id"))
		httpx.WriteJSON(w, updateStatus(res), updateEnvelope{RequestID: httpx.NewRequestID(), UpdateResult: res})
	})
}

func updateStatus(res service.UpdateResult) int {
	switch res.Kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindStoreError:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}
