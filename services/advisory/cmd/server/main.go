package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/jdanjohnson/handshake-ai/pkg/httpx"
	"github.com/jdanjohnson/handshake-ai/services/advisory/internal/advisor"
	"github.com/jdanjohnson/handshake-ai/services/advisory/internal/llm"
)

func main() {
	llmURL := os.Getenv("LLM_SERVICE_URL")
	if llmURL == "" {
		llmURL = "https://api.openai.com/v1/chat/completions"
	}
	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	adv := advisor.New(llm.NewClient(llmURL, os.Getenv("LLM_API_KEY"), model))

	port := os.Getenv("SERVICE_PORT")
	if port == "" {
		port = "8083"
	}

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	registerAdvisoryRoutes(r, adv)

	log.Printf("advisory: listening on :%s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("advisory: %v", err)
	}
}

func registerAdvisoryRoutes(r chi.Router, adv *advisor.Advisor) {
	r.Route("/advisory", func(api chi.Router) {
		api.Post("/completeness", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Terms string `json:"terms"`
			}
			if err := httpx.ReadJSON(req, &body); err != nil {
				httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
				return
			}
			res, err := adv.CheckCompleteness(req.Context(), body.Terms)
			writeAdvisory(w, res, err)
		})

		api.Post("/analysis", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Terms string `json:"terms"`
			}
			if err := httpx.ReadJSON(req, &body); err != nil {
				httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
				return
			}
			res, err := adv.AnalyzeAgreement(req.Context(), body.Terms)
			writeAdvisory(w, res, err)
		})

		api.Post("/description", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Title string `json:"title"`
			}
			if err := httpx.ReadJSON(req, &body); err != nil {
				httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
				return
			}
			res, err := adv.GenerateDescription(req.Context(), body.Title)
			writeAdvisory(w, res, err)
		})
	})
}

// Advisory failures are guidance for the end user, not transport faults,
// so they ride on HTTP 200 with an error string.
func writeAdvisory(w http.ResponseWriter, result any, err error) {
	if err != nil {
		httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "error": err.Error()})
		return
	}
	httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "result": result})
}
