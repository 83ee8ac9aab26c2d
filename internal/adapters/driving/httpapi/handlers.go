package httpapi

import (
	"errors"
	"net/http"

	"github.com/custodia-labs/faqbot/internal/core/domain"
	"github.com/custodia-labs/faqbot/internal/logger"
)

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Query string `json:"query" validate:"max=8192"`
}

// AskResponse is the body of a successful POST /ask.
type AskResponse struct {
	Answer       string    `json:"answer"`
	Similarities []float64 `json:"similarities"`
	UsedFallback bool      `json:"used_fallback"`
}

// RetrieveRequest is the body of POST /retrieve.
type RetrieveRequest struct {
	Query     string   `json:"query" validate:"max=8192"`
	TopK      int      `json:"top_k,omitempty" validate:"omitempty,min=1,max=100"`
	Threshold *float64 `json:"threshold,omitempty" validate:"omitempty,gte=-1,lte=1"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	info := s.ports.Retrieval.Info()
	status := http.StatusOK
	state := "ready"
	if info.Rows == 0 {
		status = http.StatusServiceUnavailable
		state = "empty_index"
	}
	writeJSON(w, status, map[string]any{
		"status":       state,
		"rows":         info.Rows,
		"dimensions":   info.Dimensions,
		"build_id":     info.Manifest.BuildID,
		"model":        info.Manifest.Model,
		"llm_attached": s.ports.Answer != nil,
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if s.ports.Answer == nil {
		writeError(w, http.StatusServiceUnavailable, "llm_unavailable", domain.ErrLLMUnavailable.Error())
		return
	}

	var req AskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	answer, err := s.ports.Answer.Ask(r.Context(), req.Query, s.ports.Retrieval.Defaults())
	if err != nil {
		if answer == nil {
			writeServiceError(w, err)
			return
		}
		logger.Error("ask: generation failed: %v", err)
		answer.Text = domain.ApologyText
	}

	writeJSON(w, http.StatusOK, AskResponse{
		Answer:       answer.Text,
		Similarities: nonNil(answer.Similarities),
		UsedFallback: answer.UsedFallback,
	})
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	opts := s.ports.Retrieval.Defaults()
	if req.TopK > 0 {
		opts.TopK = req.TopK
	}
	if req.Threshold != nil {
		opts.Threshold = *req.Threshold
	}

	result, err := s.ports.Retrieval.RetrieveWith(r.Context(), req.Query, opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	result.Scores = nonNil(result.Scores)

	writeJSON(w, http.StatusOK, result)
}

// writeServiceError maps core errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrEmbedding), errors.Is(err, domain.ErrEmbeddingUnavailable):
		logger.Error("embedding failed: %v", err)
		writeError(w, http.StatusBadGateway, "embedding_failed", "could not embed the query")
	default:
		logger.Error("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func nonNil(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}
