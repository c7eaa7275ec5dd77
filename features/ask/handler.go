package ask

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"newsrag/internal/adapter/ollama"
	"newsrag/internal/middleware"
	"newsrag/internal/retrieval"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type queryRequest struct {
	Query             string `json:"query"`
	TopK              int    `json:"top_k,omitempty"`
	UseReranker       *bool  `json:"use_reranker,omitempty"`
	InitialCandidates int    `json:"initial_candidates,omitempty"`
}

func (r queryRequest) options() *retrieval.Options {
	return &retrieval.Options{
		TopK:              r.TopK,
		UseReranker:       r.UseReranker,
		InitialCandidates: r.InitialCandidates,
	}
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "query is required", http.StatusBadRequest)
		return
	}

	results, err := h.service.Search(r.Context(), req.Query, req.options())
	if err != nil {
		h.writeRetrievalError(r.Context(), w, err)
		return
	}

	if results == nil {
		results = []retrieval.Candidate{}
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"data": results,
		"meta": map[string]int{"count": len(results)},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "query is required", http.StatusBadRequest)
		return
	}

	answer, err := h.service.Ask(r.Context(), req.Query, req.options())
	if err != nil {
		if errors.Is(err, ollama.ErrGenerationUnavailable) {
			slog.ErrorContext(r.Context(), "answer generation failed", "error", err)
			h.writeError(r.Context(), w, "GENERATION_UNAVAILABLE", "answer generation is unavailable", http.StatusBadGateway)
			return
		}
		h.writeRetrievalError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": answer}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeRetrievalError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, retrieval.ErrInvalidConfig):
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
	case errors.Is(err, retrieval.ErrEmbeddingUnavailable):
		slog.ErrorContext(ctx, "query embedding failed", "error", err)
		h.writeError(ctx, w, "EMBEDDING_UNAVAILABLE", "query embedding is unavailable", http.StatusBadGateway)
	case errors.Is(err, retrieval.ErrStoreUnavailable):
		slog.ErrorContext(ctx, "vector search failed", "error", err)
		h.writeError(ctx, w, "VECTOR_STORE_UNAVAILABLE", "vector store is unavailable", http.StatusBadGateway)
	default:
		slog.ErrorContext(ctx, "retrieval failed", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
