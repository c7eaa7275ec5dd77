package settings

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"newsrag/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	set, err := h.service.Get(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load settings", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "failed to load settings", http.StatusInternalServerError)
		return
	}

	// Never echo credentials back to the UI.
	masked := *set
	if masked.RerankAPIKey != "" {
		masked.RerankAPIKey = "********"
	}
	if masked.GeminiAPIKey != "" {
		masked.GeminiAPIKey = "********"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": masked}); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	if req.SearchTopK < 1 {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "search_top_k must be at least 1", http.StatusBadRequest)
		return
	}
	if req.InitialCandidates < req.SearchTopK {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "initial_candidates must be >= search_top_k", http.StatusBadRequest)
		return
	}

	current, err := h.service.Get(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "failed to load settings", http.StatusInternalServerError)
		return
	}

	// Masked keys mean "keep the stored value".
	if req.RerankAPIKey == "" || req.RerankAPIKey == "********" {
		req.RerankAPIKey = current.RerankAPIKey
	}
	if req.GeminiAPIKey == "" || req.GeminiAPIKey == "********" {
		req.GeminiAPIKey = current.GeminiAPIKey
	}

	if err := h.service.Update(r.Context(), &req); err != nil {
		slog.ErrorContext(r.Context(), "failed to update settings", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "failed to update settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": "updated"}); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
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
