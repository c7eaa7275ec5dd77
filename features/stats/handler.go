package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"newsrag/internal/middleware"
)

type ArticleRepo interface {
	Count(ctx context.Context) (int, error)
}

type VectorStore interface {
	CountChunks(ctx context.Context) (int, error)
}

type Handler struct {
	articleRepo ArticleRepo
	vectorStore VectorStore
}

func NewHandler(a ArticleRepo, v VectorStore) *Handler {
	return &Handler{articleRepo: a, vectorStore: v}
}

type StatsResponse struct {
	Articles int `json:"articles"`
	Chunks   int `json:"chunks"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	aCount, err := h.articleRepo.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count articles", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count articles", http.StatusInternalServerError)
		return
	}

	cCount, err := h.vectorStore.CountChunks(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count chunks", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count chunks", http.StatusInternalServerError)
		return
	}

	resp := StatsResponse{
		Articles: aCount,
		Chunks:   cCount,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
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
