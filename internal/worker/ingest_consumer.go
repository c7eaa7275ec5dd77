package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"

	"newsrag/internal/middleware"
	"newsrag/internal/text"
)

// IngestConsumer processes ingest.article messages: it loads the article,
// clears its previous chunks, and runs chunking + embedding + upsert.
// Transient failures are returned to NSQ for redelivery; permanent ones
// mark the article failed and drop the message.
type IngestConsumer struct {
	source   ArticleSource
	ingestor Ingestor
	deleter  ChunkDeleter
}

func NewIngestConsumer(source ArticleSource, ingestor Ingestor, deleter ChunkDeleter) *IngestConsumer {
	return &IngestConsumer{source: source, ingestor: ingestor, deleter: deleter}
}

func (h *IngestConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload ArticleIngestPayload
	err := json.Unmarshal(m.Body, &payload)

	correlationID := payload.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	ctx := middleware.WithCorrelationID(context.Background(), correlationID)

	if err != nil {
		slog.ErrorContext(ctx, "invalid message format, dropping", "error", err)
		return nil
	}
	if payload.ArticleID == "" {
		slog.ErrorContext(ctx, "missing article_id, dropping")
		return nil
	}

	art, err := h.source.GetArticle(ctx, payload.ArticleID)
	if err != nil {
		// The article may have been deleted between publish and consume.
		slog.ErrorContext(ctx, "failed to load article, dropping", "error", err, "article_id", payload.ArticleID)
		return nil
	}

	// Deterministic chunk IDs overwrite on re-ingest, but a shorter article
	// would leave stale tail chunks behind. Clear first.
	if err := h.deleter.DeleteChunksByArticle(ctx, art.ID); err != nil {
		slog.ErrorContext(ctx, "failed to delete old chunks, will retry", "error", err, "article_id", art.ID)
		return err
	}

	count, err := h.ingestor.IngestArticle(ctx, *art)
	if err != nil {
		if errors.Is(err, text.ErrInvalidConfig) {
			// Empty content or bad chunking parameters won't improve on
			// redelivery.
			slog.ErrorContext(ctx, "article not ingestable, dropping", "error", err, "article_id", art.ID)
			if setErr := h.source.SetResult(ctx, art.ID, "failed", 0, err.Error()); setErr != nil {
				slog.WarnContext(ctx, "failed to record ingestion failure", "error", setErr, "article_id", art.ID)
			}
			return nil
		}

		slog.ErrorContext(ctx, "ingestion failed, will retry", "error", err, "article_id", art.ID)
		if setErr := h.source.SetResult(ctx, art.ID, "failed", 0, err.Error()); setErr != nil {
			slog.WarnContext(ctx, "failed to record ingestion failure", "error", setErr, "article_id", art.ID)
		}
		return err
	}

	if err := h.source.SetResult(ctx, art.ID, "completed", count, ""); err != nil {
		slog.WarnContext(ctx, "failed to record ingestion result", "error", err, "article_id", art.ID)
	}

	slog.InfoContext(ctx, "article ingestion completed", "article_id", art.ID, "chunks", count)
	return nil
}
