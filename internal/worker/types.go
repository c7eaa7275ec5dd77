package worker

import (
	"context"

	"newsrag/internal/ingest"
)

// ArticleSource provides the consumer's view of article storage: load the
// article to ingest, record the outcome.
type ArticleSource interface {
	GetArticle(ctx context.Context, id string) (*ingest.Article, error)
	SetResult(ctx context.Context, id, status string, chunkCount int, errMsg string) error
}

type Ingestor interface {
	IngestArticle(ctx context.Context, art ingest.Article) (int, error)
}

type ChunkDeleter interface {
	DeleteChunksByArticle(ctx context.Context, articleID string) error
}
