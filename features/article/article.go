package article

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"

	"newsrag/internal/config"
	"newsrag/internal/ingest"
	"newsrag/internal/middleware"
)

// Article is a crawled news article as delivered by the external crawler.
// Immutable once stored; ingestion state lives in Status/ChunkCount/Error.
type Article struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	TitleEN     string `json:"title_en,omitempty"`
	ContentEN   string `json:"content_en,omitempty"`
	Language    string `json:"language"`
	PublishedAt string `json:"published_at,omitempty"`
	ContentHash string `json:"-"`
	Status      string `json:"status"` // in_progress, completed, failed
	ChunkCount  int    `json:"chunk_count"`
	Error       string `json:"error,omitempty"`
}

type Repository interface {
	Save(ctx context.Context, art *Article) error
	ExistsByHash(ctx context.Context, hash string) (bool, error)
	Get(ctx context.Context, id string) (*Article, error)
	List(ctx context.Context) ([]Article, error)
	UpdateStatus(ctx context.Context, id, status string) error
	SetResult(ctx context.Context, id, status string, chunkCount int, errMsg string) error
	SoftDelete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type ChunkStore interface {
	GetChunksByArticle(ctx context.Context, articleID string) ([]ingest.Chunk, error)
	DeleteChunksByArticle(ctx context.Context, articleID string) error
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	repo       Repository
	pub        EventPublisher
	chunkStore ChunkStore
}

func NewService(repo Repository, pub EventPublisher, chunkStore ChunkStore) *Service {
	return &Service{repo: repo, pub: pub, chunkStore: chunkStore}
}

// Create stores a new article and queues it for ingestion. Duplicate
// content (same URL + text) is rejected so re-crawls don't double-index.
func (s *Service) Create(ctx context.Context, art *Article) error {
	hash := sha256.Sum256([]byte(art.URL + "\x00" + art.Content))
	art.ContentHash = fmt.Sprintf("%x", hash)

	if art.Language == "" {
		art.Language = "vi"
	}

	exists, err := s.repo.ExistsByHash(ctx, art.ContentHash)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicate
	}

	art.Status = "in_progress"
	if err := s.repo.Save(ctx, art); err != nil {
		return err
	}

	s.publishIngest(ctx, art.ID)
	return nil
}

// Reingest re-queues an existing article. Chunk IDs are deterministic, so
// this overwrites the article's chunks rather than duplicating them.
func (s *Service) Reingest(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, "in_progress"); err != nil {
		return err
	}
	s.publishIngest(ctx, id)
	return nil
}

type ArticleDetail struct {
	Article
	Chunks      []ingest.Chunk `json:"chunks"`
	TotalChunks int            `json:"total_chunks"`
}

func (s *Service) Get(ctx context.Context, id string) (*ArticleDetail, error) {
	art, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	chunks, err := s.chunkStore.GetChunksByArticle(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch chunks", "error", err, "article_id", id)
		chunks = []ingest.Chunk{}
	}

	return &ArticleDetail{Article: *art, Chunks: chunks, TotalChunks: len(chunks)}, nil
}

func (s *Service) List(ctx context.Context) ([]Article, error) {
	return s.repo.List(ctx)
}

// Delete soft-deletes the article row and removes its chunks from the
// vector store so it can no longer be retrieved.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	if err := s.chunkStore.DeleteChunksByArticle(ctx, id); err != nil {
		slog.ErrorContext(ctx, "failed to delete chunks", "error", err, "article_id", id)
		return err
	}
	return nil
}

func (s *Service) publishIngest(ctx context.Context, id string) {
	payload, _ := json.Marshal(map[string]interface{}{
		"article_id":     id,
		"correlation_id": middleware.GetCorrelationID(ctx),
	})
	if err := s.pub.Publish(config.TopicIngestArticle, payload); err != nil {
		slog.ErrorContext(ctx, "failed to publish ingest.article event", "error", err, "article_id", id)
	} else {
		slog.InfoContext(ctx, "published ingest.article event", "article_id", id)
	}
}
