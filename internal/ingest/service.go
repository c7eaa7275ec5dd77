package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"newsrag/internal/text"
)

// Article is the crawler's output: a bilingual news article with the
// original text and an optional English translation.
type Article struct {
	ID          string
	URL         string
	Title       string
	Content     string
	TitleEN     string
	ContentEN   string
	Language    string
	PublishedAt string
}

// Chunk is the stored form of one window: deterministic ID, vector, and the
// payload the retriever hands back at query time.
type Chunk struct {
	ID        string
	ArticleID string
	Text      string
	Title     string
	URL       string
	Language  string
	Sequence  int
	Start     int
	End       int
	Vector    []float32
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	UpsertChunk(ctx context.Context, chunk Chunk) error
}

// ChunkID derives a stable UUID (v5, DNS namespace) from the article ID,
// language, and window sequence, so re-ingesting an article overwrites its
// chunks instead of duplicating them.
func ChunkID(articleID, lang string, seq int) string {
	name := fmt.Sprintf("%s/%s/%d", articleID, lang, seq)
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(name)).String()
}

type Service struct {
	chunkSize int
	overlap   int
	dim       int
	embedder  Embedder
	store     VectorStore
}

func NewService(chunkSize, overlap, dim int, e Embedder, s VectorStore) *Service {
	return &Service{chunkSize: chunkSize, overlap: overlap, dim: dim, embedder: e, store: s}
}

// IngestArticle chunks, embeds, and upserts one article. Bilingual articles
// fan out into a chunk stream per language. Returns the number of chunks
// written; any failure aborts this article only.
func (s *Service) IngestArticle(ctx context.Context, art Article) (int, error) {
	lang := art.Language
	if lang == "" {
		lang = "vi"
	}

	docs := []document{{lang: lang, title: art.Title, body: art.Content}}
	if art.ContentEN != "" {
		title := art.TitleEN
		if title == "" {
			title = art.Title
		}
		docs = append(docs, document{lang: "en", title: title, body: art.ContentEN})
	}

	total := 0
	for _, doc := range docs {
		n, err := s.ingestDocument(ctx, art, doc)
		if err != nil {
			return total, fmt.Errorf("ingest %s (%s): %w", art.ID, doc.lang, err)
		}
		total += n
	}

	slog.InfoContext(ctx, "article ingested", "article_id", art.ID, "chunks", total)
	return total, nil
}

type document struct {
	lang  string
	title string
	body  string
}

func (s *Service) ingestDocument(ctx context.Context, art Article, doc document) (int, error) {
	windows, err := text.Chunk(doc.body, s.chunkSize, s.overlap)
	if err != nil {
		return 0, err
	}

	for _, w := range windows {
		// The context header improves retrieval for short windows that
		// would otherwise lose the article they belong to.
		contextual := fmt.Sprintf("Title: %s\nURL: %s\nLang: %s\n---\n%s",
			doc.title, art.URL, doc.lang, w.Text)

		vector, err := s.embedder.Embed(ctx, contextual)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d: %w", w.Sequence, err)
		}
		if s.dim > 0 && len(vector) != s.dim {
			return 0, fmt.Errorf("embed chunk %d: got %d dimensions, expected %d", w.Sequence, len(vector), s.dim)
		}

		chunk := Chunk{
			ID:        ChunkID(art.ID, doc.lang, w.Sequence),
			ArticleID: art.ID,
			Text:      w.Text,
			Title:     doc.title,
			URL:       art.URL,
			Language:  doc.lang,
			Sequence:  w.Sequence,
			Start:     w.Start,
			End:       w.End,
			Vector:    vector,
		}

		if err := s.store.UpsertChunk(ctx, chunk); err != nil {
			return 0, fmt.Errorf("store chunk %d: %w", w.Sequence, err)
		}
	}

	return len(windows), nil
}
