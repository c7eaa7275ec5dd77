package ingest_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"newsrag/internal/ingest"
	"newsrag/internal/text"
)

type MockEmbedder struct{ mock.Mock }

func (m *MockEmbedder) Embed(ctx context.Context, t string) ([]float32, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockStore struct{ mock.Mock }

func (m *MockStore) UpsertChunk(ctx context.Context, c ingest.Chunk) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

// recordingStore collects upserted chunks without mock ceremony.
type recordingStore struct {
	chunks []ingest.Chunk
}

func (s *recordingStore) UpsertChunk(_ context.Context, c ingest.Chunk) error {
	s.chunks = append(s.chunks, c)
	return nil
}

type fixedEmbedder struct{ dim int }

func (e *fixedEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return make([]float32, e.dim), nil
}

func TestChunkID_Deterministic(t *testing.T) {
	a := ingest.ChunkID("art-1", "vi", 0)
	b := ingest.ChunkID("art-1", "vi", 0)
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, ingest.ChunkID("art-1", "vi", 1))
	assert.NotEqual(t, a, ingest.ChunkID("art-1", "en", 0))
	assert.NotEqual(t, a, ingest.ChunkID("art-2", "vi", 0))
}

func TestService_IngestArticle(t *testing.T) {
	t.Run("Single Language", func(t *testing.T) {
		store := &recordingStore{}
		svc := ingest.NewService(50, 10, 4, &fixedEmbedder{dim: 4}, store)

		n, err := svc.IngestArticle(context.Background(), ingest.Article{
			ID:       "art-1",
			URL:      "https://news.example/a",
			Title:    "Title",
			Content:  strings.Repeat("word ", 40),
			Language: "vi",
		})
		require.NoError(t, err)
		assert.Equal(t, len(store.chunks), n)
		assert.Greater(t, n, 1)

		for i, c := range store.chunks {
			assert.Equal(t, "art-1", c.ArticleID)
			assert.Equal(t, "vi", c.Language)
			assert.Equal(t, i, c.Sequence)
			assert.Equal(t, ingest.ChunkID("art-1", "vi", i), c.ID)
			assert.Len(t, c.Vector, 4)
		}
	})

	t.Run("Bilingual Fan Out", func(t *testing.T) {
		store := &recordingStore{}
		svc := ingest.NewService(100, 0, 4, &fixedEmbedder{dim: 4}, store)

		n, err := svc.IngestArticle(context.Background(), ingest.Article{
			ID:        "art-2",
			Title:     "Tiêu đề",
			Content:   "Nội dung bài báo tiếng Việt.",
			TitleEN:   "Headline",
			ContentEN: "English article body.",
			Language:  "vi",
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		langs := map[string]int{}
		for _, c := range store.chunks {
			langs[c.Language]++
		}
		assert.Equal(t, 1, langs["vi"])
		assert.Equal(t, 1, langs["en"])
	})

	t.Run("Reingest Produces Same Chunk IDs", func(t *testing.T) {
		art := ingest.Article{
			ID:       "art-3",
			Content:  strings.Repeat("market news sentence. ", 30),
			Language: "en",
		}

		first := &recordingStore{}
		svc := ingest.NewService(80, 20, 4, &fixedEmbedder{dim: 4}, first)
		_, err := svc.IngestArticle(context.Background(), art)
		require.NoError(t, err)

		second := &recordingStore{}
		svc = ingest.NewService(80, 20, 4, &fixedEmbedder{dim: 4}, second)
		_, err = svc.IngestArticle(context.Background(), art)
		require.NoError(t, err)

		require.Equal(t, len(first.chunks), len(second.chunks))
		for i := range first.chunks {
			assert.Equal(t, first.chunks[i].ID, second.chunks[i].ID)
			assert.Equal(t, first.chunks[i].Text, second.chunks[i].Text)
		}
	})

	t.Run("Embedder Failure Aborts Article", func(t *testing.T) {
		e := new(MockEmbedder)
		s := new(MockStore)
		e.On("Embed", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))

		svc := ingest.NewService(50, 0, 4, e, s)
		_, err := svc.IngestArticle(context.Background(), ingest.Article{
			ID: "art-4", Content: "some content", Language: "en",
		})
		assert.Error(t, err)
		s.AssertNotCalled(t, "UpsertChunk", mock.Anything, mock.Anything)
	})

	t.Run("Dimension Mismatch Aborts Article", func(t *testing.T) {
		store := &recordingStore{}
		svc := ingest.NewService(50, 0, 8, &fixedEmbedder{dim: 4}, store)

		_, err := svc.IngestArticle(context.Background(), ingest.Article{
			ID: "art-5", Content: "some content", Language: "en",
		})
		assert.Error(t, err)
		assert.Empty(t, store.chunks)
	})

	t.Run("Empty Content Is Invalid", func(t *testing.T) {
		store := &recordingStore{}
		svc := ingest.NewService(50, 0, 4, &fixedEmbedder{dim: 4}, store)

		_, err := svc.IngestArticle(context.Background(), ingest.Article{
			ID: "art-6", Content: "   ", Language: "en",
		})
		assert.ErrorIs(t, err, text.ErrInvalidConfig)
	})
}
