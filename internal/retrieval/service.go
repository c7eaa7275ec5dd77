package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"newsrag/internal/settings"
)

var (
	// ErrInvalidConfig is a caller error: bad top_k or candidate counts.
	ErrInvalidConfig = errors.New("retrieval: invalid configuration")
	// ErrEmbeddingUnavailable means the embedder was unreachable or returned
	// a vector of the wrong length. Fatal for the query.
	ErrEmbeddingUnavailable = errors.New("retrieval: embedding service unavailable")
	// ErrStoreUnavailable means the vector store failed twice in a row.
	ErrStoreUnavailable = errors.New("retrieval: vector store unavailable")
	// ErrRerankerUnavailable is only ever logged: a reranker failure degrades
	// to the original similarity ranking instead of failing the query.
	ErrRerankerUnavailable = errors.New("retrieval: reranker unavailable")
)

// Candidate is one retrieved chunk with its payload. VectorScore always
// holds the store's similarity score; when a reranker ran, Score is the
// reranker score and RerankScore is set.
type Candidate struct {
	ChunkID     string   `json:"chunk_id"`
	ArticleID   string   `json:"article_id"`
	Text        string   `json:"text"`
	Title       string   `json:"title,omitempty"`
	URL         string   `json:"url,omitempty"`
	Language    string   `json:"language,omitempty"`
	Score       float64  `json:"score"`
	VectorScore float64  `json:"vector_score"`
	RerankScore *float64 `json:"rerank_score,omitempty"`
}

// Options override the stored retrieval defaults for a single query.
// Zero values mean "use the configured default".
type Options struct {
	TopK              int
	UseReranker       *bool
	InitialCandidates int
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	Search(ctx context.Context, vector []float32, limit int) ([]Candidate, error)
}

type Reranker interface {
	// Score returns one revised relevance score per document, aligned with
	// the input order.
	Score(ctx context.Context, query string, docs []string) ([]float64, error)
}

type SettingsService interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

type Service struct {
	embedder Embedder
	store    VectorStore
	reranker Reranker
	settings SettingsService
	dim      int
	logger   *QueryLogger
}

// NewService wires a stateless retriever. dim is the expected embedding
// length; 0 disables the check. reranker may be nil.
func NewService(e Embedder, s VectorStore, r Reranker, set SettingsService, dim int, l *QueryLogger) *Service {
	return &Service{embedder: e, store: s, reranker: r, settings: set, dim: dim, logger: l}
}

// Retrieve turns a query into a ranked, deduplicated context set of at most
// topK candidates. Fewer than topK results is a valid outcome, not an error.
func (s *Service) Retrieve(ctx context.Context, query string, opts *Options) ([]Candidate, error) {
	start := time.Now()
	var final []Candidate
	var err error

	defer func() {
		if s.logger != nil && err == nil {
			s.logger.Log(QueryLogEntry{
				Query:      query,
				NumResults: len(final),
				Duration:   time.Since(start),
			})
		}
	}()

	topK, useReranker, fetchK, err := s.resolveParams(ctx, opts)
	if err != nil {
		return nil, err
	}

	// 1. Embed the query.
	vec, embedErr := s.embedder.Embed(ctx, query)
	if embedErr != nil {
		err = fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, embedErr)
		return nil, err
	}
	if s.dim > 0 && len(vec) != s.dim {
		err = fmt.Errorf("%w: embedder returned %d dimensions, expected %d", ErrEmbeddingUnavailable, len(vec), s.dim)
		return nil, err
	}

	// 2. Nearest-neighbor search, retried once on failure.
	cands, searchErr := s.store.Search(ctx, vec, fetchK)
	if searchErr != nil {
		slog.WarnContext(ctx, "vector search failed, retrying", "error", searchErr)
		cands, searchErr = s.store.Search(ctx, vec, fetchK)
		if searchErr != nil {
			err = fmt.Errorf("%w: %v", ErrStoreUnavailable, searchErr)
			return nil, err
		}
	}

	for i := range cands {
		cands[i].VectorScore = cands[i].Score
	}

	// 3. Deduplicate by chunk ID. The store returns candidates in descending
	// score order, so the first occurrence is the highest-scoring one; this
	// guards against overlapping bilingual chunk variants.
	cands = dedupe(cands)

	// 4. Optional second-pass reranking. A reranker failure is degraded to
	// the original similarity ranking, never surfaced to the caller.
	if useReranker && s.reranker != nil && len(cands) > 0 {
		docs := make([]string, len(cands))
		for i, c := range cands {
			docs[i] = c.Text
		}

		scores, rerankErr := s.reranker.Score(ctx, query, docs)
		switch {
		case rerankErr != nil:
			slog.WarnContext(ctx, "reranker failed, falling back to similarity order",
				"error", fmt.Errorf("%w: %v", ErrRerankerUnavailable, rerankErr))
		case len(scores) != len(docs):
			slog.WarnContext(ctx, "reranker returned misaligned scores, falling back to similarity order",
				"got", len(scores), "want", len(docs))
		default:
			for i := range cands {
				score := scores[i]
				cands[i].RerankScore = &score
				cands[i].Score = score
			}
			// Stable sort keeps the original vector-store rank as the
			// tie-breaker, so repeated queries stay deterministic.
			sort.SliceStable(cands, func(i, j int) bool {
				return cands[i].Score > cands[j].Score
			})
		}
	}

	// 5. Truncate to topK.
	if len(cands) > topK {
		cands = cands[:topK]
	}

	final = cands
	return cands, nil
}

func (s *Service) resolveParams(ctx context.Context, opts *Options) (topK int, useReranker bool, fetchK int, err error) {
	topK = 5
	useReranker = false
	initial := 0

	if s.settings != nil {
		if set, setErr := s.settings.Get(ctx); setErr == nil && set != nil {
			topK = set.SearchTopK
			useReranker = set.UseReranker
			initial = set.InitialCandidates
		} else if setErr != nil {
			slog.WarnContext(ctx, "failed to load settings, using defaults", "error", setErr)
		}
	}

	if opts != nil {
		if opts.TopK != 0 {
			topK = opts.TopK
		}
		if opts.UseReranker != nil {
			useReranker = *opts.UseReranker
		}
		if opts.InitialCandidates != 0 {
			initial = opts.InitialCandidates
		}
	}

	if topK < 1 {
		return 0, false, 0, fmt.Errorf("%w: top_k must be at least 1, got %d", ErrInvalidConfig, topK)
	}

	if !useReranker {
		return topK, false, topK, nil
	}

	if initial == 0 {
		initial = topK * 3
		if initial < 20 {
			initial = 20
		}
	}
	if initial < topK {
		return 0, false, 0, fmt.Errorf("%w: initial_candidates (%d) must be >= top_k (%d)", ErrInvalidConfig, initial, topK)
	}

	return topK, true, initial, nil
}

func dedupe(cands []Candidate) []Candidate {
	seen := make(map[string]bool, len(cands))
	out := cands[:0]
	for _, c := range cands {
		if c.ChunkID != "" && seen[c.ChunkID] {
			continue
		}
		seen[c.ChunkID] = true
		out = append(out, c)
	}
	return out
}
