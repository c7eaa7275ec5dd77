package settings

import (
	"context"
)

// Settings are the runtime-tunable retrieval defaults. They live in a
// single Postgres row so operators can adjust ranking behavior without a
// redeploy; env config only seeds them on first boot.
type Settings struct {
	ID                int    `json:"-"`
	RerankProvider    string `json:"rerank_provider"`
	RerankAPIKey      string `json:"rerank_api_key"`
	GeminiAPIKey      string `json:"gemini_api_key"`
	AnswerModel       string `json:"answer_model"`
	SearchTopK        int    `json:"search_top_k"`
	UseReranker       bool   `json:"use_reranker"`
	InitialCandidates int    `json:"initial_candidates"`
}

type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, s *Settings) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context) (*Settings, error) {
	return s.repo.Get(ctx)
}

func (s *Service) Update(ctx context.Context, set *Settings) error {
	return s.repo.Update(ctx, set)
}
