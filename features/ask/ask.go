package ask

import (
	"context"

	"newsrag/internal/retrieval"
)

type Retriever interface {
	Retrieve(ctx context.Context, query string, opts *retrieval.Options) ([]retrieval.Candidate, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Answer is a generated response plus the retrieved passages it was
// grounded on, in the order they were presented to the model.
type Answer struct {
	Text    string                `json:"answer"`
	Sources []retrieval.Candidate `json:"sources"`
}

type Service struct {
	retriever Retriever
	generator Generator
}

func NewService(r Retriever, g Generator) *Service {
	return &Service{retriever: r, generator: g}
}

// Search runs retrieval only, returning the ranked context set.
func (s *Service) Search(ctx context.Context, query string, opts *retrieval.Options) ([]retrieval.Candidate, error) {
	return s.retriever.Retrieve(ctx, query, opts)
}

// Ask retrieves context for the question and generates a grounded answer.
// An empty context set short-circuits generation.
func (s *Service) Ask(ctx context.Context, question string, opts *retrieval.Options) (*Answer, error) {
	contexts, err := s.retriever.Retrieve(ctx, question, opts)
	if err != nil {
		return nil, err
	}

	if len(contexts) == 0 {
		return &Answer{Text: NoAnswerMessage, Sources: []retrieval.Candidate{}}, nil
	}

	text, err := s.generator.Generate(ctx, BuildPrompt(question, contexts))
	if err != nil {
		return nil, err
	}

	return &Answer{Text: text, Sources: contexts}, nil
}
