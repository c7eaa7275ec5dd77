package reranker

import (
	"context"

	"newsrag/internal/settings"
)

// DynamicClient resolves the rerank provider and API key from runtime
// settings per call, so they can be changed without a restart.
type DynamicClient struct {
	settingsSvc      *settings.Service
	fallbackProvider string
	fallbackKey      string
	baseURL          string
}

func NewDynamicClient(svc *settings.Service, fallbackProvider, fallbackKey string) *DynamicClient {
	return &DynamicClient{
		settingsSvc:      svc,
		fallbackProvider: fallbackProvider,
		fallbackKey:      fallbackKey,
	}
}

func (c *DynamicClient) SetBaseURL(url string) {
	c.baseURL = url
}

func (c *DynamicClient) Score(ctx context.Context, query string, docs []string) ([]float64, error) {
	provider := c.fallbackProvider
	key := c.fallbackKey

	if s, err := c.settingsSvc.Get(ctx); err == nil {
		if s.RerankProvider != "" {
			provider = s.RerankProvider
		}
		if s.RerankAPIKey != "" {
			key = s.RerankAPIKey
		}
	}

	client := NewClient(provider, key)
	if c.baseURL != "" {
		client.SetBaseURL(c.baseURL)
	}
	return client.Score(ctx, query, docs)
}
