package ollama

import (
	"context"

	"newsrag/internal/settings"
)

// DynamicClient resolves the answer model from runtime settings per call,
// so it can be changed without a restart.
type DynamicClient struct {
	base        *Client
	settingsSvc *settings.Service
}

func NewDynamicClient(base *Client, svc *settings.Service) *DynamicClient {
	return &DynamicClient{base: base, settingsSvc: svc}
}

func (c *DynamicClient) Generate(ctx context.Context, prompt string) (string, error) {
	client := c.base
	if c.settingsSvc != nil {
		if s, err := c.settingsSvc.Get(ctx); err == nil && s != nil && s.AnswerModel != "" {
			client = client.WithModel(s.AnswerModel)
		}
	}
	return client.Generate(ctx, prompt)
}
