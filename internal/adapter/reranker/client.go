package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client calls a hosted cross-encoder rerank API (Jina or Cohere) and
// returns one revised relevance score per input document, aligned with the
// input order. Documents the API omits keep a zero score.
type Client struct {
	apiKey   string
	provider string
	client   *http.Client
	baseURL  string
}

func NewClient(provider, apiKey string) *Client {
	return &Client{
		provider: provider,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

func (c *Client) Score(ctx context.Context, query string, docs []string) ([]float64, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	switch c.provider {
	case "jina":
		return c.scoreJina(ctx, query, docs)
	case "cohere":
		return c.scoreCohere(ctx, query, docs)
	}
	return nil, fmt.Errorf("unknown rerank provider: %q", c.provider)
}

type rerankResponse struct {
	Results []struct {
		Index int     `json:"index"`
		Score float64 `json:"relevance_score"`
	} `json:"results"`
}

func (c *Client) scoreJina(ctx context.Context, query string, docs []string) ([]float64, error) {
	url := "https://api.jina.ai/v1/rerank"
	if c.baseURL != "" {
		url = c.baseURL
	}

	reqBody := map[string]interface{}{
		"model":     "jina-reranker-v2-base-multilingual",
		"query":     query,
		"documents": docs,
		"top_n":     len(docs),
	}

	return c.post(ctx, url, reqBody, len(docs))
}

func (c *Client) scoreCohere(ctx context.Context, query string, docs []string) ([]float64, error) {
	url := "https://api.cohere.ai/v1/rerank"
	if c.baseURL != "" {
		url = c.baseURL
	}

	reqBody := map[string]interface{}{
		"model":            "rerank-multilingual-v3.0",
		"query":            query,
		"documents":        docs,
		"top_n":            len(docs),
		"return_documents": false,
	}

	return c.post(ctx, url, reqBody, len(docs))
}

func (c *Client) post(ctx context.Context, url string, reqBody map[string]interface{}, n int) ([]float64, error) {
	jsonBody, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("%s rerank api error: %d", c.provider, resp.StatusCode)
	}

	var result rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	scores := make([]float64, n)
	for _, r := range result.Results {
		if r.Index >= 0 && r.Index < n {
			scores[r.Index] = r.Score
		}
	}

	return scores, nil
}
