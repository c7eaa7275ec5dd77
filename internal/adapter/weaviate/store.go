package weaviate

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"newsrag/internal/ingest"
	"newsrag/internal/retrieval"
	"newsrag/internal/vector"
)

// Store adapts the Weaviate client to the ingestion and retrieval
// interfaces. Chunks are stored under their deterministic IDs, so writing
// the same chunk twice replaces it instead of duplicating it.
type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

func (s *Store) UpsertChunk(ctx context.Context, chunk ingest.Chunk) error {
	props := map[string]interface{}{
		"chunkId":    chunk.ID,
		"text":       chunk.Text,
		"articleId":  chunk.ArticleID,
		"title":      chunk.Title,
		"url":        chunk.URL,
		"lang":       chunk.Language,
		"chunkIndex": chunk.Sequence,
	}

	_, err := s.client.Data().Creator().
		WithClassName(vector.ClassName).
		WithID(chunk.ID).
		WithProperties(props).
		WithVector(chunk.Vector).
		Do(ctx)
	if err == nil {
		return nil
	}

	// The ID already exists from a previous ingestion of this article;
	// replace the object in place.
	return s.client.Data().Updater().
		WithClassName(vector.ClassName).
		WithID(chunk.ID).
		WithProperties(props).
		WithVector(chunk.Vector).
		Do(ctx)
}

func (s *Store) Search(ctx context.Context, queryVector []float32, limit int) ([]retrieval.Candidate, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(queryVector)

	fields := []graphql.Field{
		{Name: "text"},
		{Name: "chunkId"},
		{Name: "articleId"},
		{Name: "title"},
		{Name: "url"},
		{Name: "lang"},
		{Name: "chunkIndex"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}, {Name: "id"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithNearVector(nearVector).
		WithLimit(limit).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	var results []retrieval.Candidate
	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return results, nil
	}
	chunks, ok := data[vector.ClassName].([]interface{})
	if !ok {
		return results, nil
	}

	for _, c := range chunks {
		props, ok := c.(map[string]interface{})
		if !ok {
			continue
		}

		cand := retrieval.Candidate{}
		if v, ok := props["text"].(string); ok {
			cand.Text = v
		}
		if v, ok := props["chunkId"].(string); ok {
			cand.ChunkID = v
		}
		if v, ok := props["articleId"].(string); ok {
			cand.ArticleID = v
		}
		if v, ok := props["title"].(string); ok {
			cand.Title = v
		}
		if v, ok := props["url"].(string); ok {
			cand.URL = v
		}
		if v, ok := props["lang"].(string); ok {
			cand.Language = v
		}

		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			if certainty, ok := additional["certainty"].(float64); ok {
				cand.Score = certainty
			}
			if cand.ChunkID == "" {
				if id, ok := additional["id"].(string); ok {
					cand.ChunkID = id
				}
			}
		}

		results = append(results, cand)
	}

	return results, nil
}

func (s *Store) DeleteChunksByArticle(ctx context.Context, articleID string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(vector.ClassName).
		WithOutput("minimal").
		WithWhere(filters.Where().
			WithPath([]string{"articleId"}).
			WithOperator(filters.Equal).
			WithValueString(articleID)).
		Do(ctx)
	return err
}

func (s *Store) GetChunksByArticle(ctx context.Context, articleID string) ([]ingest.Chunk, error) {
	fields := []graphql.Field{
		{Name: "text"},
		{Name: "chunkId"},
		{Name: "articleId"},
		{Name: "title"},
		{Name: "url"},
		{Name: "lang"},
		{Name: "chunkIndex"},
	}

	where := filters.Where().
		WithPath([]string{"articleId"}).
		WithOperator(filters.Equal).
		WithValueString(articleID)

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithWhere(where).
		WithLimit(1000).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	var chunks []ingest.Chunk
	if data, ok := res.Data["Get"].(map[string]interface{}); ok {
		if raw, ok := data[vector.ClassName].([]interface{}); ok {
			for _, c := range raw {
				props, ok := c.(map[string]interface{})
				if !ok {
					continue
				}
				chunk := ingest.Chunk{}
				if v, ok := props["text"].(string); ok {
					chunk.Text = v
				}
				if v, ok := props["chunkId"].(string); ok {
					chunk.ID = v
				}
				if v, ok := props["articleId"].(string); ok {
					chunk.ArticleID = v
				}
				if v, ok := props["title"].(string); ok {
					chunk.Title = v
				}
				if v, ok := props["url"].(string); ok {
					chunk.URL = v
				}
				if v, ok := props["lang"].(string); ok {
					chunk.Language = v
				}
				if v, ok := props["chunkIndex"].(float64); ok {
					chunk.Sequence = int(v)
				}
				chunks = append(chunks, chunk)
			}
		}
	}
	return chunks, nil
}

func (s *Store) CountChunks(ctx context.Context) (int, error) {
	res, err := s.client.GraphQL().Aggregate().
		WithClassName(vector.ClassName).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("graphql error: %v", res.Errors)
	}

	if data, ok := res.Data["Aggregate"].(map[string]interface{}); ok {
		if classes, ok := data[vector.ClassName].([]interface{}); ok && len(classes) > 0 {
			if entry, ok := classes[0].(map[string]interface{}); ok {
				if meta, ok := entry["meta"].(map[string]interface{}); ok {
					if count, ok := meta["count"].(float64); ok {
						return int(count), nil
					}
				}
			}
		}
	}
	return 0, nil
}
