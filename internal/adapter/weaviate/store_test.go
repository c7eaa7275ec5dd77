package weaviate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	adapter "newsrag/internal/adapter/weaviate"
	"newsrag/internal/ingest"
)

func mockWeaviate(t *testing.T, handler http.HandlerFunc) (*weaviate.Client, *httptest.Server) {
	ts := httptest.NewServer(handler)
	cfg := weaviate.Config{Host: ts.Listener.Addr().String(), Scheme: "http"}
	client, err := weaviate.NewClient(cfg)
	assert.NoError(t, err)
	return client, ts
}

func TestStore_UpsertChunk(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		assert.Equal(t, "/v1/objects", r.URL.Path)
		assert.Equal(t, "POST", r.Method)

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "chunk-id-1", body["id"])
		props := body["properties"].(map[string]interface{})
		assert.Equal(t, "test content", props["text"])
		assert.Equal(t, "art-1", props["articleId"])

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "chunk-id-1"})
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	chunk := ingest.Chunk{
		ID:        "chunk-id-1",
		Text:      "test content",
		ArticleID: "art-1",
		Sequence:  0,
		Vector:    []float32{0.1, 0.2},
	}
	err := store.UpsertChunk(context.Background(), chunk)
	assert.NoError(t, err)
}

func TestStore_UpsertChunk_ExistingIDFallsBackToUpdate(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		if r.Method == "POST" {
			// Create rejects the duplicate ID; the store retries as an update.
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"error": [{"message": "id already exists"}]}`))
			return
		}
		assert.Equal(t, "PUT", r.Method)
		assert.Equal(t, "/v1/objects/NewsChunk/chunk-id-1", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "chunk-id-1"})
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	chunk := ingest.Chunk{ID: "chunk-id-1", Text: "updated", ArticleID: "art-1", Vector: []float32{0.1}}
	err := store.UpsertChunk(context.Background(), chunk)
	assert.NoError(t, err)
}

func TestStore_Search(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		assert.Equal(t, "/v1/graphql", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"Get": map[string]interface{}{
					"NewsChunk": []interface{}{
						map[string]interface{}{
							"text":      "found content",
							"chunkId":   "chunk-1",
							"articleId": "art-1",
							"title":     "Headline",
							"lang":      "vi",
							"_additional": map[string]interface{}{
								"certainty": 0.95,
								"id":        "weaviate-uuid",
							},
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	results, err := store.Search(context.Background(), []float32{0.1, 0.2}, 10)
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "found content", results[0].Text)
	assert.Equal(t, "chunk-1", results[0].ChunkID)
	assert.Equal(t, 0.95, results[0].Score)
}

func TestStore_Search_FallsBackToObjectID(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"Get": map[string]interface{}{
					"NewsChunk": []interface{}{
						map[string]interface{}{
							"text": "legacy chunk",
							"_additional": map[string]interface{}{
								"certainty": 0.8,
								"id":        "weaviate-uuid",
							},
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	results, err := store.Search(context.Background(), []float32{0.1}, 5)
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "weaviate-uuid", results[0].ChunkID)
}

func TestStore_Search_GraphQLError(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		resp := map[string]interface{}{
			"errors": []interface{}{
				map[string]interface{}{"message": "vector length mismatch"},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	_, err := store.Search(context.Background(), []float32{0.1}, 5)
	assert.Error(t, err)
}

func TestStore_GetChunksByArticle(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		assert.Equal(t, "/v1/graphql", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"Get": map[string]interface{}{
					"NewsChunk": []interface{}{
						map[string]interface{}{
							"text":       "chunk content",
							"chunkId":    "chunk-1",
							"articleId":  "art-1",
							"chunkIndex": 0.0,
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	chunks, err := store.GetChunksByArticle(context.Background(), "art-1")
	assert.NoError(t, err)
	assert.Len(t, chunks, 1)
	assert.Equal(t, "chunk content", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Sequence)
}

func TestStore_DeleteChunksByArticle(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		assert.Equal(t, "/v1/batch/objects", r.URL.Path)
		assert.Equal(t, "DELETE", r.Method)
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{})
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	err := store.DeleteChunksByArticle(context.Background(), "art-1")
	assert.NoError(t, err)
}

func TestStore_CountChunks(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		assert.Equal(t, "/v1/graphql", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"Aggregate": map[string]interface{}{
					"NewsChunk": []interface{}{
						map[string]interface{}{
							"meta": map[string]interface{}{
								"count": 42.0,
							},
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	count, err := store.CountChunks(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 42, count)
}
