package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClient_Generate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "qwen2.5:7b", req.Model)
		assert.False(t, req.Stream)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.Equal(t, "user", req.Messages[1].Role)
			assert.Equal(t, "what happened today?", req.Messages[1].Content)
		}

		json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: "  grounded answer\n"},
		})
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "qwen2.5:7b")
	answer, err := client.Generate(context.Background(), "what happened today?")
	assert.NoError(t, err)
	assert.Equal(t, "grounded answer", answer)
}

func TestClient_Generate_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "qwen2.5:7b")
	_, err := client.Generate(context.Background(), "q")
	assert.ErrorIs(t, err, ErrGenerationUnavailable)
}

func TestClient_Generate_ErrorInBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{Error: "model not found"})
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "missing-model")
	_, err := client.Generate(context.Background(), "q")
	assert.ErrorIs(t, err, ErrGenerationUnavailable)
	assert.Contains(t, err.Error(), "model not found")
}

func TestClient_Generate_Unreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "qwen2.5:7b")
	_, err := client.Generate(context.Background(), "q")
	assert.ErrorIs(t, err, ErrGenerationUnavailable)
}

func TestClient_WithModel(t *testing.T) {
	client := NewClient("http://localhost:11434", "qwen2.5:7b")

	override := client.WithModel("llama3.1:8b")
	assert.NotSame(t, client, override)
	assert.Equal(t, "llama3.1:8b", override.model)
	assert.Equal(t, "qwen2.5:7b", client.model)

	// Empty or identical model returns the same client.
	assert.Same(t, client, client.WithModel(""))
	assert.Same(t, client, client.WithModel("qwen2.5:7b"))
}
