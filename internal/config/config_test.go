package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"newsrag/internal/config"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("DB_HOST", "test-host")
	defer os.Unsetenv("DB_HOST")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "test-host", cfg.DBHost)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, 900, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, 20, cfg.InitialCandidates)
	assert.False(t, cfg.UseReranker)
	assert.Equal(t, 1024, cfg.EmbeddingDim)
	assert.Equal(t, "qwen2.5:7b", cfg.AnswerModel)
	assert.Equal(t, "jina", cfg.RerankProvider)
}

func TestLoadConfig_FromEnvFile(t *testing.T) {
	content := []byte("DB_HOST=loaded-from-file")
	err := os.WriteFile(".env", content, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(".env")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "loaded-from-file", cfg.DBHost)
}

func TestLoadConfig_Toggles(t *testing.T) {
	os.Setenv("ENABLE_API", "false")
	os.Setenv("ENABLE_INGEST_WORKER", "false")
	defer os.Unsetenv("ENABLE_API")
	defer os.Unsetenv("ENABLE_INGEST_WORKER")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.False(t, cfg.EnableAPI)
	assert.False(t, cfg.EnableIngestWorker)
}

func TestValidate(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			DBHost: "h", DBUser: "u", DBName: "d",
			ChunkSize: 900, ChunkOverlap: 200,
			TopK: 5, InitialCandidates: 20, EmbeddingDim: 1024,
		}
	}

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("ZeroChunkSize", func(t *testing.T) {
		cfg := base()
		cfg.ChunkSize = 0
		assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidValue)
	})

	t.Run("OverlapNotBelowSize", func(t *testing.T) {
		cfg := base()
		cfg.ChunkOverlap = 900
		assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidValue)
	})

	t.Run("NegativeOverlap", func(t *testing.T) {
		cfg := base()
		cfg.ChunkOverlap = -1
		assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidValue)
	})

	t.Run("ZeroTopK", func(t *testing.T) {
		cfg := base()
		cfg.TopK = 0
		assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidValue)
	})

	t.Run("InitialCandidatesBelowTopK", func(t *testing.T) {
		cfg := base()
		cfg.InitialCandidates = 3
		assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidValue)
	})

	t.Run("MissingDBHost", func(t *testing.T) {
		cfg := base()
		cfg.DBHost = ""
		assert.ErrorIs(t, cfg.Validate(), config.ErrMissingRequired)
	})
}
