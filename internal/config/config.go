package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalidValue    = errors.New("invalid configuration value")
)

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"newsrag"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"newsrag"`

	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	NSQLookupd string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost   string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP   string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	// Chunking & retrieval
	ChunkSize         int  `envconfig:"CHUNK_SIZE" default:"900"`
	ChunkOverlap      int  `envconfig:"CHUNK_OVERLAP" default:"200"`
	TopK              int  `envconfig:"TOP_K" default:"5"`
	InitialCandidates int  `envconfig:"INITIAL_CANDIDATES" default:"20"`
	UseReranker       bool `envconfig:"USE_RERANKER" default:"false"`
	EmbeddingDim      int  `envconfig:"EMBEDDING_DIM" default:"1024"`

	// Collaborators
	GeminiAPIKey   string `envconfig:"GEMINI_API_KEY"`
	RerankProvider string `envconfig:"RERANK_PROVIDER" default:"jina"`
	RerankAPIKey   string `envconfig:"RERANK_API_KEY"`
	OllamaURL      string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	AnswerModel    string `envconfig:"ANSWER_MODEL" default:"qwen2.5:7b"`

	EnableAPI          bool   `envconfig:"ENABLE_API" default:"true"`
	EnableIngestWorker bool   `envconfig:"ENABLE_INGEST_WORKER" default:"true"`
	MigrationPath      string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Server
	ServerPort   int    `envconfig:"SERVER_PORT" default:"8081"`
	QueryLogPath string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Env vars may come from the shell instead; a missing .env is not an error.
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	rootEnv := filepath.Join(cwd, "../.env")
	_ = godotenv.Load(rootEnv)

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: CHUNK_SIZE must be positive", ErrInvalidValue)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: CHUNK_OVERLAP must satisfy 0 <= overlap < CHUNK_SIZE", ErrInvalidValue)
	}
	if c.TopK < 1 {
		return fmt.Errorf("%w: TOP_K must be at least 1", ErrInvalidValue)
	}
	if c.InitialCandidates < c.TopK {
		return fmt.Errorf("%w: INITIAL_CANDIDATES must be >= TOP_K", ErrInvalidValue)
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("%w: EMBEDDING_DIM must be positive", ErrInvalidValue)
	}
	return nil
}
