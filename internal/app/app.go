package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"newsrag/features/article"
	"newsrag/features/ask"
	"newsrag/features/stats"
	"newsrag/internal/adapter/gemini"
	"newsrag/internal/adapter/ollama"
	"newsrag/internal/adapter/reranker"
	"newsrag/internal/config"
	"newsrag/internal/ingest"
	"newsrag/internal/middleware"
	"newsrag/internal/retrieval"
	"newsrag/internal/settings"
	"newsrag/internal/worker"
)

// VectorStore is the union of the vector-store capabilities the app wires:
// chunk writes for ingestion, nearest-neighbor reads for retrieval, and
// per-article bookkeeping.
type VectorStore interface {
	UpsertChunk(ctx context.Context, chunk ingest.Chunk) error
	Search(ctx context.Context, vector []float32, limit int) ([]retrieval.Candidate, error)
	GetChunksByArticle(ctx context.Context, articleID string) ([]ingest.Chunk, error)
	DeleteChunksByArticle(ctx context.Context, articleID string) error
	CountChunks(ctx context.Context) (int, error)
}

type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

type App struct {
	Handler        http.Handler
	ArticleService *article.Service
	IngestConsumer *worker.IngestConsumer

	port int
}

func New(
	cfg *config.Config,
	db *sql.DB,
	vecStore VectorStore,
	taskPub TaskPublisher,
	logger *slog.Logger,
) (*App, error) {

	// Feature: Settings
	settingsRepo := settings.NewPostgresRepo(db)
	settingsService := settings.NewService(settingsRepo)

	seedSettings(cfg, settingsService)

	settingsHandler := settings.NewHandler(settingsService)

	// Feature: Article
	articleRepo := article.NewPostgresRepo(db)
	articleService := article.NewService(articleRepo, taskPub, vecStore)
	articleHandler := article.NewHandler(articleService)

	// Feature: Stats
	statsHandler := stats.NewHandler(articleRepo, vecStore)

	// Adapters: dynamic, re-resolving keys from settings per call
	embedder := gemini.NewDynamicEmbedder(settingsService, cfg.GeminiAPIKey)
	rerankerClient := reranker.NewDynamicClient(settingsService, cfg.RerankProvider, cfg.RerankAPIKey)

	// Feature: Retrieval & Ask
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}

	retrievalService := retrieval.NewService(embedder, vecStore, rerankerClient, settingsService, cfg.EmbeddingDim, queryLogger)

	generator := ollama.NewDynamicClient(ollama.NewClient(cfg.OllamaURL, cfg.AnswerModel), settingsService)
	askHandler := ask.NewHandler(ask.NewService(retrievalService, generator))

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /articles", middleware.CorrelationID(enableCORS(articleHandler.Create)))
	mux.Handle("GET /articles", middleware.CorrelationID(enableCORS(articleHandler.List)))
	mux.Handle("GET /articles/{id}", middleware.CorrelationID(enableCORS(articleHandler.Get)))
	mux.Handle("DELETE /articles/{id}", middleware.CorrelationID(enableCORS(articleHandler.Delete)))
	mux.Handle("POST /articles/{id}/reingest", middleware.CorrelationID(enableCORS(articleHandler.Reingest)))

	mux.Handle("POST /search", middleware.CorrelationID(enableCORS(askHandler.Search)))
	mux.Handle("POST /ask", middleware.CorrelationID(enableCORS(askHandler.Ask)))

	mux.Handle("GET /settings", middleware.CorrelationID(enableCORS(settingsHandler.GetSettings)))
	mux.Handle("PUT /settings", middleware.CorrelationID(enableCORS(settingsHandler.UpdateSettings)))

	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Worker (Ingest Consumer) Setup
	ingestService := ingest.NewService(cfg.ChunkSize, cfg.ChunkOverlap, cfg.EmbeddingDim, embedder, vecStore)
	sourceAdapter := &articleSourceAdapter{repo: articleRepo}
	ingestConsumer := worker.NewIngestConsumer(sourceAdapter, ingestService, vecStore)

	return &App{
		Handler:        mux,
		ArticleService: articleService,
		IngestConsumer: ingestConsumer,
		port:           cfg.ServerPort,
	}, nil
}

// seedSettings copies API keys from the environment into the settings row
// on first boot, so a fresh deployment works before anyone touches
// PUT /settings.
func seedSettings(cfg *config.Config, svc *settings.Service) {
	ctx := context.Background()
	set, err := svc.Get(ctx)
	if err != nil {
		slog.Warn("failed to fetch settings for seeding", "error", err)
		return
	}

	changed := false
	if cfg.GeminiAPIKey != "" && set.GeminiAPIKey == "" {
		set.GeminiAPIKey = cfg.GeminiAPIKey
		changed = true
	}
	if cfg.RerankAPIKey != "" && set.RerankAPIKey == "" {
		set.RerankAPIKey = cfg.RerankAPIKey
		changed = true
	}
	if !changed {
		return
	}

	if err := svc.Update(ctx, set); err != nil {
		slog.Warn("failed to seed settings from environment", "error", err)
	} else {
		slog.Info("seeded api keys from environment")
	}
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// articleSourceAdapter bridges the article repository to the worker's view
// of article storage.
type articleSourceAdapter struct {
	repo article.Repository
}

func (a *articleSourceAdapter) GetArticle(ctx context.Context, id string) (*ingest.Article, error) {
	art, err := a.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ingest.Article{
		ID:          art.ID,
		URL:         art.URL,
		Title:       art.Title,
		Content:     art.Content,
		TitleEN:     art.TitleEN,
		ContentEN:   art.ContentEN,
		Language:    art.Language,
		PublishedAt: art.PublishedAt,
	}, nil
}

func (a *articleSourceAdapter) SetResult(ctx context.Context, id, status string, chunkCount int, errMsg string) error {
	return a.repo.SetResult(ctx, id, status, chunkCount, errMsg)
}
