// Package app wires configuration into the concrete stores, clients, and
// pipeline stages, and owns their lifecycles.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tenderbharat/docvector/internal/config"
	db "github.com/tenderbharat/docvector/internal/core/database"
	"github.com/tenderbharat/docvector/internal/core/embedqueue"
	"github.com/tenderbharat/docvector/internal/core/llm"
	"github.com/tenderbharat/docvector/internal/core/objectclient"
	"github.com/tenderbharat/docvector/internal/core/pdfdoc"
	"github.com/tenderbharat/docvector/internal/core/pipeline"
	"github.com/tenderbharat/docvector/internal/core/vectorstore"
	"github.com/tenderbharat/docvector/internal/retry"
	"github.com/tenderbharat/docvector/internal/worker"
)

type App struct {
	JobStore    *db.JobStore
	VectorStore *vectorstore.Store
	Embedder    *llm.GeminiEmbedder
	EmbedQueue  *embedqueue.Queue
	Consumer    *worker.Consumer
	Server      *Server

	rabbitConn *amqp.Connection
	logger     *slog.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	initCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	jobStore, err := db.NewJobStore(initCtx, cfg.JobsDatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("initializing job store: %w", err)
	}
	logger.Info("job store ready")

	vecStore, err := vectorstore.NewStore(initCtx, cfg.VectorDatabaseURL)
	if err != nil {
		jobStore.Close()
		return nil, fmt.Errorf("initializing vector store: %w", err)
	}
	logger.Info("vector store ready")

	objClient, err := objectclient.NewS3Client(initCtx, cfg)
	if err != nil {
		closeAll(jobStore, vecStore)
		return nil, fmt.Errorf("initializing object client: %w", err)
	}
	logger.Info("object client ready", "bucket", cfg.BucketName)

	embedder, err := llm.NewGeminiEmbedder(initCtx, cfg.GeminiAPIKey, cfg.EmbedModel)
	if err != nil {
		closeAll(jobStore, vecStore)
		return nil, fmt.Errorf("initializing embedder: %w", err)
	}

	ocr, err := llm.NewGroqOCR(cfg.GroqAPIURL, cfg.GroqAPIKey, cfg.GroqOCRModel, cfg.CallTimeout)
	if err != nil {
		closeAll(jobStore, vecStore, embedder)
		return nil, fmt.Errorf("initializing OCR provider: %w", err)
	}

	translator, err := llm.NewDeepSeekTranslator(cfg.DeepSeekAPIURL, cfg.DeepSeekAPIKey, cfg.DeepSeekModel, cfg.CallTimeout)
	if err != nil {
		closeAll(jobStore, vecStore, embedder)
		return nil, fmt.Errorf("initializing translator: %w", err)
	}

	pipe := pipeline.New(ocr, translator, pipeline.Config{
		OCRPrompt:               cfg.OCRPrompt,
		TranslatePrompt:         cfg.TranslatePrompt,
		MaxOCRConcurrency:       cfg.MaxOCRConcurrency,
		MaxTranslateConcurrency: cfg.MaxTranslateConcurrency,
		ChunkSize:               cfg.ChunkSize,
		ChunkOverlap:            cfg.ChunkOverlap,
		RenderDPI:               cfg.RenderDPI,
		JPEGQuality:             cfg.JPEGQuality,
		Retry: retry.Policy{
			Attempts: cfg.RetryAttempts,
			Delay:    cfg.RetryDelay,
		},
	}, logger)

	queue := embedqueue.New(vecStore, embedder, cfg.EmbedQueueCapacity, cfg.EmbedDim, logger)

	processor := pipeline.NewTenderProcessor(objClient, vecStore, queue, pipe, pdfdoc.Open, logger)

	rabbitConn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		closeAll(jobStore, vecStore, embedder)
		return nil, fmt.Errorf("connecting to rabbitmq: %w", err)
	}
	logger.Info("broker connected")

	consumer, err := worker.NewConsumer(rabbitConn, cfg.JobsQueue, jobStore, processor, cfg.MaxAttempts, logger)
	if err != nil {
		_ = rabbitConn.Close()
		closeAll(jobStore, vecStore, embedder)
		return nil, fmt.Errorf("initializing consumer: %w", err)
	}

	server := NewServer(cfg.OpsPort, queue, logger)

	return &App{
		JobStore:    jobStore,
		VectorStore: vecStore,
		Embedder:    embedder,
		EmbedQueue:  queue,
		Consumer:    consumer,
		Server:      server,
		rabbitConn:  rabbitConn,
		logger:      logger,
	}, nil
}

// Run starts the ops server and the embedding consumer, then blocks in the
// job consumer until ctx is cancelled or the broker connection drops.
func (a *App) Run(ctx context.Context) error {
	a.Server.Start()
	a.EmbedQueue.Start()
	return a.Consumer.Start(ctx)
}

// Shutdown drains the embedding queue, then tears everything down in
// reverse construction order. Queued batches finish before the stores close.
func (a *App) Shutdown(ctx context.Context) {
	if err := a.Consumer.Close(); err != nil {
		a.logger.Error("closing consumer channel", "error", err)
	}
	if err := a.rabbitConn.Close(); err != nil {
		a.logger.Error("closing broker connection", "error", err)
	}

	if err := a.EmbedQueue.Shutdown(ctx); err != nil {
		a.logger.Error("draining embed queue", "error", err)
	}

	if err := a.Server.Stop(ctx); err != nil {
		a.logger.Error("stopping ops server", "error", err)
	}

	closeAll(a.Embedder, a.VectorStore, a.JobStore)
	a.logger.Info("shutdown complete")
}

func closeAll(closers ...interface{ Close() error }) {
	for _, c := range closers {
		_ = c.Close()
	}
}
