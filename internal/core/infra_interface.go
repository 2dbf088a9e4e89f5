package core

import (
	"context"
	"encoding/json"

	"github.com/tenderbharat/docvector/internal/models"
)

// JobStore is the relational bookkeeping for jobs. The atomic claim is the
// only way a job moves from pending to running; it is the cross-process
// mutual exclusion for the whole worker fleet.
type JobStore interface {
	// ClaimJob transitions id from pending to running and increments the
	// attempt counter in one statement. Returns nil (no error) when the job
	// was not claimable: missing, already running, completed or failed.
	ClaimJob(ctx context.Context, id string) (*models.ClaimedJob, error)

	// CompleteJob stores the result and sets status completed.
	CompleteJob(ctx context.Context, id string, result json.RawMessage) error

	// FailJob records the final error and sets status failed.
	FailJob(ctx context.Context, id string, errMsg string) error

	// ResetJob returns the job to pending so a redelivered message can
	// claim it again.
	ResetJob(ctx context.Context, id string) error

	Close() error
}

// VectorStore persists embedding records and tracks per-document completion.
// The completion flag is mutated only here (and by the document orchestrator
// for zero-page documents), always via idempotent upsert.
type VectorStore interface {
	IsDocumentComplete(ctx context.Context, tenderID, documentName string) (bool, error)
	DeleteDocumentEmbeddings(ctx context.Context, tenderID, documentName string) error
	InsertEmbeddings(ctx context.Context, records []models.EmbeddingRecord) error
	MarkDocumentComplete(ctx context.Context, tenderID, documentName string) error
	Close() error
}

// ObjectClient is the object-storage surface this core consumes: listing a
// tender's PDFs and fetching their bytes. Nothing else.
type ObjectClient interface {
	ListPDFs(ctx context.Context, prefix string) ([]string, error)
	GetFile(ctx context.Context, key string) ([]byte, error)
}

// EmbeddingProvider turns texts into vectors, one per input, same order.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string, dim int) ([][]float32, error)
	Close() error
}

// OCRProvider extracts text from a page image with a fixed prompt.
// Errors may be transient; callers wrap invocations in a retry policy.
type OCRProvider interface {
	ExtractText(ctx context.Context, imageBytes []byte, prompt string) (string, error)
}

// Translator translates text with a fixed prompt; same retry contract as
// OCRProvider.
type Translator interface {
	Translate(ctx context.Context, text string, prompt string) (string, error)
}

// BatchQueue accepts embed batches from pipeline producers. Enqueue blocks
// when the queue is full, which is the backpressure that throttles
// extraction upstream.
type BatchQueue interface {
	Enqueue(ctx context.Context, batch models.EmbedBatch) error
}
