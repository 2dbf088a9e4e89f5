package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// JobStatus is the lifecycle state of a vectorization job row.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job represents one persisted vectorization job.
type Job struct {
	ID        string          `db:"id" json:"id"`
	Status    JobStatus       `db:"status" json:"status"`
	Attempts  int             `db:"attempts" json:"attempts"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	Result    json.RawMessage `db:"result" json:"result,omitempty"`
	LastError string          `db:"last_error" json:"last_error,omitempty"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// ClaimedJob is what the atomic claim returns: the stored payload and the
// attempt count after incrementing.
type ClaimedJob struct {
	Payload  json.RawMessage
	Attempts int
}

// JobPayload is the decoded shape of a job's payload. Anything beyond the
// tender id is opaque context carried along by the producer.
type JobPayload struct {
	TenderID string          `json:"tender_id"`
	Context  json.RawMessage `json:"context,omitempty"`
}

// ChunkKind tags what a chunk's text came from on the page.
type ChunkKind string

const (
	ChunkKindText  ChunkKind = "text"
	ChunkKindTable ChunkKind = "table"
)

// Chunk is the atomic retrievable unit produced by the chunker.
type Chunk struct {
	Page        int       `json:"page"`
	Position    int       `json:"position"`
	SubPosition int       `json:"sub_position"`
	Kind        ChunkKind `json:"type"`
	IsScanned   bool      `json:"is_scanned"`
	Data        string    `json:"data"`
}

// Validate checks the fields the batch pipeline guarantees to downstream
// consumers. Positions are 1-based and required.
func (c Chunk) Validate() error {
	if c.Page < 1 {
		return fmt.Errorf("chunk page must be >= 1, got %d", c.Page)
	}
	if c.Position < 1 || c.SubPosition < 1 {
		return fmt.Errorf("chunk position indexes must be >= 1, got %d/%d", c.Position, c.SubPosition)
	}
	if c.Kind != ChunkKindText && c.Kind != ChunkKindTable {
		return fmt.Errorf("unknown chunk kind %q", c.Kind)
	}
	if c.Data == "" {
		return fmt.Errorf("chunk data is empty")
	}
	return nil
}

// EmbeddingRecord is a chunk with its vector and owning identifiers; the
// unit persisted to the vector store. Never mutated after creation.
type EmbeddingRecord struct {
	ID           string    `db:"id" json:"id"`
	TenderID     string    `db:"tender_id" json:"tender_id"`
	DocumentName string    `db:"document_name" json:"document_name"`
	Page         int       `db:"page" json:"page"`
	Position     int       `db:"position" json:"position"`
	SubPosition  int       `db:"sub_position" json:"sub_position"`
	Kind         ChunkKind `db:"kind" json:"type"`
	IsScanned    bool      `db:"is_scanned" json:"is_scanned"`
	Text         string    `db:"text" json:"text"`
	Embedding    []float32 `db:"embedding" json:"embedding"`
}

// EmbedBatch is the unit handed from the batch pipeline into the embedding
// queue. Ownership transfers to the queue on enqueue; the producer must not
// touch it afterward.
type EmbedBatch struct {
	Chunks       []Chunk `json:"chunks"`
	DocumentName string  `json:"document_name"`
	TenderID     string  `json:"tender_id"`
	IsLastBatch  bool    `json:"is_last_batch"`
}

// TenderResult is the per-job processing report persisted on completion.
// It is a best-effort report, not a pass/fail boolean.
type TenderResult struct {
	TenderID      string   `json:"tender_id"`
	ProcessedDocs int      `json:"processed_docs"`
	SkippedDocs   int      `json:"skipped_docs"`
	EmptyDocs     int      `json:"empty_docs"`
	ScannedPages  int      `json:"scanned_pages"`
	RegularPages  int      `json:"regular_pages"`
	Errors        []string `json:"errors"`
}

// AddError records a scoped, document-keyed error in the report.
func (r *TenderResult) AddError(scope string, err error) {
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", scope, err))
}
