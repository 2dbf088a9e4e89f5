// Package embedqueue decouples extraction from embedding: producers push
// batch work items into a bounded queue and a single consumer embeds,
// persists, and flags document completion. The bound is the backpressure
// that keeps queued chunk batches from growing without limit.
package embedqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/tenderbharat/docvector/internal/core"
	"github.com/tenderbharat/docvector/internal/models"
)

var ErrShuttingDown = errors.New("embed queue is shutting down")

type item struct {
	batch models.EmbedBatch
	stop  bool
}

// Queue is the embedding stage. One consumer drains items strictly in
// arrival order, which is what lets "last batch persisted" imply "all
// batches persisted" for a document whose batches were enqueued in page
// order.
type Queue struct {
	items    chan item
	done     chan struct{}
	store    core.VectorStore
	embedder core.EmbeddingProvider
	embedDim int
	logger   *slog.Logger

	mu       sync.Mutex
	stopping bool
}

func New(store core.VectorStore, embedder core.EmbeddingProvider, capacity, embedDim int, logger *slog.Logger) *Queue {
	return &Queue{
		items:    make(chan item, capacity),
		done:     make(chan struct{}),
		store:    store,
		embedder: embedder,
		embedDim: embedDim,
		logger:   logger,
	}
}

// Start launches the consumer loop.
func (q *Queue) Start() {
	go q.run()
}

// Enqueue hands a batch to the consumer. Blocks while the queue is full;
// that is deliberate, producers must slow down rather than buffer
// unboundedly.
func (q *Queue) Enqueue(ctx context.Context, batch models.EmbedBatch) error {
	q.mu.Lock()
	stopping := q.stopping
	q.mu.Unlock()
	if stopping {
		return ErrShuttingDown
	}

	select {
	case q.items <- item{batch: batch}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Depth reports how many items are waiting, for the ops endpoint.
func (q *Queue) Depth() int {
	return len(q.items)
}

// Shutdown enqueues the stop sentinel and waits until the consumer has
// drained everything ahead of it. Items enqueued before Shutdown are never
// dropped.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.stopping {
		q.mu.Unlock()
		select {
		case <-q.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	q.stopping = true
	q.mu.Unlock()

	// A full queue with a wedged consumer would block this send forever,
	// so it honors the caller's deadline too.
	select {
	case q.items <- item{stop: true}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the consumer loop. It does not watch a context: shutdown happens
// only through the sentinel, after every earlier item is processed. A
// failed item leaves its document incomplete and the loop moves on.
func (q *Queue) run() {
	q.logger.Info("embedding consumer started")
	defer close(q.done)

	for it := range q.items {
		if it.stop {
			q.logger.Info("embedding consumer stopping")
			return
		}
		if err := q.process(it.batch); err != nil {
			q.logger.Error("embedding batch failed",
				"tender_id", it.batch.TenderID,
				"document", it.batch.DocumentName,
				"error", err)
		}
	}
}

// process embeds one batch, persists the records, and flags the document
// complete when this was its last batch. The flag write is strictly after
// the insert: completion must imply durable chunks.
func (q *Queue) process(batch models.EmbedBatch) error {
	ctx := context.Background()

	texts := make([]string, len(batch.Chunks))
	for i := range batch.Chunks {
		texts[i] = batch.Chunks[i].Data
	}

	vecs, err := q.embedder.EmbedTexts(ctx, texts, q.embedDim)
	if err != nil {
		return err
	}
	if len(vecs) != len(texts) {
		return fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
	}

	records := make([]models.EmbeddingRecord, len(batch.Chunks))
	for i, c := range batch.Chunks {
		records[i] = models.EmbeddingRecord{
			ID:           uuid.NewString(),
			TenderID:     batch.TenderID,
			DocumentName: batch.DocumentName,
			Page:         c.Page,
			Position:     c.Position,
			SubPosition:  c.SubPosition,
			Kind:         c.Kind,
			IsScanned:    c.IsScanned,
			Text:         c.Data,
			Embedding:    vecs[i],
		}
	}

	if err := q.store.InsertEmbeddings(ctx, records); err != nil {
		return err
	}

	if batch.IsLastBatch {
		if err := q.store.MarkDocumentComplete(ctx, batch.TenderID, batch.DocumentName); err != nil {
			return err
		}
		q.logger.Info("document complete",
			"tender_id", batch.TenderID, "document", batch.DocumentName)
	}
	return nil
}

var _ core.BatchQueue = (*Queue)(nil)
