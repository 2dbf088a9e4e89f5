package embedqueue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderbharat/docvector/internal/models"
)

type fakeEmbedder struct {
	mu          sync.Mutex
	calls       int
	fail        bool
	shortOutput bool
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string, dim int) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		f.fail = false
		return nil, errors.New("embedder down")
	}
	n := len(texts)
	if f.shortOutput && n > 0 {
		f.shortOutput = false
		n--
	}
	vecs := make([][]float32, n)
	for i := range vecs {
		vecs[i] = make([]float32, dim)
	}
	return vecs, nil
}

func (f *fakeEmbedder) Close() error { return nil }

type fakeVectorStore struct {
	mu         sync.Mutex
	inserted   []models.EmbeddingRecord
	complete   map[string]bool
	insertErr  error
	markErr    error
	insertions int
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{complete: make(map[string]bool)}
}

func (f *fakeVectorStore) IsDocumentComplete(_ context.Context, tenderID, doc string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.complete[tenderID+"/"+doc], nil
}

func (f *fakeVectorStore) DeleteDocumentEmbeddings(context.Context, string, string) error { return nil }

func (f *fakeVectorStore) InsertEmbeddings(_ context.Context, records []models.EmbeddingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.insertions++
	f.inserted = append(f.inserted, records...)
	return nil
}

func (f *fakeVectorStore) MarkDocumentComplete(_ context.Context, tenderID, doc string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	f.complete[tenderID+"/"+doc] = true
	return nil
}

func (f *fakeVectorStore) Close() error { return nil }

func (f *fakeVectorStore) insertedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserted)
}

func (f *fakeVectorStore) isComplete(tenderID, doc string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.complete[tenderID+"/"+doc]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func batchOf(tenderID, doc string, n int, last bool) models.EmbedBatch {
	chunks := make([]models.Chunk, n)
	for i := range chunks {
		chunks[i] = models.Chunk{
			Page:        1,
			Position:    1,
			SubPosition: i + 1,
			Kind:        models.ChunkKindText,
			Data:        fmt.Sprintf("chunk %d", i),
		}
	}
	return models.EmbedBatch{
		Chunks:       chunks,
		DocumentName: doc,
		TenderID:     tenderID,
		IsLastBatch:  last,
	}
}

func TestQueue_PersistsAndMarksCompleteOnLastBatch(t *testing.T) {
	store := newFakeVectorStore()
	q := New(store, &fakeEmbedder{}, 16, 8, testLogger())
	q.Start()

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, batchOf("t1", "a.pdf", 3, false)))
	require.NoError(t, q.Enqueue(ctx, batchOf("t1", "a.pdf", 2, true)))
	require.NoError(t, q.Shutdown(ctx))

	assert.Equal(t, 5, store.insertedCount())
	assert.True(t, store.isComplete("t1", "a.pdf"))
	for _, rec := range store.inserted {
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, "t1", rec.TenderID)
		assert.Len(t, rec.Embedding, 8)
	}
}

func TestQueue_NoCompletionFlagWithoutLastBatch(t *testing.T) {
	store := newFakeVectorStore()
	q := New(store, &fakeEmbedder{}, 16, 8, testLogger())
	q.Start()

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, batchOf("t1", "a.pdf", 3, false)))
	require.NoError(t, q.Shutdown(ctx))

	assert.Equal(t, 3, store.insertedCount())
	assert.False(t, store.isComplete("t1", "a.pdf"))
}

func TestQueue_InsertFailureLeavesDocumentIncomplete(t *testing.T) {
	store := newFakeVectorStore()
	store.insertErr = errors.New("db unreachable")
	q := New(store, &fakeEmbedder{}, 16, 8, testLogger())
	q.Start()

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, batchOf("t1", "a.pdf", 2, true)))
	require.NoError(t, q.Shutdown(ctx))

	assert.Equal(t, 0, store.insertedCount())
	assert.False(t, store.isComplete("t1", "a.pdf"))
}

func TestQueue_EmbedderFailureSkipsBatchButKeepsRunning(t *testing.T) {
	store := newFakeVectorStore()
	embedder := &fakeEmbedder{fail: true}
	q := New(store, embedder, 16, 8, testLogger())
	q.Start()

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, batchOf("t1", "a.pdf", 2, true)))
	require.NoError(t, q.Enqueue(ctx, batchOf("t1", "b.pdf", 1, true)))
	require.NoError(t, q.Shutdown(ctx))

	assert.False(t, store.isComplete("t1", "a.pdf"))
	assert.True(t, store.isComplete("t1", "b.pdf"))
	assert.Equal(t, 1, store.insertedCount())
}

func TestQueue_ShutdownDrainsPendingItems(t *testing.T) {
	store := newFakeVectorStore()
	q := New(store, &fakeEmbedder{}, 64, 8, testLogger())

	ctx := context.Background()
	for i := 0; i < 20; i++ {
		doc := fmt.Sprintf("doc-%d.pdf", i)
		require.NoError(t, q.Enqueue(ctx, batchOf("t1", doc, 1, true)))
	}

	// Consumer starts only now; everything above is still queued.
	q.Start()
	require.NoError(t, q.Shutdown(ctx))

	assert.Equal(t, 20, store.insertedCount())
	for i := 0; i < 20; i++ {
		assert.True(t, store.isComplete("t1", fmt.Sprintf("doc-%d.pdf", i)))
	}
}

func TestQueue_EnqueueAfterShutdownIsRejected(t *testing.T) {
	store := newFakeVectorStore()
	q := New(store, &fakeEmbedder{}, 16, 8, testLogger())
	q.Start()

	ctx := context.Background()
	require.NoError(t, q.Shutdown(ctx))

	err := q.Enqueue(ctx, batchOf("t1", "a.pdf", 1, true))
	assert.ErrorIs(t, err, ErrShuttingDown)
}

func TestQueue_VectorCountMismatchSkipsBatchButKeepsRunning(t *testing.T) {
	store := newFakeVectorStore()
	embedder := &fakeEmbedder{shortOutput: true}
	q := New(store, embedder, 16, 8, testLogger())
	q.Start()

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, batchOf("t1", "a.pdf", 3, true)))
	require.NoError(t, q.Enqueue(ctx, batchOf("t1", "b.pdf", 2, true)))
	require.NoError(t, q.Shutdown(ctx))

	assert.False(t, store.isComplete("t1", "a.pdf"))
	assert.True(t, store.isComplete("t1", "b.pdf"))
	assert.Equal(t, 2, store.insertedCount())
}

func TestQueue_ShutdownHonoursContextWhenQueueIsFull(t *testing.T) {
	store := newFakeVectorStore()
	q := New(store, &fakeEmbedder{}, 1, 8, testLogger())
	// Consumer never started: the single slot fills and the sentinel send
	// can never complete.

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, batchOf("t1", "a.pdf", 1, false)))

	shortCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Shutdown(shortCtx), context.DeadlineExceeded)
}

func TestQueue_EnqueueBlocksWhenFullAndHonoursContext(t *testing.T) {
	store := newFakeVectorStore()
	q := New(store, &fakeEmbedder{}, 1, 8, testLogger())
	// Consumer never started: the single slot fills and stays full.

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, batchOf("t1", "a.pdf", 1, false)))

	shortCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	err := q.Enqueue(shortCtx, batchOf("t1", "a.pdf", 1, false))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
