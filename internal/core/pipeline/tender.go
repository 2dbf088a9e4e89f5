package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tenderbharat/docvector/internal/core"
	"github.com/tenderbharat/docvector/internal/core/pdfdoc"
	"github.com/tenderbharat/docvector/internal/models"
)

// TenderProcessor drives one job: enumerate a tender's PDFs and run each
// through the document state machine, feeding the embedding queue.
type TenderProcessor struct {
	objects  core.ObjectClient
	store    core.VectorStore
	queue    core.BatchQueue
	pipeline *Pipeline
	open     pdfdoc.Opener
	logger   *slog.Logger
}

func NewTenderProcessor(
	objects core.ObjectClient,
	store core.VectorStore,
	queue core.BatchQueue,
	pipeline *Pipeline,
	open pdfdoc.Opener,
	logger *slog.Logger,
) *TenderProcessor {
	return &TenderProcessor{
		objects:  objects,
		store:    store,
		queue:    queue,
		pipeline: pipeline,
		open:     open,
		logger:   logger,
	}
}

// ProcessTender processes every document of the tender and returns the
// accumulated report. Per-document failures land in the report; the only
// returned error is context cancellation, which the caller treats as a
// retryable job failure.
func (t *TenderProcessor) ProcessTender(ctx context.Context, payload models.JobPayload) (models.TenderResult, error) {
	result := models.TenderResult{
		TenderID: payload.TenderID,
		Errors:   []string{},
	}

	prefix := fmt.Sprintf("tender-documents/%s/", payload.TenderID)
	keys, err := t.objects.ListPDFs(ctx, prefix)
	if err != nil {
		t.logger.Error("listing tender pdfs failed", "tender_id", payload.TenderID, "error", err)
		result.AddError("list_pdfs", err)
		return result, nil
	}
	t.logger.Info("tender documents listed", "tender_id", payload.TenderID, "count", len(keys))

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		t.processDocument(ctx, payload.TenderID, key, &result)
	}

	return result, nil
}
