package pipeline

import (
	"context"
	"path"

	"github.com/tenderbharat/docvector/internal/models"
)

// Batch sizing: heavier files (usually image-laden scans) get smaller page
// batches to bound peak memory and per-batch embedding latency.
const (
	sizePerPageThresholdKB = 250.0
	lightDocBatchPages     = 20
	heavyDocBatchPages     = 5
)

func batchSizePages(fileSizeBytes, pageCount int) int {
	if pageCount < 1 {
		pageCount = 1
	}
	sizePerPageKB := float64(fileSizeBytes) / 1024.0 / float64(pageCount)
	if sizePerPageKB < sizePerPageThresholdKB {
		return lightDocBatchPages
	}
	return heavyDocBatchPages
}

// processDocument runs the per-document state machine: completion check,
// partial cleanup, page count, batch iteration, enqueue. Every failure is
// recorded on the result and ends this document only.
//
// The completion flag for a non-empty document is set by the embedding
// consumer once the last batch is durably stored, never here. Only the
// zero-page and empty-final-batch paths flag completion directly, so those
// documents are not retried forever.
func (t *TenderProcessor) processDocument(ctx context.Context, tenderID, key string, result *models.TenderResult) {
	name := path.Base(key)
	log := t.logger.With("tender_id", tenderID, "document", name)

	complete, err := t.store.IsDocumentComplete(ctx, tenderID, name)
	if err != nil {
		result.AddError("completion_check_"+name, err)
		return
	}
	if complete {
		log.Info("document already complete, skipping")
		result.SkippedDocs++
		return
	}

	// A prior interrupted run may have left some batches behind; a retried
	// document must not accumulate duplicate chunks.
	if err := t.store.DeleteDocumentEmbeddings(ctx, tenderID, name); err != nil {
		result.AddError("cleanup_"+name, err)
		return
	}

	pdfBytes, err := t.objects.GetFile(ctx, key)
	if err != nil {
		result.AddError("fetch_"+name, err)
		return
	}
	log.Debug("fetched pdf", "bytes", len(pdfBytes))

	doc, err := t.open(pdfBytes)
	if err != nil {
		result.AddError("open_"+name, err)
		return
	}
	defer doc.Close()

	totalPages := doc.PageCount()
	if totalPages == 0 {
		log.Warn("empty pdf, marking complete")
		result.EmptyDocs++
		if err := t.store.MarkDocumentComplete(ctx, tenderID, name); err != nil {
			result.AddError("mark_empty_complete_"+name, err)
		}
		return
	}

	batchSize := batchSizePages(len(pdfBytes), totalPages)
	log.Info("processing document", "pages", totalPages, "batch_size", batchSize)

	for start := 0; start < totalPages; start += batchSize {
		end := start + batchSize
		if end > totalPages {
			end = totalPages
		}
		isLast := end >= totalPages

		out, err := t.pipeline.ProcessBatch(ctx, doc, start, end)
		if err != nil {
			result.AddError(name, err)
			return
		}

		result.ScannedPages += out.ScannedPages
		result.RegularPages += out.DigitalPages

		if len(out.Chunks) == 0 {
			log.Warn("no chunks produced", "start", start, "end", end)
			if isLast {
				result.EmptyDocs++
				if err := t.store.MarkDocumentComplete(ctx, tenderID, name); err != nil {
					result.AddError("mark_empty_final_"+name, err)
				}
			}
			continue
		}

		// Ownership of the chunks moves to the queue here.
		batch := models.EmbedBatch{
			Chunks:       out.Chunks,
			DocumentName: name,
			TenderID:     tenderID,
			IsLastBatch:  isLast,
		}
		if err := t.queue.Enqueue(ctx, batch); err != nil {
			result.AddError("enqueue_"+name, err)
			continue
		}
		log.Debug("batch queued", "start", start, "end", end, "chunks", len(out.Chunks), "last", isLast)
	}

	result.ProcessedDocs++
}
