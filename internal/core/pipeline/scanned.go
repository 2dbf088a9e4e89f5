package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tenderbharat/docvector/internal/core/pdfdoc"
	"github.com/tenderbharat/docvector/internal/models"
	"github.com/tenderbharat/docvector/internal/retry"
)

// processScannedPages fans the given 0-based page indexes through render →
// OCR → translate → chunk. A page that fails at any stage degrades to an
// error placeholder; one page's failure never blocks its siblings. OCR and
// translation hold separate semaphores, so a page waiting on translation
// does not occupy an OCR slot.
func (p *Pipeline) processScannedPages(ctx context.Context, doc pdfdoc.Document, pages []int) []models.Chunk {
	results := make([][]models.Chunk, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	for k, idx := range pages {
		g.Go(func() error {
			raw := p.ocrPage(gctx, doc, idx)
			text := p.translatePage(gctx, idx, raw)
			results[k] = SplitTextToSubChunks(
				text, idx+1, 1, models.ChunkKindText, true,
				p.cfg.ChunkSize, p.cfg.ChunkOverlap,
			)
			return nil
		})
	}
	_ = g.Wait()

	var chunks []models.Chunk
	for _, r := range results {
		chunks = append(chunks, r...)
	}
	return chunks
}

// ocrPage renders the page and extracts its text under the OCR bound.
func (p *Pipeline) ocrPage(ctx context.Context, doc pdfdoc.Document, idx int) string {
	if err := p.ocrSem.Acquire(ctx, 1); err != nil {
		return ocrErrorPlaceholder(err)
	}
	defer p.ocrSem.Release(1)

	img, err := doc.RenderJPEG(idx, p.cfg.RenderDPI, p.cfg.JPEGQuality)
	if err != nil {
		p.logger.Warn("page render failed", "page", idx+1, "error", err)
		return ocrErrorPlaceholder(err)
	}

	raw, err := retry.String(ctx, p.cfg.Retry, func(ctx context.Context) (string, error) {
		return p.ocr.ExtractText(ctx, img, p.cfg.OCRPrompt)
	})
	if err != nil {
		p.logger.Warn("ocr failed", "page", idx+1, "error", err)
		return ocrErrorPlaceholder(err)
	}
	return raw
}

// translatePage translates OCR output under the translation bound. Error
// placeholders from the OCR stage are passed through the translator like
// any other text; the prompt tells it to leave English unchanged.
func (p *Pipeline) translatePage(ctx context.Context, idx int, raw string) string {
	if err := p.trSem.Acquire(ctx, 1); err != nil {
		return translateErrorPlaceholder(err)
	}
	defer p.trSem.Release(1)

	text, err := retry.String(ctx, p.cfg.Retry, func(ctx context.Context) (string, error) {
		return p.translator.Translate(ctx, raw, p.cfg.TranslatePrompt)
	})
	if err != nil {
		p.logger.Warn("translation failed", "page", idx+1, "error", err)
		return translateErrorPlaceholder(err)
	}
	return text
}

func ocrErrorPlaceholder(err error) string {
	return fmt.Sprintf("<!-- OCR error: %v -->", err)
}

func translateErrorPlaceholder(err error) string {
	return fmt.Sprintf("<!-- translation error: %v -->", err)
}
