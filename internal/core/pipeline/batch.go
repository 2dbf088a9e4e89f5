package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/semaphore"

	"github.com/tenderbharat/docvector/internal/core"
	"github.com/tenderbharat/docvector/internal/core/pdfdoc"
	"github.com/tenderbharat/docvector/internal/models"
	"github.com/tenderbharat/docvector/internal/retry"
)

// Config tunes the page pipeline.
type Config struct {
	OCRPrompt       string
	TranslatePrompt string

	MaxOCRConcurrency       int
	MaxTranslateConcurrency int

	ChunkSize    int
	ChunkOverlap int

	RenderDPI   int
	JPEGQuality int

	Retry retry.Policy
}

// Pipeline turns page ranges of a parsed document into chunks. The two
// semaphores bound simultaneous OCR and translation calls independently for
// the whole process, so concurrent jobs share the same external-call budget.
type Pipeline struct {
	ocr        core.OCRProvider
	translator core.Translator
	ocrSem     *semaphore.Weighted
	trSem      *semaphore.Weighted
	cfg        Config
	logger     *slog.Logger
}

func New(ocr core.OCRProvider, translator core.Translator, cfg Config, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		ocr:        ocr,
		translator: translator,
		ocrSem:     semaphore.NewWeighted(int64(cfg.MaxOCRConcurrency)),
		trSem:      semaphore.NewWeighted(int64(cfg.MaxTranslateConcurrency)),
		cfg:        cfg,
		logger:     logger,
	}
}

// BatchOutput is what one page range produced.
type BatchOutput struct {
	Chunks       []models.Chunk
	ScannedPages int
	DigitalPages int
}

// ProcessBatch classifies and extracts pages [start, end), clamped to the
// document. Digital pages are extracted inline; scanned pages fan out
// through the OCR/translation stages. Chunk order across the two groups is
// unspecified, but within one page position order is preserved.
func (p *Pipeline) ProcessBatch(ctx context.Context, doc pdfdoc.Document, start, end int) (BatchOutput, error) {
	var out BatchOutput

	if start < 0 {
		start = 0
	}
	if end > doc.PageCount() {
		end = doc.PageCount()
	}

	var scannedPages []int
	for i := start; i < end; i++ {
		page, err := doc.Page(i)
		if err != nil {
			return BatchOutput{}, fmt.Errorf("page %d: %w", i+1, err)
		}

		if IsScannedPage(page) {
			scannedPages = append(scannedPages, i)
			continue
		}

		out.DigitalPages++
		for _, pos := range ElementsToPositions(ExtractPageContent(page)) {
			out.Chunks = append(out.Chunks, SplitTextToSubChunks(
				pos.Content, i+1, pos.Index, pos.Kind, false,
				p.cfg.ChunkSize, p.cfg.ChunkOverlap,
			)...)
		}
	}

	out.ScannedPages = len(scannedPages)
	if len(scannedPages) > 0 {
		out.Chunks = append(out.Chunks, p.processScannedPages(ctx, doc, scannedPages)...)
	}

	for _, c := range out.Chunks {
		if err := c.Validate(); err != nil {
			return BatchOutput{}, fmt.Errorf("invalid chunk (page %d): %w", c.Page, err)
		}
	}

	return out, nil
}
