package pipeline

import (
	"sort"
	"strings"

	"github.com/tenderbharat/docvector/internal/models"
	"github.com/tenderbharat/docvector/internal/core/pdfdoc"
)

// scannedTextThreshold: a page whose extractable text has fewer trimmed
// characters than this has no usable digital text layer.
const scannedTextThreshold = 10

// textLineTolerance groups words into the same visual line, page units.
const textLineTolerance = 2.0

// IsScannedPage classifies a page as scanned or digital. A heuristic: pages
// with very sparse legitimate text will misclassify, which is accepted.
func IsScannedPage(p pdfdoc.Page) bool {
	return len(strings.TrimSpace(p.Text())) < scannedTextThreshold
}

// Element is one piece of page content in reading order: a text line or a
// rendered table.
type Element struct {
	Kind    models.ChunkKind
	Top     float64
	Content string
}

// ContentPosition is a merged run of elements, the unit the chunker splits.
type ContentPosition struct {
	Index   int
	Kind    models.ChunkKind
	Content string
}

// ExtractPageContent produces the page's elements top to bottom: tables
// rendered row by row, then text lines built from the words outside every
// table region.
func ExtractPageContent(p pdfdoc.Page) []Element {
	var elements []Element

	for _, t := range p.Tables {
		rows := make([]string, 0, len(t.Rows))
		for _, cells := range t.Rows {
			rows = append(rows, strings.Join(cells, " | "))
		}
		elements = append(elements, Element{
			Kind:    models.ChunkKindTable,
			Top:     t.Box.Top,
			Content: strings.Join(rows, "\n"),
		})
	}

	type line struct {
		top   float64
		words []pdfdoc.Word
	}
	var lines []*line

wordLoop:
	for _, w := range p.Words {
		for _, t := range p.Tables {
			if t.Box.Contains(w) {
				continue wordLoop
			}
		}
		for _, l := range lines {
			if abs(l.top-w.Top) <= textLineTolerance {
				l.words = append(l.words, w)
				continue wordLoop
			}
		}
		lines = append(lines, &line{top: w.Top, words: []pdfdoc.Word{w}})
	}

	for _, l := range lines {
		sort.SliceStable(l.words, func(a, b int) bool { return l.words[a].X0 < l.words[b].X0 })
		parts := make([]string, 0, len(l.words))
		for _, w := range l.words {
			parts = append(parts, w.Text)
		}
		elements = append(elements, Element{
			Kind:    models.ChunkKindText,
			Top:     l.top,
			Content: strings.Join(parts, " "),
		})
	}

	sort.SliceStable(elements, func(a, b int) bool { return elements[a].Top < elements[b].Top })
	return elements
}

// ElementsToPositions collapses consecutive text elements into one position
// joined by newlines. A table always stands alone and breaks the run, so a
// text line after a table starts a fresh position. Indexes count from 1.
func ElementsToPositions(elements []Element) []ContentPosition {
	var positions []ContentPosition
	counter := 1
	var current *ContentPosition

	for _, el := range elements {
		if current == nil {
			current = &ContentPosition{Index: counter, Kind: el.Kind, Content: el.Content}
			continue
		}
		if el.Kind == models.ChunkKindText && current.Kind == models.ChunkKindText {
			current.Content += "\n" + el.Content
			continue
		}
		positions = append(positions, *current)
		counter++
		current = &ContentPosition{Index: counter, Kind: el.Kind, Content: el.Content}
	}
	if current != nil {
		positions = append(positions, *current)
	}
	return positions
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
