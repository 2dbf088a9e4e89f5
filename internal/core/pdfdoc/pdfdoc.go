// Package pdfdoc adapts PDF parsing and rasterization behind a small
// document interface: page counts, positioned words and tables for layout
// extraction, JPEG renders for OCR.
package pdfdoc

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
)

// Word is one word of page text with its bounding box. Coordinates are
// top-down page units: Top grows toward the bottom of the page.
type Word struct {
	Text   string
	X0     float64
	X1     float64
	Top    float64
	Bottom float64
}

// Rect is an axis-aligned region in the same top-down coordinates.
type Rect struct {
	X0     float64
	Top    float64
	X1     float64
	Bottom float64
}

// Contains reports whether the word's box falls entirely inside r.
func (r Rect) Contains(w Word) bool {
	return w.X0 >= r.X0 && w.X1 <= r.X1 && w.Top >= r.Top && w.Bottom <= r.Bottom
}

// Table is a detected tabular region with its cell grid.
type Table struct {
	Box  Rect
	Rows [][]string
}

// Page is the parsed content of one page.
type Page struct {
	Words  []Word
	Tables []Table
}

// Text returns the page's words joined by spaces, used by the scanned-page
// classifier.
func (p Page) Text() string {
	var b bytes.Buffer
	for i, w := range p.Words {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w.Text)
	}
	return b.String()
}

// Document is the parsed-PDF surface the pipeline consumes. Page indexes
// are 0-based.
type Document interface {
	PageCount() int
	Page(i int) (Page, error)
	RenderJPEG(i int, dpi int, quality int) ([]byte, error)
	Close() error
}

// Opener turns raw PDF bytes into a Document. Injected so the pipeline can
// be tested without real PDFs.
type Opener func(b []byte) (Document, error)

// File is the production Document: ledongthuc/pdf for text and positions,
// go-fitz for rasterization.
type File struct {
	reader    *pdf.Reader
	fz        *fitz.Document
	pageCount int
}

// Open parses the document with both backends. The text parser panics on
// some malformed files, so the recover here turns that into an error.
func Open(b []byte) (doc Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}

	fz, err := fitz.NewFromMemory(b)
	if err != nil {
		return nil, fmt.Errorf("open pdf for rendering: %w", err)
	}

	return &File{reader: reader, fz: fz, pageCount: reader.NumPage()}, nil
}

func (f *File) PageCount() int {
	return f.pageCount
}

// Page extracts words and detects tables for the 0-based page index.
func (f *File) Page(i int) (page Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			page, err = Page{}, fmt.Errorf("read page %d: %v", i+1, r)
		}
	}()

	if i < 0 || i >= f.pageCount {
		return Page{}, fmt.Errorf("page index %d out of range [0,%d)", i, f.pageCount)
	}

	p := f.reader.Page(i + 1)
	if p.V.IsNull() {
		return Page{}, nil
	}

	words := wordsFromContent(p.Content().Text, pageHeight(p))
	tables := detectTables(words)
	return Page{Words: words, Tables: tables}, nil
}

// RenderJPEG rasterizes the 0-based page at the given DPI. A low DPI and
// aggressive quality keep OCR request bodies small.
func (f *File) RenderJPEG(i int, dpi int, quality int) ([]byte, error) {
	img, err := f.fz.ImageDPI(i, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", i+1, err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode page %d: %w", i+1, err)
	}
	return buf.Bytes(), nil
}

func (f *File) Close() error {
	if f.fz != nil {
		return f.fz.Close()
	}
	return nil
}

// pageHeight resolves the MediaBox height, walking up to the parent pages
// node when the box is inherited. Falls back to US Letter.
func pageHeight(p pdf.Page) float64 {
	v := p.V
	for !v.IsNull() {
		mb := v.Key("MediaBox")
		if !mb.IsNull() && mb.Len() == 4 {
			return mb.Index(3).Float64() - mb.Index(1).Float64()
		}
		v = v.Key("Parent")
	}
	return 792
}

var _ Document = (*File)(nil)
