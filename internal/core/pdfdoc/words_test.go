package pdfdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledongthuc/pdf"
)

func run(s string, x, y, w float64) pdf.Text {
	return pdf.Text{S: s, X: x, Y: y, W: w, FontSize: 10}
}

func TestWordsFromContent_MergesRunsIntoWords(t *testing.T) {
	// "Te" "nd" "er" laid out as adjacent runs, then "42" after a gap.
	texts := []pdf.Text{
		run("Te", 50, 700, 12),
		run("nd", 62, 700, 12),
		run("er", 74, 700, 12),
		run("42", 120, 700, 14),
	}

	words := wordsFromContent(texts, 792)
	require.Len(t, words, 2)
	assert.Equal(t, "Tender", words[0].Text)
	assert.Equal(t, "42", words[1].Text)
	assert.Less(t, words[0].X0, words[1].X0)
}

func TestWordsFromContent_SpaceRunSplitsWords(t *testing.T) {
	texts := []pdf.Text{
		run("foo", 50, 700, 18),
		run(" ", 68, 700, 4),
		run("bar", 72, 700, 18),
	}
	words := wordsFromContent(texts, 792)
	require.Len(t, words, 2)
	assert.Equal(t, "foo", words[0].Text)
	assert.Equal(t, "bar", words[1].Text)
}

func TestWordsFromContent_TopDownOrdering(t *testing.T) {
	// Higher PDF Y means closer to the page top; output is top-first.
	texts := []pdf.Text{
		run("bottom", 50, 100, 30),
		run("top", 50, 700, 20),
	}
	words := wordsFromContent(texts, 792)
	require.Len(t, words, 2)
	assert.Equal(t, "top", words[0].Text)
	assert.Equal(t, "bottom", words[1].Text)
	assert.Less(t, words[0].Top, words[1].Top)
}

func TestWordsFromContent_Empty(t *testing.T) {
	assert.Empty(t, wordsFromContent(nil, 792))
	assert.Empty(t, wordsFromContent([]pdf.Text{run("   ", 0, 0, 5)}, 792))
}

func TestPageText(t *testing.T) {
	p := Page{Words: []Word{{Text: "hello"}, {Text: "world"}}}
	assert.Equal(t, "hello world", p.Text())
	assert.Equal(t, "", Page{}.Text())
}
