package pdfdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func word(text string, x0, x1, top float64) Word {
	return Word{Text: text, X0: x0, X1: x1, Top: top, Bottom: top + 10}
}

func TestDetectTables_FindsAlignedGrid(t *testing.T) {
	words := []Word{
		// header row
		word("Item", 50, 80, 100),
		word("Qty", 200, 225, 100),
		word("Price", 350, 385, 100),
		// data rows
		word("Cement", 50, 100, 115),
		word("10", 200, 215, 115),
		word("4500", 350, 380, 115),
		word("Steel", 50, 85, 130),
		word("3", 200, 208, 130),
		word("12000", 350, 385, 130),
	}

	tables := detectTables(words)
	require.Len(t, tables, 1)

	tbl := tables[0]
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, []string{"Item", "Qty", "Price"}, tbl.Rows[0])
	assert.Equal(t, []string{"Cement", "10", "4500"}, tbl.Rows[1])
	assert.Equal(t, []string{"Steel", "3", "12000"}, tbl.Rows[2])

	// The box must cover every member word so layout extraction can
	// exclude them from the running text.
	for _, w := range words {
		assert.True(t, tbl.Box.Contains(w), "box should contain %q", w.Text)
	}
}

func TestDetectTables_IgnoresPlainParagraphs(t *testing.T) {
	// Prose lines: single cluster per row, no column structure.
	words := []Word{
		word("This", 50, 75, 100),
		word("tender", 78, 115, 100),
		word("invites", 118, 155, 100),
		word("sealed", 50, 85, 115),
		word("bids", 88, 110, 115),
	}
	assert.Empty(t, detectTables(words))
}

func TestDetectTables_SingleRowIsNotATable(t *testing.T) {
	words := []Word{
		word("Name", 50, 80, 100),
		word("Value", 200, 235, 100),
	}
	assert.Empty(t, detectTables(words))
}

func TestDetectTables_MisalignedColumnsSplitRuns(t *testing.T) {
	words := []Word{
		word("A", 50, 60, 100),
		word("B", 200, 210, 100),
		// second row's columns start somewhere else entirely
		word("C", 120, 130, 115),
		word("D", 300, 310, 115),
	}
	assert.Empty(t, detectTables(words))
}

func TestDetectTables_TableBelowProse(t *testing.T) {
	words := []Word{
		word("Introduction", 50, 130, 40),
		word("Item", 50, 80, 100),
		word("Qty", 200, 225, 100),
		word("Cement", 50, 100, 115),
		word("10", 200, 215, 115),
	}
	tables := detectTables(words)
	require.Len(t, tables, 1)
	assert.Len(t, tables[0].Rows, 2)
	assert.False(t, tables[0].Box.Contains(word("Introduction", 50, 130, 40)))
}

func TestRectContains(t *testing.T) {
	r := Rect{X0: 10, Top: 10, X1: 100, Bottom: 100}
	assert.True(t, r.Contains(Word{X0: 20, X1: 80, Top: 20, Bottom: 30}))
	assert.False(t, r.Contains(Word{X0: 5, X1: 80, Top: 20, Bottom: 30}))
	assert.False(t, r.Contains(Word{X0: 20, X1: 80, Top: 95, Bottom: 105}))
}
