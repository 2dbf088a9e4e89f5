package pdfdoc

import "sort"

// Table detection heuristic. The parser exposes no table structure, so
// tables are inferred from the geometry: consecutive text rows whose words
// cluster into the same column layout. Two aligned rows are the minimum.
const (
	rowTolerance  = 2.0  // words within this Top distance share a row
	minColumnGap  = 12.0 // horizontal gap that separates two cells
	maxRowGap     = 20.0 // vertical gap that still continues a table
	columnAlignTo = 10.0 // how far two rows' column starts may drift
	minTableRows  = 2
	minTableCols  = 2
)

type tableRow struct {
	top    float64
	bottom float64
	cells  [][]Word // words clustered by column
}

// detectTables scans the page's words for grid-like regions.
func detectTables(words []Word) []Table {
	rows := clusterRows(words)
	if len(rows) < minTableRows {
		return nil
	}

	var tables []Table
	var run []tableRow

	endRun := func() {
		if len(run) >= minTableRows {
			tables = append(tables, buildTable(run))
		}
		run = nil
	}

	for _, row := range rows {
		if len(row.cells) < minTableCols {
			endRun()
			continue
		}
		if len(run) > 0 {
			prev := run[len(run)-1]
			if row.top-prev.bottom > maxRowGap || !columnsAligned(prev, row) {
				endRun()
			}
		}
		run = append(run, row)
	}
	endRun()

	return tables
}

// clusterRows groups words into rows by Top proximity, then splits each row
// into cell clusters at large horizontal gaps.
func clusterRows(words []Word) []tableRow {
	if len(words) == 0 {
		return nil
	}

	sorted := make([]Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(a, b int) bool {
		if sorted[a].Top != sorted[b].Top {
			return sorted[a].Top < sorted[b].Top
		}
		return sorted[a].X0 < sorted[b].X0
	})

	var rows []tableRow
	var rowWords []Word

	flushRow := func() {
		if len(rowWords) == 0 {
			return
		}
		sort.SliceStable(rowWords, func(a, b int) bool { return rowWords[a].X0 < rowWords[b].X0 })

		row := tableRow{top: rowWords[0].Top, bottom: rowWords[0].Bottom}
		var cell []Word
		for _, w := range rowWords {
			if w.Top < row.top {
				row.top = w.Top
			}
			if w.Bottom > row.bottom {
				row.bottom = w.Bottom
			}
			if len(cell) > 0 && w.X0-cell[len(cell)-1].X1 >= minColumnGap {
				row.cells = append(row.cells, cell)
				cell = nil
			}
			cell = append(cell, w)
		}
		if len(cell) > 0 {
			row.cells = append(row.cells, cell)
		}
		rows = append(rows, row)
		rowWords = nil
	}

	for _, w := range sorted {
		if len(rowWords) > 0 && w.Top-rowWords[0].Top > rowTolerance {
			flushRow()
		}
		rowWords = append(rowWords, w)
	}
	flushRow()

	return rows
}

// columnsAligned reports whether two rows share a column layout: same cell
// count, each cell starting within the alignment drift.
func columnsAligned(a, b tableRow) bool {
	if len(a.cells) != len(b.cells) {
		return false
	}
	for i := range a.cells {
		if abs(a.cells[i][0].X0-b.cells[i][0].X0) > columnAlignTo {
			return false
		}
	}
	return true
}

func buildTable(rows []tableRow) Table {
	t := Table{Box: Rect{
		X0:     rows[0].cells[0][0].X0,
		Top:    rows[0].top,
		X1:     rows[0].cells[0][0].X1,
		Bottom: rows[0].bottom,
	}}

	for _, row := range rows {
		var cells []string
		for _, cell := range row.cells {
			text := ""
			for i, w := range cell {
				if i > 0 {
					text += " "
				}
				text += w.Text
				if w.X0 < t.Box.X0 {
					t.Box.X0 = w.X0
				}
				if w.X1 > t.Box.X1 {
					t.Box.X1 = w.X1
				}
			}
			cells = append(cells, text)
		}
		if row.top < t.Box.Top {
			t.Box.Top = row.top
		}
		if row.bottom > t.Box.Bottom {
			t.Box.Bottom = row.bottom
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}
