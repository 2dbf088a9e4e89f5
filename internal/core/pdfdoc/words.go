package pdfdoc

import (
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// lineTolerance is how far apart two baselines can be and still count as
// the same text line, in page units.
const lineTolerance = 1.0

// wordsFromContent merges the parser's raw text runs into words. Runs are
// tiny (often single glyphs), so adjacent runs on the same baseline are
// joined until a space run or a visible horizontal gap.
func wordsFromContent(texts []pdf.Text, height float64) []Word {
	if len(texts) == 0 {
		return nil
	}

	runs := make([]pdf.Text, len(texts))
	copy(runs, texts)
	sort.SliceStable(runs, func(a, b int) bool {
		if runs[a].Y != runs[b].Y {
			return runs[a].Y > runs[b].Y // higher Y first = top of page first
		}
		return runs[a].X < runs[b].X
	})

	var words []Word
	var cur *Word
	var curY, curEnd float64

	flush := func() {
		if cur != nil && strings.TrimSpace(cur.Text) != "" {
			cur.Text = strings.TrimSpace(cur.Text)
			words = append(words, *cur)
		}
		cur = nil
	}

	for _, r := range runs {
		if strings.TrimSpace(r.S) == "" {
			flush()
			continue
		}

		sameLine := cur != nil && abs(r.Y-curY) <= lineTolerance
		gap := r.X - curEnd
		joinGap := r.FontSize * 0.25
		if joinGap < 1 {
			joinGap = 1
		}

		if sameLine && gap <= joinGap {
			cur.Text += r.S
			if r.X+r.W > cur.X1 {
				cur.X1 = r.X + r.W
			}
			curEnd = r.X + r.W
			continue
		}

		flush()
		top := height - r.Y - r.FontSize
		cur = &Word{
			Text:   r.S,
			X0:     r.X,
			X1:     r.X + r.W,
			Top:    top,
			Bottom: height - r.Y,
		}
		curY = r.Y
		curEnd = r.X + r.W
	}
	flush()

	return words
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
