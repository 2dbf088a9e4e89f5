package pipeline

import (
	"strings"

	"github.com/tenderbharat/docvector/internal/models"
)

// SplitTextToSubChunks splits one content position's text into overlapping
// sub-chunks of roughly window runes. The right edge of a window only ever
// grows, extending to the next whitespace so words stay whole. Sub-positions
// count from 1. The next window starts overlap runes back from the previous
// end unless that would stall, which guarantees termination for any input,
// including overlap >= window and text with no whitespace at all.
func SplitTextToSubChunks(text string, page, position int, kind models.ChunkKind, isScanned bool, window, overlap int) []models.Chunk {
	runes := []rune(text)
	n := len(runes)
	if n == 0 || window <= 0 {
		return nil
	}

	var chunks []models.Chunk
	start := 0
	subPos := 1

	for start < n {
		end := start + window
		if end >= n {
			end = n
		} else {
			for end < n && runes[end] != ' ' && runes[end] != '\n' {
				end++
			}
		}

		sub := strings.TrimSpace(string(runes[start:end]))
		if sub != "" {
			chunks = append(chunks, models.Chunk{
				Page:        page,
				Position:    position,
				SubPosition: subPos,
				Kind:        kind,
				IsScanned:   isScanned,
				Data:        sub,
			})
			subPos++
		}

		if end >= n {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}
