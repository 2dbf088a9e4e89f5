package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderbharat/docvector/internal/models"
)

func TestSplitTextToSubChunks_ShortTextIsOneChunk(t *testing.T) {
	chunks := SplitTextToSubChunks("hello world", 1, 1, models.ChunkKindText, false, 300, 40)

	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0].Data)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, 1, chunks[0].Position)
	assert.Equal(t, 1, chunks[0].SubPosition)
	assert.Equal(t, models.ChunkKindText, chunks[0].Kind)
	assert.False(t, chunks[0].IsScanned)
}

func TestSplitTextToSubChunks_EmptyAndWhitespaceOnly(t *testing.T) {
	assert.Nil(t, SplitTextToSubChunks("", 1, 1, models.ChunkKindText, false, 300, 40))
	assert.Empty(t, SplitTextToSubChunks("   \n  ", 1, 1, models.ChunkKindText, false, 300, 40))
}

func TestSplitTextToSubChunks_WordsStayWhole(t *testing.T) {
	text := strings.Repeat("alpha bravo charlie delta echo ", 40)
	chunks := SplitTextToSubChunks(text, 1, 1, models.ChunkKindText, false, 50, 10)

	require.NotEmpty(t, chunks)
	vocab := map[string]bool{"alpha": true, "bravo": true, "charlie": true, "delta": true, "echo": true}
	for _, c := range chunks {
		for _, w := range strings.Fields(c.Data) {
			assert.True(t, vocab[w], "split a word in half: %q", w)
		}
	}
}

func TestSplitTextToSubChunks_SubPositionsAreSequentialFromOne(t *testing.T) {
	text := strings.Repeat("word ", 200)
	chunks := SplitTextToSubChunks(text, 3, 2, models.ChunkKindText, true, 50, 10)

	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.Equal(t, i+1, c.SubPosition)
		assert.Equal(t, 3, c.Page)
		assert.Equal(t, 2, c.Position)
		assert.True(t, c.IsScanned)
	}
}

func TestSplitTextToSubChunks_AdjacentChunksOverlap(t *testing.T) {
	text := strings.Repeat("segment ", 100)
	chunks := SplitTextToSubChunks(text, 1, 1, models.ChunkKindText, false, 80, 20)

	require.Greater(t, len(chunks), 2)
	for i := 1; i < len(chunks); i++ {
		prevTail := chunks[i-1].Data[len(chunks[i-1].Data)-8:]
		assert.Contains(t, chunks[i].Data, strings.TrimSpace(prevTail),
			"chunk %d does not overlap its predecessor", i)
	}
}

func TestSplitTextToSubChunks_EveryInputRuneIsCovered(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 30)
	chunks := SplitTextToSubChunks(text, 1, 1, models.ChunkKindText, false, 300, 40)

	joined := " "
	for _, c := range chunks {
		joined += c.Data + " "
	}
	for _, w := range strings.Fields(text) {
		assert.Contains(t, joined, " "+w+" ")
	}
}

func TestSplitTextToSubChunks_TerminatesWithoutWhitespace(t *testing.T) {
	text := strings.Repeat("x", 1000)
	chunks := SplitTextToSubChunks(text, 1, 1, models.ChunkKindText, false, 300, 40)

	// No whitespace means every window runs to the end of the text, so a
	// single chunk carries everything.
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Data)
}

func TestSplitTextToSubChunks_TerminatesWithOverlapGEWindow(t *testing.T) {
	text := strings.Repeat("ab ", 300)
	chunks := SplitTextToSubChunks(text, 1, 1, models.ChunkKindText, false, 10, 10)

	require.NotEmpty(t, chunks)
	last := chunks[len(chunks)-1]
	assert.True(t, strings.HasSuffix(strings.TrimRight(text, " "), last.Data))
}

func TestSplitTextToSubChunks_ZeroOverlap(t *testing.T) {
	text := strings.Repeat("token ", 60)
	chunks := SplitTextToSubChunks(text, 1, 1, models.ChunkKindText, false, 60, 0)

	require.Greater(t, len(chunks), 1)
	total := 0
	for _, c := range chunks {
		total += len(strings.Fields(c.Data))
	}
	assert.Equal(t, 60, total)
}

func TestSplitTextToSubChunks_MultibyteRunesAreNotSplit(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 50)
	chunks := SplitTextToSubChunks(text, 1, 1, models.ChunkKindText, false, 40, 10)

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		for _, w := range strings.Fields(c.Data) {
			assert.True(t, w == "héllo" || w == "wörld", "mangled word %q", w)
		}
	}
}
