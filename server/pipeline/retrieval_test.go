package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitChunksBounds(t *testing.T) {
	sentence := "Thermodynamics concerns energy transformations in physical systems and their limits. "
	text := strings.Repeat(sentence, 40)

	chunks := SplitChunks(text, 500, 60, 10)
	require.NotEmpty(t, chunks)
	assert.LessOrEqual(t, len(chunks), 10)
	for i, chunk := range chunks {
		assert.NotEmpty(t, chunk, "chunk %d", i)
		assert.LessOrEqual(t, len(chunk), 500+60+1, "chunk %d length", i)
	}
}

func TestSplitChunksOverlapCarriesContext(t *testing.T) {
	sentence := "Gradient descent iteratively adjusts model parameters against the loss. "
	chunks := SplitChunks(strings.Repeat(sentence, 30), 400, 80, 8)
	require.Greater(t, len(chunks), 1)

	// The tail of each chunk seeds the next one.
	for i := 1; i < len(chunks); i++ {
		prevTail := chunks[i-1][len(chunks[i-1])-20:]
		assert.Contains(t, chunks[i], strings.TrimSpace(prevTail)[:10], "chunk %d overlap", i)
	}
}

func TestSplitChunksEmptyInput(t *testing.T) {
	assert.Nil(t, SplitChunks("", 500, 50, 10))
	assert.Nil(t, SplitChunks("   \n  ", 500, 50, 10))
}

func TestSplitChunksOverlapWiderThanChunk(t *testing.T) {
	// An overlap wider than the chunk size must not slice out of range.
	chunks := SplitChunks(strings.Repeat("abcdefghij", 100), 300, 500, 5)
	require.NotEmpty(t, chunks)
	assert.LessOrEqual(t, len(chunks[0]), 300)

	chunks = SplitChunks(strings.Repeat("abcdefghij", 100), 300, -10, 5)
	require.NotEmpty(t, chunks)
}

func TestSplitChunksHardSlicesLongParagraph(t *testing.T) {
	chunks := SplitChunks(strings.Repeat("abcdefghij", 100), 300, 30, 5)
	require.NotEmpty(t, chunks)
	assert.LessOrEqual(t, len(chunks[0]), 300)
}

func TestSelectTopChunks(t *testing.T) {
	chunks := []string{
		"Photosynthesis converts light energy into chemical energy in plants.",
		"Cellular respiration releases stored energy for metabolic work.",
		"Mitosis divides a cell nucleus into two identical daughter nuclei.",
		"Chlorophyll absorbs light most strongly in the blue and red bands.",
	}

	selected := SelectTopChunks("How does chlorophyll capture light for photosynthesis?", chunks, 2)
	require.Len(t, selected, 2)
	assert.Contains(t, strings.Join(selected, " "), "Chlorophyll")
	assert.Contains(t, strings.Join(selected, " "), "Photosynthesis")
}

func TestSelectTopChunksFallsBackToFirstN(t *testing.T) {
	chunks := []string{"first chunk body text", "second chunk body text", "third chunk body text"}

	// Stopword-only query has no usable tokens.
	selected := SelectTopChunks("the of and", chunks, 2)
	assert.Equal(t, chunks[:2], selected)

	// No chunk matches the query terms.
	selected = SelectTopChunks("quantum chromodynamics lagrangian", chunks, 2)
	assert.Equal(t, chunks[:2], selected)
}

func TestSelectTopChunksEmpty(t *testing.T) {
	assert.Nil(t, SelectTopChunks("anything", nil, 3))
}

func TestBuildSummaryQuery(t *testing.T) {
	summary := StructuredSummary{
		CoreConcepts:       []string{"c1", "c2", "c3", "c4", "c5"},
		ExamRevisionPoints: []string{"r1", "r2", "r3", "r4"},
		KeyDefinitions:     []string{"d1", "d2", "d3", "d4"},
	}
	query := BuildSummaryQuery(summary)
	assert.Equal(t, "c1 c2 c3 c4 r1 r2 r3 d1 d2 d3", query)

	assert.Empty(t, BuildSummaryQuery(StructuredSummary{}))
}
