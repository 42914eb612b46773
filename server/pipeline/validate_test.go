package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lectureSource = `Thermodynamics is the study of energy and its transformations across systems.
The first law means energy is conserved in every closed system under observation.
Entropy refers to the measure of disorder inside a physical system.
Heat flows spontaneously from a hot body to a cold body in all natural processes.
The Carnot cycle is a model of the ideal reversible heat engine with maximum efficiency.
A piston compressing gas raises the internal energy of that gas measurably.
Enthalpy is defined as internal energy plus the product of pressure and volume.
The second law means the total entropy of an isolated system never decreases over time.
Free energy refers to the portion of energy available for useful work at constant temperature.
An ice cube melting in a warm room is a familiar case of spontaneous entropy increase.`

func TestBuildOverviewProducesThreeParagraphs(t *testing.T) {
	paragraphs := BuildOverview(lectureSource, []string{"entropy", "energy conservation"})
	require.Len(t, paragraphs, 3)
	for i, paragraph := range paragraphs {
		assert.NotEmpty(t, paragraph, "paragraph %d", i)
		assert.LessOrEqual(t, len(paragraph), 620, "paragraph %d length", i)
	}
	// Paragraphs must not repeat each other.
	assert.Len(t, DedupeStrings(paragraphs), 3)
}

func TestBuildOverviewEmptySourceUsesTemplates(t *testing.T) {
	paragraphs := BuildOverview("", []string{"graph traversal", "shortest paths"})
	require.Len(t, paragraphs, 3)
	assert.Contains(t, paragraphs[0], "graph traversal")
	assert.Contains(t, paragraphs[1], "shortest paths")
}

func TestBuildOverviewNoSourceNoConcepts(t *testing.T) {
	paragraphs := BuildOverview("", nil)
	require.Len(t, paragraphs, 3)
	for _, paragraph := range paragraphs {
		assert.NotEmpty(t, paragraph)
	}
}

func TestValidateSummaryRepairsFields(t *testing.T) {
	candidate := StructuredSummary{
		OverviewParagraphs: []string{"only one paragraph"},
		KeyDefinitions:     []string{"short", "Entropy: a measure of disorder", "Entropy: a measure of disorder"},
		CoreConcepts:       []string{strings.Repeat("long concept text ", 30)},
	}
	validated := ValidateSummary(candidate, lectureSource)

	assert.Len(t, validated.OverviewParagraphs, 3)
	for _, field := range [][]string{
		validated.KeyDefinitions,
		validated.CoreConcepts,
		validated.ImportantExamples,
		validated.ExamRevisionPoints,
	} {
		assert.GreaterOrEqual(t, len(field), 4)
		assert.LessOrEqual(t, len(field), 8)
		for _, item := range field {
			assert.LessOrEqual(t, len(item), 183)
			assert.GreaterOrEqual(t, len(strings.TrimSpace(item)), 9)
		}
	}

	// The too-short item is dropped and the duplicate collapsed.
	joined := strings.Join(validated.KeyDefinitions, "|")
	assert.NotContains(t, joined, "short|")
	assert.Equal(t, 1, strings.Count(joined, "Entropy: a measure of disorder"))
}

func TestValidateSummaryCapsOversizedFields(t *testing.T) {
	items := make([]string, 12)
	for i := range items {
		items[i] = strings.Repeat("x", 20) + string(rune('a'+i))
	}
	validated := ValidateSummary(StructuredSummary{KeyDefinitions: items}, lectureSource)
	assert.Len(t, validated.KeyDefinitions, 8)
}

func TestValidateSummaryKeepsValidOverview(t *testing.T) {
	candidate := StructuredSummary{
		OverviewParagraphs: []string{"First distinct paragraph.", "Second distinct paragraph.", "Third distinct paragraph."},
	}
	validated := ValidateSummary(candidate, lectureSource)
	assert.Equal(t, candidate.OverviewParagraphs, validated.OverviewParagraphs)
}

func TestValidateSummaryNeverReturnsInvalidShape(t *testing.T) {
	validated := ValidateSummary(StructuredSummary{}, "")
	assert.Len(t, validated.OverviewParagraphs, 3)
	assert.Len(t, validated.KeyDefinitions, 4)
	assert.Len(t, validated.CoreConcepts, 4)
	assert.Len(t, validated.ImportantExamples, 4)
	assert.Len(t, validated.ExamRevisionPoints, 4)
}
