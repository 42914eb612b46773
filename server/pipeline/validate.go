package pipeline

import (
	"fmt"
	"strings"
)

// Item bounds for every bulleted summary field.
const (
	minFieldItems = 4
	maxFieldItems = 8
	maxItemChars  = 180
	minItemChars  = 9
)

// ValidateSummary repairs any candidate summary into a schema-conformant
// result: every bulleted field de-duplicated, items bounded in length and
// count (padded with labeled filler when short), and exactly three
// overview paragraphs, regenerated from the source text when the
// candidate falls short. The result never violates the data model
// invariants, whatever the input.
func ValidateSummary(candidate StructuredSummary, sourceText string) StructuredSummary {
	validated := StructuredSummary{
		OverviewParagraphs: DedupeStrings(candidate.OverviewParagraphs),
		KeyDefinitions:     ensureItemRange(candidate.KeyDefinitions, "Definition"),
		CoreConcepts:       ensureItemRange(candidate.CoreConcepts, "Concept"),
		ImportantExamples:  ensureItemRange(candidate.ImportantExamples, "Example"),
		ExamRevisionPoints: ensureItemRange(candidate.ExamRevisionPoints, "Revision Point"),
	}
	if len(validated.OverviewParagraphs) > 3 {
		validated.OverviewParagraphs = validated.OverviewParagraphs[:3]
	}

	if len(validated.OverviewParagraphs) < 3 {
		validated.OverviewParagraphs = BuildOverview(sourceText, validated.CoreConcepts)
	}

	validated.OverviewParagraphs = DedupeStrings(validated.OverviewParagraphs)
	for len(validated.OverviewParagraphs) < 3 {
		generated := BuildOverview(sourceText, validated.CoreConcepts)
		appended := false
		for _, paragraph := range generated {
			if len(validated.OverviewParagraphs) >= 3 {
				break
			}
			if containsFold(validated.OverviewParagraphs, paragraph) {
				continue
			}
			validated.OverviewParagraphs = append(validated.OverviewParagraphs, paragraph)
			appended = true
		}
		if !appended {
			// Generated paragraphs are all duplicates; synthesize a distinct one.
			validated.OverviewParagraphs = append(validated.OverviewParagraphs, fmt.Sprintf(
				"Overview %d: Consolidate the lecture's main themes into one structured revision narrative.",
				len(validated.OverviewParagraphs)+1))
		}
	}

	return validated
}

// ensureItemRange enforces the 4-8 item invariant on one bulleted field:
// de-duplicate, drop too-short items, truncate long ones at a word
// boundary, cap at the maximum, then pad with labeled filler.
func ensureItemRange(items []string, label string) []string {
	normalized := make([]string, 0, len(items))
	for _, item := range DedupeStrings(items) {
		if len(strings.TrimSpace(item)) < minItemChars {
			continue
		}
		normalized = append(normalized, Shorten(item, maxItemChars))
	}
	if len(normalized) > maxFieldItems {
		normalized = normalized[:maxFieldItems]
	}
	for len(normalized) < minFieldItems {
		normalized = append(normalized, fmt.Sprintf(
			"%s %d: Revise this idea and connect it to the lecture theme.", label, len(normalized)+1))
	}
	return normalized
}

func containsFold(items []string, value string) bool {
	for _, item := range items {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}
