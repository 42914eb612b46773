package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studysense/studysense/server/pipeline"
)

func sampleSummary() pipeline.StructuredSummary {
	return pipeline.StructuredSummary{
		OverviewParagraphs: []string{"First paragraph.", "Second paragraph.", "Third paragraph."},
		KeyDefinitions:     []string{"Entropy: a measure of disorder."},
		CoreConcepts:       []string{"The second law of thermodynamics."},
		ImportantExamples:  []string{"Melting ice as an entropy increase."},
		ExamRevisionPoints: []string{"Relate entropy to spontaneity."},
	}
}

func TestBuildMarkdownSections(t *testing.T) {
	generatedAt := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	doc := BuildMarkdown(sampleSummary(), nil, generatedAt)

	assert.Contains(t, doc, "# StudySense Study Notes")
	assert.Contains(t, doc, "Generated on 2025-03-14 09:30")
	for _, heading := range []string{
		"## 3-Paragraph Lecture Synthesis",
		"## Key Definitions",
		"## Core Concepts",
		"## Important Examples",
		"## Exam Revision Points",
		"## MCQ Practice",
	} {
		assert.Contains(t, doc, heading)
	}
	assert.Contains(t, doc, "- Entropy: a measure of disorder.")
	assert.Contains(t, doc, "No MCQs generated yet.")
}

func TestBuildMarkdownMCQs(t *testing.T) {
	mcqs := []pipeline.MCQItem{{
		Question:     "What does entropy measure?",
		Options:      []string{"Disorder", "Temperature", "Pressure", "Volume"},
		CorrectIndex: 0,
		Explanation:  "Entropy quantifies disorder.",
	}}

	doc := BuildMarkdown(sampleSummary(), mcqs, time.Now())
	assert.Contains(t, doc, "**Q1. What does entropy measure?**")
	assert.Contains(t, doc, "- A. Disorder")
	assert.Contains(t, doc, "- D. Volume")
	assert.Contains(t, doc, "Correct: A. Disorder")
	assert.Contains(t, doc, "Explanation: Entropy quantifies disorder.")
}

func TestBuildMarkdownEmptySection(t *testing.T) {
	doc := BuildMarkdown(pipeline.StructuredSummary{}, nil, time.Now())
	assert.True(t, strings.Count(doc, "No content generated.") >= 5)
}

func TestBuildHTML(t *testing.T) {
	html, err := BuildHTML(sampleSummary(), nil, time.Now())
	require.NoError(t, err)

	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "StudySense Study Notes")
	assert.Contains(t, html, "<li>Entropy: a measure of disorder.</li>")
}
