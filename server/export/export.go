// Package export renders a session's study artifacts into a printable
// HTML document. The document is composed as markdown and converted with
// goldmark, so it also round-trips as plain markdown.
package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/studysense/studysense/server/pipeline"
)

var optionLabels = []string{"A", "B", "C", "D"}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// BuildMarkdown composes the study notes document in markdown.
func BuildMarkdown(summary pipeline.StructuredSummary, mcqs []pipeline.MCQItem, generatedAt time.Time) string {
	var b strings.Builder

	b.WriteString("# StudySense Study Notes\n\n")
	b.WriteString(generatedAt.Format("*Generated on 2006-01-02 15:04*\n\n"))

	writeSection(&b, "3-Paragraph Lecture Synthesis", summary.OverviewParagraphs, false)
	writeSection(&b, "Key Definitions", summary.KeyDefinitions, true)
	writeSection(&b, "Core Concepts", summary.CoreConcepts, true)
	writeSection(&b, "Important Examples", summary.ImportantExamples, true)
	writeSection(&b, "Exam Revision Points", summary.ExamRevisionPoints, true)

	b.WriteString("## MCQ Practice\n\n")
	if len(mcqs) == 0 {
		b.WriteString("No MCQs generated yet.\n\n")
		return b.String()
	}

	for index, mcq := range mcqs {
		fmt.Fprintf(&b, "**Q%d. %s**\n\n", index+1, mcq.Question)
		for optIndex, option := range mcq.Options {
			if optIndex >= len(optionLabels) {
				break
			}
			fmt.Fprintf(&b, "- %s. %s\n", optionLabels[optIndex], option)
		}
		correct := mcq.CorrectIndex
		if correct < 0 || correct >= len(mcq.Options) {
			correct = 0
		}
		fmt.Fprintf(&b, "\nCorrect: %s. %s\n\n", optionLabels[correct], mcq.Options[correct])
		fmt.Fprintf(&b, "Explanation: %s\n\n", mcq.Explanation)
	}
	return b.String()
}

func writeSection(b *strings.Builder, title string, items []string, bulleted bool) {
	fmt.Fprintf(b, "## %s\n\n", title)
	if len(items) == 0 {
		b.WriteString("No content generated.\n\n")
		return
	}
	for _, item := range items {
		if bulleted {
			fmt.Fprintf(b, "- %s\n", item)
		} else {
			fmt.Fprintf(b, "%s\n\n", item)
		}
	}
	if bulleted {
		b.WriteString("\n")
	}
}

const documentShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>StudySense Study Notes</title>
<style>
body { font-family: Georgia, serif; color: #0F172A; max-width: 52rem; margin: 2rem auto; padding: 0 1.5rem; line-height: 1.5; }
h1 { font-size: 1.6rem; color: #0F172A; }
h2 { font-size: 1.15rem; color: #1E293B; border-bottom: 1px solid #E2E8F0; padding-bottom: 0.2rem; }
em { color: #475569; font-size: 0.85rem; }
li { margin-bottom: 0.3rem; }
</style>
</head>
<body>
%s</body>
</html>
`

// BuildHTML renders the full printable document.
func BuildHTML(summary pipeline.StructuredSummary, mcqs []pipeline.MCQItem, generatedAt time.Time) (string, error) {
	source := BuildMarkdown(summary, mcqs, generatedAt)

	var body bytes.Buffer
	if err := markdown.Convert([]byte(source), &body); err != nil {
		return "", errors.Wrap(err, "failed to render document")
	}
	return fmt.Sprintf(documentShell, body.String()), nil
}
