// Package offline implements the terminal generation tier: a deterministic
// heuristic model that extracts study artifacts lexically from the
// transcript itself. It needs no network, no credentials, and never
// returns an error, which is what makes the fallback chain total.
package offline

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/studysense/studysense/server/ai"
	"github.com/studysense/studysense/server/pipeline"
)

// Heuristic-tier chunking parameters.
const (
	chunkChars   = 2000
	chunkOverlap = 160
	maxChunks    = 10
)

// Model is the offline heuristic provider. It is stateless and safe for
// concurrent use.
type Model struct{}

var _ ai.Provider = (*Model)(nil)

// NewModel returns the offline model.
func NewModel() *Model {
	return &Model{}
}

// Name implements ai.Provider.
func (m *Model) Name() string {
	return "offline"
}

func shorten(text string, maxChars int) string {
	return pipeline.Shorten(text, maxChars)
}

// trimItems bounds one extracted field to 4-8 items before validation.
func trimItems(items []string, label string) []string {
	var values []string
	for _, item := range pipeline.DedupeStrings(items) {
		if len(strings.TrimSpace(item)) <= 8 {
			continue
		}
		values = append(values, shorten(item, 180))
	}
	if len(values) > 8 {
		values = values[:8]
	}
	for len(values) < 4 {
		values = append(values, fmt.Sprintf(
			"%s %d: Connect this point to the lecture's core objective.", label, len(values)+1))
	}
	return values
}

// Summarize implements ai.Provider. The error is always nil.
func (m *Model) Summarize(_ context.Context, transcript string) (pipeline.StructuredSummary, error) {
	cleaned := pipeline.CleanTranscript(transcript)
	chunks := pipeline.SplitChunks(cleaned, chunkChars, chunkOverlap, maxChunks)
	if len(chunks) == 0 && cleaned != "" {
		chunks = []string{cleaned}
	}

	var definitions, concepts, examples, revision []string
	for _, chunk := range chunks {
		notes := summarizeChunk(chunk)
		definitions = append(definitions, notes.definitions...)
		concepts = append(concepts, notes.concepts...)
		examples = append(examples, notes.examples...)
		revision = append(revision, notes.revision...)
	}

	summary := pipeline.StructuredSummary{
		OverviewParagraphs: pipeline.BuildOverview(cleaned, concepts),
		KeyDefinitions:     trimItems(definitions, "Definition"),
		CoreConcepts:       trimItems(concepts, "Concept"),
		ImportantExamples:  trimItems(examples, "Example"),
		ExamRevisionPoints: trimItems(revision, "Revision"),
	}
	return pipeline.ValidateSummary(summary, cleaned), nil
}

type chunkNotes struct {
	definitions []string
	concepts    []string
	examples    []string
	revision    []string
}

func summarizeChunk(chunk string) chunkNotes {
	sentences := pipeline.SplitSentences(chunk)
	if len(sentences) == 0 {
		sentences = []string{shorten(chunk, 200)}
	}

	tokenCounts := pipeline.TokenCounts(chunk)
	topTerms := rankTerms(pipeline.ContentTokens(chunk), 12)

	concepts := extractCoreConcepts(sentences, tokenCounts)
	return chunkNotes{
		definitions: extractDefinitions(sentences, topTerms),
		concepts:    concepts,
		examples:    extractExamples(sentences, concepts),
		revision:    extractRevisionPoints(concepts, topTerms),
	}
}

// rankTerms returns the n most frequent tokens, frequency-descending.
// Equal-frequency tokens keep their first-appearance order.
func rankTerms(tokens []string, n int) []string {
	counts := make(map[string]int, len(tokens))
	terms := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if counts[token] == 0 {
			terms = append(terms, token)
		}
		counts[token]++
	}
	sort.SliceStable(terms, func(i, j int) bool {
		return counts[terms[i]] > counts[terms[j]]
	})
	if len(terms) > n {
		terms = terms[:n]
	}
	return terms
}

var definitionRe = regexp.MustCompile(
	`(?i)([A-Za-z][A-Za-z0-9\-\s]{2,40})\s+(?:is|are|means|refers to|defined as)\s+([^.;:]{10,220})`)

// extractDefinitions pulls "X is/means/refers to Y" sentences, keeping the
// last few words of the left side as the term. Frequent terms pad the list
// when too few explicit definitions exist.
func extractDefinitions(sentences, topTerms []string) []string {
	var output []string

	scan := sentences
	if len(scan) > 40 {
		scan = scan[:40]
	}
	for _, sentence := range scan {
		match := definitionRe.FindStringSubmatch(sentence)
		if match == nil {
			continue
		}
		words := strings.Fields(match[1])
		if len(words) > 5 {
			words = words[len(words)-5:]
		}
		term := titleCase(strings.Join(words, " "))
		definition := strings.TrimRight(shorten(strings.Trim(match[2], " -"), 170), ".")
		output = append(output, fmt.Sprintf("%s: %s.", term, definition))
	}

	for _, term := range topTerms {
		if len(output) >= 8 {
			break
		}
		output = append(output, fmt.Sprintf(
			"%s: A recurring technical term in this lecture that should be defined clearly.", titleCase(term)))
	}
	return output
}

var conceptMarkers = []string{"key", "core", "principle", "method", "model", "process"}

// extractCoreConcepts ranks sentences by summed unique-token frequency,
// with a small bonus for sentences carrying conceptual markers.
func extractCoreConcepts(sentences []string, tokenCounts map[string]int) []string {
	type scored struct {
		score    int
		sentence string
	}
	var ranked []scored

	for _, sentence := range sentences {
		seen := make(map[string]struct{})
		score := 0
		for _, token := range pipeline.ContentTokens(sentence) {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			score += tokenCounts[token]
		}
		if len(seen) == 0 {
			continue
		}
		lowered := strings.ToLower(sentence)
		for _, marker := range conceptMarkers {
			if strings.Contains(lowered, marker) {
				score += 3
				break
			}
		}
		ranked = append(ranked, scored{score: score, sentence: sentence})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	output := make([]string, 0, 8)
	for _, item := range ranked {
		if len(output) >= 8 {
			break
		}
		output = append(output, shorten(item.sentence, 190))
	}
	return output
}

var exampleMarkers = []string{"example", "for instance", "such as", "suppose", "consider", "application", "case"}

func extractExamples(sentences, concepts []string) []string {
	var output []string
	for _, sentence := range sentences {
		lowered := strings.ToLower(sentence)
		for _, marker := range exampleMarkers {
			if strings.Contains(lowered, marker) {
				output = append(output, shorten(sentence, 180))
				break
			}
		}
	}

	if len(output) < 4 {
		seed := concepts
		if len(seed) > 4 {
			seed = seed[:4]
		}
		for _, concept := range seed {
			output = append(output, "Application view: "+shorten(concept, 145))
		}
	}
	return output
}

func extractRevisionPoints(concepts, topTerms []string) []string {
	var output []string
	seed := concepts
	if len(seed) > 4 {
		seed = seed[:4]
	}
	for _, concept := range seed {
		output = append(output, "Exam focus: "+shorten(concept, 150))
	}

	terms := topTerms
	if len(terms) > 4 {
		terms = terms[:4]
	}
	for _, term := range terms {
		output = append(output, fmt.Sprintf(
			"Define %s and explain its role in the lecture framework.", titleCase(term)))
	}
	return output
}

// titleCase uppercases the first letter of each word.
func titleCase(text string) string {
	words := strings.Fields(strings.ToLower(text))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
