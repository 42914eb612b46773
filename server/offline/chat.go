package offline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/studysense/studysense/server/pipeline"
)

const notFoundAnswer = "Offline mode is active. I could not find a strong match in current notes. " +
	"Ask with terms from key definitions or core concepts."

// Chat implements ai.Provider. The answer is assembled from the summary
// items and retrieved excerpts that best overlap the question; history is
// ignored because the heuristic has no conversational state.
func (m *Model) Chat(_ context.Context, message string, summary pipeline.StructuredSummary,
	_ []pipeline.ChatMessage, contextChunks []string) (string, error) {
	question := strings.TrimSpace(message)
	if question == "" {
		return "Please ask a specific question about the current lecture summary.", nil
	}

	selected := pipeline.SelectTopChunks(question, contextChunks, 3)

	var knowledgePool []string
	knowledgePool = append(knowledgePool, summary.CoreConcepts...)
	knowledgePool = append(knowledgePool, summary.KeyDefinitions...)
	knowledgePool = append(knowledgePool, summary.ImportantExamples...)
	knowledgePool = append(knowledgePool, summary.ExamRevisionPoints...)

	questionTokens := make(map[string]struct{})
	for _, token := range pipeline.ContentTokens(question) {
		questionTokens[token] = struct{}{}
	}

	type scored struct {
		score int
		point string
	}
	var ranked []scored
	for _, point := range knowledgePool {
		seen := make(map[string]struct{})
		score := 0
		for _, token := range pipeline.ContentTokens(point) {
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			if _, ok := questionTokens[token]; ok {
				score++
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{score: score, point: point})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	bestPoints := make([]string, 0, 3)
	for _, item := range ranked {
		if len(bestPoints) >= 3 {
			break
		}
		bestPoints = append(bestPoints, item.point)
	}

	if len(bestPoints) == 0 && len(selected) == 0 {
		return notFoundAnswer, nil
	}

	lines := []string{"Answer grounded in current lecture notes:"}
	for _, point := range bestPoints {
		lines = append(lines, "- "+shorten(point, 170))
	}
	if len(selected) > 0 {
		lines = append(lines, "Supporting lecture context:")
		for i, chunk := range selected {
			if i >= 2 {
				break
			}
			lines = append(lines, "- "+shorten(chunk, 190))
		}
	}
	lines = append(lines, "If needed, ask for a short 5-mark exam answer format.")
	return strings.Join(lines, "\n"), nil
}

const mcqExplanation = "Correct option matches the grounded lecture statement, while distractors either shift context " +
	"or weaken technical accuracy."

const mcqFillerDistractor = "This statement is not directly supported by the lecture notes."

// GenerateMCQs implements ai.Provider. Each question anchors on one fact
// from the summary and retrieved context; the correct option's position
// rotates per question.
func (m *Model) GenerateMCQs(_ context.Context, summary pipeline.StructuredSummary,
	contextChunks []string) ([]pipeline.MCQItem, error) {
	var contextFacts []string
	for _, chunk := range contextChunks {
		sentences := pipeline.SplitSentences(chunk)
		if len(sentences) > 2 {
			sentences = sentences[:2]
		}
		contextFacts = append(contextFacts, sentences...)
	}

	var pool []string
	pool = append(pool, summary.CoreConcepts...)
	pool = append(pool, summary.KeyDefinitions...)
	pool = append(pool, summary.ImportantExamples...)
	pool = append(pool, summary.ExamRevisionPoints...)
	pool = append(pool, contextFacts...)
	pool = pipeline.DedupeStrings(pool)

	if len(pool) == 0 {
		pool = []string{"The lecture covers foundational concepts and their practical usage."}
	}

	mcqs := make([]pipeline.MCQItem, 0, 5)
	for index := 0; index < 5; index++ {
		fact := shorten(pool[index%len(pool)], 120)
		question := fmt.Sprintf(
			"Which option is most consistent with this lecture statement: %q?", fact)

		var distractors []string
		for _, candidate := range pool {
			option := shorten(candidate, 110)
			if strings.EqualFold(option, fact) {
				continue
			}
			distractors = append(distractors, option)
			if len(distractors) >= 3 {
				break
			}
		}
		for len(distractors) < 3 {
			distractors = append(distractors, mcqFillerDistractor)
		}

		options := []string{fact, distractors[0], distractors[1], distractors[2]}
		rotation := index % 4
		options = append(options[rotation:], options[:rotation]...)

		correctIndex := 0
		for i, option := range options {
			if option == fact {
				correctIndex = i
				break
			}
		}

		mcqs = append(mcqs, pipeline.MCQItem{
			Question:     question,
			Options:      options,
			CorrectIndex: correctIndex,
			Explanation:  mcqExplanation,
		})
	}
	return mcqs, nil
}
