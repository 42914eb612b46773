package pipeline

import (
	"sort"
	"strings"
)

// Length penalty discourages selecting oversized chunks purely because
// they contain many terms.
const (
	lengthPenaltyRate  = 0.00015
	lengthPenaltyStart = 1100
)

// SelectTopChunks ranks chunks against the query by clipped term-frequency
// overlap and returns up to topK of them, best first. Chunks scoring zero
// or below are excluded. When the query has no meaningful tokens, or no
// chunk scores positively, the first topK chunks are returned in original
// order so callers always get some context. Ties keep original order.
func SelectTopChunks(query string, chunks []string, topK int) []string {
	if len(chunks) == 0 {
		return nil
	}

	queryCounts := TokenCounts(query)
	if len(queryCounts) == 0 {
		return firstN(chunks, topK)
	}

	type scored struct {
		score float64
		chunk string
	}
	var ranked []scored

	for _, chunk := range chunks {
		chunkCounts := TokenCounts(chunk)
		if len(chunkCounts) == 0 {
			continue
		}
		lexical := 0
		for token, qn := range queryCounts {
			if cn, ok := chunkCounts[token]; ok {
				lexical += min(qn, cn)
			}
		}
		score := float64(lexical) - lengthPenaltyRate*float64(max(0, len(chunk)-lengthPenaltyStart))
		if score > 0 {
			ranked = append(ranked, scored{score: score, chunk: chunk})
		}
	}

	if len(ranked) == 0 {
		return firstN(chunks, topK)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	output := make([]string, 0, min(topK, len(ranked)))
	for _, item := range ranked {
		if len(output) >= topK {
			break
		}
		output = append(output, item.chunk)
	}
	return output
}

// BuildSummaryQuery seeds a retrieval query from the most salient summary
// items, used to ground MCQ generation.
func BuildSummaryQuery(summary StructuredSummary) string {
	seeds := make([]string, 0, 10)
	seeds = append(seeds, firstN(summary.CoreConcepts, 4)...)
	seeds = append(seeds, firstN(summary.ExamRevisionPoints, 3)...)
	seeds = append(seeds, firstN(summary.KeyDefinitions, 3)...)
	return strings.TrimSpace(strings.Join(seeds, " "))
}

func firstN(items []string, n int) []string {
	if n < 0 {
		n = 0
	}
	if len(items) <= n {
		return items
	}
	return items[:n]
}
