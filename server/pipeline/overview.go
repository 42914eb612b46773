package pipeline

import (
	"fmt"
	"sort"
	"strings"
)

// maxParagraphChars bounds each overview paragraph.
const maxParagraphChars = 620

// Fixed connective closings, one per paragraph role.
const (
	introClosing = " Together, these points establish the lecture's foundational ideas and clarify the conceptual " +
		"baseline for further study."
	developmentClosing = " This section also clarifies how methods, assumptions, and interpretation steps interact in practice, " +
		"which is critical for accurate exam responses."
	revisionClosing = " For revision, prioritize definition clarity, method explanation, and application-focused reasoning so " +
		"answers remain factual, structured, and exam-ready."
)

// BuildOverview produces exactly three overview paragraphs from the source
// text and a concept list. Sentences are ranked by corpus-wide token
// frequency, partitioned into positional pools (intro, development,
// evidence), and greedily picked without cross-paragraph duplicates. When
// the source yields no usable sentences the paragraphs are synthesized
// from templates seeded with concepts.
func BuildOverview(sourceText string, concepts []string) []string {
	sentences := DedupeStrings(SplitSentences(sourceText))
	conceptsClean := DedupeStrings(concepts)

	if len(sentences) == 0 {
		return templateOverview(conceptsClean)
	}

	tokenCounts := TokenCounts(sourceText)
	score := func(sentence string) int {
		total := 0
		seen := make(map[string]struct{})
		for _, token := range ContentTokens(sentence) {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			total += tokenCounts[token]
		}
		return total
	}

	ranked := make([]string, len(sentences))
	copy(ranked, sentences)
	sort.SliceStable(ranked, func(i, j int) bool {
		return score(ranked[i]) > score(ranked[j])
	})
	top := DedupeStrings(ranked)
	if len(top) > 15 {
		top = top[:15]
	}

	introPool := poolSlice(top, 0, 6)
	developmentPool := poolSlice(top, 3, 12)
	evidencePool := poolSlice(top, 8, 15)
	if len(top) <= 8 {
		evidencePool = poolSlice(top, 4, len(top))
	}

	used := make(map[string]struct{})
	para1 := pickUnique(introPool, used, 3)
	para2 := pickUnique(developmentPool, used, 3)
	para3 := pickUnique(evidencePool, used, 2)

	if len(para2) < 2 {
		para2 = append(para2, pickUnique(top, used, 2-len(para2))...)
	}
	if len(para3) < 2 {
		para3 = append(para3, pickUnique(top, used, 2-len(para3))...)
	}

	paragraphs := make([]string, 0, 3)
	for _, p := range []struct {
		sentences []string
		closing   string
	}{
		{para1, introClosing},
		{para2, developmentClosing},
		{para3, revisionClosing},
	} {
		body := strings.TrimSpace(strings.Join(p.sentences, " "))
		if body == "" {
			continue
		}
		paragraphs = append(paragraphs, Shorten(body+p.closing, maxParagraphChars))
	}
	paragraphs = DedupeStrings(paragraphs)

	for len(paragraphs) < 3 {
		index := len(paragraphs) + 1
		concept := "core lecture ideas"
		if len(conceptsClean) >= index {
			concept = conceptsClean[index-1]
		}
		paragraphs = append(paragraphs, Shorten(fmt.Sprintf(
			"The lecture can be revised effectively by linking theory to example-driven explanation. "+
				"Paragraph %d focus: %s.", index, concept), maxParagraphChars))
	}

	return paragraphs[:3]
}

// templateOverview covers sources with no extractable sentences.
func templateOverview(concepts []string) []string {
	seed := concepts
	if len(seed) > 4 {
		seed = seed[:4]
	}
	if len(seed) == 0 {
		seed = []string{"this lecture presents core academic ideas and applications"}
	}
	second, third := seed[0], seed[0]
	if len(seed) > 1 {
		second = seed[1]
	}
	if len(seed) > 2 {
		third = seed[2]
	}

	return []string{
		fmt.Sprintf("This lecture introduces the topic framework and sets foundational context for understanding the "+
			"subject scope, with early emphasis on %s.", seed[0]),
		fmt.Sprintf("The middle portion expands the theory through method-level reasoning and conceptual links, "+
			"especially around %s and related principles.", second),
		fmt.Sprintf("For exam preparation, connect definitions, reasoning steps, and applications into a coherent "+
			"answer structure, focusing on %s.", third),
	}
}

func poolSlice(items []string, from, to int) []string {
	if from > len(items) {
		from = len(items)
	}
	if to > len(items) {
		to = len(items)
	}
	return items[from:to]
}

func pickUnique(pool []string, used map[string]struct{}, target int) []string {
	var picked []string
	for _, sentence := range pool {
		if len(picked) >= target {
			break
		}
		key := strings.ToLower(sentence)
		if _, ok := used[key]; ok {
			continue
		}
		used[key] = struct{}{}
		picked = append(picked, sentence)
	}
	return picked
}
