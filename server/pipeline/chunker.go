package pipeline

import (
	"regexp"
	"strings"
)

// Default chunking parameters for building retrieval chunks from a
// normalized transcript.
const (
	RetrievalChunkChars   = 1400
	RetrievalChunkOverlap = 120
	RetrievalChunkMax     = 24
)

var paragraphSplitRe = regexp.MustCompile(`\n{2,}`)

// SplitChunks cleans the text and splits it into ordered, overlapping,
// size-bounded chunks. Paragraph boundaries are preferred; when the text
// has no blank-line paragraphs it falls back to sentence boundaries. A
// single paragraph longer than maxChars is hard-sliced. The last
// overlapChars characters of each emitted chunk seed the next one so
// downstream prose keeps continuity across boundaries. At most maxChunks
// chunks are returned and none of them is empty.
func SplitChunks(text string, maxChars, overlapChars, maxChunks int) []string {
	cleaned := CleanTranscript(text)
	if cleaned == "" {
		return nil
	}

	var paragraphs []string
	for _, part := range paragraphSplitRe.Split(cleaned, -1) {
		if part = strings.TrimSpace(part); part != "" {
			paragraphs = append(paragraphs, part)
		}
	}
	if len(paragraphs) == 0 {
		paragraphs = SplitSentences(cleaned)
	}

	var chunks []string
	current := ""

	for _, part := range paragraphs {
		candidate := part
		if current != "" {
			candidate = strings.TrimSpace(current + "\n" + part)
		}
		if len(candidate) <= maxChars {
			current = candidate
			continue
		}

		if current != "" {
			chunks = append(chunks, strings.TrimSpace(current))
			if len(chunks) >= maxChunks {
				current = ""
				break
			}
			overlap := ""
			if overlapChars > 0 && len(current) > overlapChars {
				overlap = current[len(current)-overlapChars:]
			} else if overlapChars > 0 {
				overlap = current
			}
			current = strings.TrimSpace(overlap + "\n" + part)
			continue
		}

		// A single paragraph beyond maxChars: hard-slice it. The overlap
		// is clamped so an overlap wider than the chunk cannot slice out
		// of range.
		chunks = append(chunks, strings.TrimSpace(part[:maxChars]))
		if len(chunks) >= maxChunks {
			break
		}
		overlap := min(max(overlapChars, 0), maxChars)
		current = strings.TrimSpace(part[maxChars-overlap:])
	}

	if current != "" && len(chunks) < maxChunks {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	output := chunks[:0]
	for _, chunk := range chunks {
		if chunk != "" {
			output = append(output, chunk)
		}
	}
	return output
}

// RetrievalChunks builds the standard retrieval chunk set used to ground
// chat and MCQ generation.
func RetrievalChunks(transcript string) []string {
	return SplitChunks(transcript, RetrievalChunkChars, RetrievalChunkOverlap, RetrievalChunkMax)
}
