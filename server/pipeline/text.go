package pipeline

import (
	"regexp"
	"strings"
)

// MaxTranscriptChars caps the normalized transcript length. Anything
// beyond is dropped and marked with a visible truncation suffix.
const MaxTranscriptChars = 120000

// TruncationMarker is appended when a transcript exceeds MaxTranscriptChars.
const TruncationMarker = " [Transcript truncated]"

// stopwords are excluded from every lexical score in the pipeline.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "an", "and", "are", "as", "at", "be", "been", "being", "by",
		"for", "from", "has", "have", "in", "into", "is", "it", "its", "of",
		"on", "or", "that", "the", "their", "there", "this", "to", "was",
		"were", "with", "you", "your", "we", "they", "them", "our", "can",
		"could", "would", "should", "may", "might", "not", "than", "then",
		"also", "about", "such", "using", "used", "use", "what", "when",
		"where", "which", "who", "why", "how", "if", "while", "during",
		"before", "after", "over", "under",
	} {
		stopwords[w] = struct{}{}
	}
}

// IsStopword reports whether the lowercase token is in the fixed stopword set.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

var (
	timestampRe    = regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\b`)
	bracketRe      = regexp.MustCompile(`\[[^\]]{1,40}\]`)
	parenRe        = regexp.MustCompile(`\([^\)]{1,40}\)`)
	speakerLabelRe = regexp.MustCompile(`(?m)^[A-Z][A-Z\s]{2,20}:\s*`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	sentenceEndRe  = regexp.MustCompile(`([.!?])\s+`)
	wordTokenRe    = regexp.MustCompile(`[A-Za-z][A-Za-z0-9'-]{2,}`)
)

// CleanTranscript strips timestamp tokens, short bracketed and
// parenthetical asides, and SPEAKER: label prefixes, then collapses
// whitespace. Output beyond MaxTranscriptChars is truncated with a
// visible marker.
func CleanTranscript(text string) string {
	value := strings.TrimSpace(text)
	if value == "" {
		return ""
	}

	value = timestampRe.ReplaceAllString(value, " ")
	value = bracketRe.ReplaceAllString(value, " ")
	value = parenRe.ReplaceAllString(value, " ")
	value = speakerLabelRe.ReplaceAllString(value, "")
	value = strings.TrimSpace(whitespaceRe.ReplaceAllString(value, " "))

	if len(value) > MaxTranscriptChars {
		value = value[:MaxTranscriptChars] + TruncationMarker
	}
	return value
}

// SplitSentences splits text on sentence-ending punctuation or newlines
// and keeps only sentences of 18 characters or more. Terminal punctuation
// stays attached to its sentence.
func SplitSentences(text string) []string {
	// Mark sentence boundaries first so the punctuation survives the split.
	marked := sentenceEndRe.ReplaceAllString(text, "$1\x1f")
	parts := strings.FieldsFunc(marked, func(r rune) bool {
		return r == '\x1f' || r == '\n' || r == '\r'
	})

	var output []string
	for _, part := range parts {
		item := strings.TrimSpace(whitespaceRe.ReplaceAllString(part, " "))
		if len(item) < 18 {
			continue
		}
		output = append(output, item)
	}
	return output
}

// Tokenize lowercases text and extracts word tokens of length >= 3.
// Stopwords are not removed here; callers filter with IsStopword.
func Tokenize(text string) []string {
	return wordTokenRe.FindAllString(strings.ToLower(text), -1)
}

// ContentTokens tokenizes text and drops stopwords.
func ContentTokens(text string) []string {
	tokens := Tokenize(text)
	output := tokens[:0]
	for _, token := range tokens {
		if !IsStopword(token) {
			output = append(output, token)
		}
	}
	return output
}

// TokenCounts builds a frequency table of non-stopword tokens.
func TokenCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, token := range ContentTokens(text) {
		counts[token]++
	}
	return counts
}

// DedupeStrings normalizes whitespace and removes case-insensitive
// duplicates while preserving first-seen order.
func DedupeStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var output []string
	for _, item := range items {
		value := strings.TrimSpace(whitespaceRe.ReplaceAllString(item, " "))
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		output = append(output, value)
	}
	return output
}

// Shorten collapses whitespace and truncates to maxChars at a word
// boundary, appending an ellipsis when anything was cut.
func Shorten(text string, maxChars int) string {
	value := strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	if len(value) <= maxChars {
		return value
	}
	cut := value[:maxChars]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
