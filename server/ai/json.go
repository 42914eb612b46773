package ai

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/studysense/studysense/server/pipeline"
)

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\}|\\[.*?\\])\\s*```")

// ExtractJSON pulls the JSON payload out of a model response. Fenced code
// blocks are tried first; otherwise the first balanced object or array
// found by a string-escape-aware brace scan is decoded. The result is a
// map for objects or a []any for arrays.
func ExtractJSON(text string) (any, error) {
	candidate := text
	if match := fencedJSONRe.FindStringSubmatch(text); match != nil {
		candidate = match[1]
	}

	if value, err := decodeAny(candidate); err == nil {
		return value, nil
	}

	for _, open := range []byte{'{', '['} {
		if payload := scanBalanced(candidate, open); payload != "" {
			if value, err := decodeAny(payload); err == nil {
				return value, nil
			}
		}
	}
	return nil, errors.New("no JSON payload found in model response")
}

func decodeAny(payload string) (any, error) {
	decoder := json.NewDecoder(strings.NewReader(strings.TrimSpace(payload)))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	switch value.(type) {
	case map[string]any, []any:
		return value, nil
	default:
		return nil, errors.New("payload is not a JSON object or array")
	}
}

// scanBalanced returns the first balanced {...} or [...] region, tracking
// string literals and escapes so braces inside strings do not count.
func scanBalanced(text string, open byte) string {
	close := byte('}')
	if open == '[' {
		close = ']'
	}

	start := strings.IndexByte(text, open)
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// cleanPoints coerces a loosely-typed field into a list of trimmed
// strings. Lists keep non-empty string entries; a single string is split
// on newlines with leading bullet dashes stripped.
func cleanPoints(value any) []string {
	switch v := value.(type) {
	case []any:
		var output []string
		for _, item := range v {
			if s := strings.TrimSpace(stringify(item)); s != "" {
				output = append(output, s)
			}
		}
		return output
	case string:
		var output []string
		for _, line := range strings.Split(v, "\n") {
			if s := strings.Trim(strings.TrimSpace(line), " -"); s != "" {
				output = append(output, s)
			}
		}
		return output
	default:
		return nil
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

// NormalizeSummary coerces an untyped model response into the fixed
// StructuredSummary shape. Alternate key spellings for the overview field
// are accepted; unvalidated shape never propagates past this point.
func NormalizeSummary(data map[string]any) pipeline.StructuredSummary {
	var overview any
	for _, key := range []string{
		"overview_paragraphs", "three_paragraph_summary", "summary_paragraphs", "lecture_overview",
	} {
		if value, ok := data[key]; ok && value != nil {
			overview = value
			break
		}
	}

	paragraphs := cleanPoints(overview)
	if len(paragraphs) > 3 {
		paragraphs = paragraphs[:3]
	}

	return pipeline.StructuredSummary{
		OverviewParagraphs: paragraphs,
		KeyDefinitions:     cleanPoints(data["key_definitions"]),
		CoreConcepts:       cleanPoints(data["core_concepts"]),
		ImportantExamples:  cleanPoints(data["important_examples"]),
		ExamRevisionPoints: cleanPoints(data["exam_revision_points"]),
	}
}

// mcqFillerOptions pad generations that came back with fewer than 4
// options.
var mcqFillerOptions = []string{
	"Insufficient option generated",
	"None of the above",
	"Cannot be inferred",
	"Requires more context",
}

// NormalizeMCQItem coerces one untyped MCQ entry into a valid MCQItem:
// exactly 4 options (padded when short) and CorrectIndex clamped to
// [0,3]. Letter answers ("A".."D") are accepted.
func NormalizeMCQItem(item map[string]any) pipeline.MCQItem {
	var options []string
	for _, opt := range cleanPoints(item["options"]) {
		options = append(options, opt)
		if len(options) == 4 {
			break
		}
	}
	for len(options) < 4 {
		options = append(options, mcqFillerOptions[len(options)])
	}

	correct := 0
	switch v := item["correct_index"].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			correct = int(n)
		}
	case string:
		letter := strings.ToUpper(strings.TrimSpace(v))
		if idx := strings.Index("ABCD", letter); idx >= 0 && len(letter) == 1 {
			correct = idx
		} else if n, err := strconv.Atoi(letter); err == nil {
			correct = n
		}
	case float64:
		correct = int(v)
	}
	correct = max(0, min(correct, 3))

	question := strings.TrimSpace(stringify(item["question"]))
	if question == "" {
		question = "Question unavailable"
	}
	explanation := strings.TrimSpace(stringify(item["explanation"]))
	if explanation == "" {
		explanation = "No explanation provided."
	}

	return pipeline.MCQItem{
		Question:     question,
		Options:      options,
		CorrectIndex: correct,
		Explanation:  explanation,
	}
}
