package ai

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGenerator routes prompts to canned responses by stage marker.
// The call log is mutex-guarded because chunk extraction runs concurrently.
type scriptedGenerator struct {
	respond func(prompt string) (string, error)

	mu    sync.Mutex
	calls []string
}

func (g *scriptedGenerator) Name() string { return "scripted" }

func (g *scriptedGenerator) Generate(_ context.Context, prompt string, _ float32) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, prompt)
	g.mu.Unlock()
	return g.respond(prompt)
}

const longLecture = `Thermodynamics is the study of energy and its transformations. ` +
	`The first law means energy is conserved in a closed system. ` +
	`Entropy refers to the measure of disorder in a system. ` +
	`For example, heat flows from a hot body to a cold body spontaneously. ` +
	`The Carnot cycle is a model of an ideal reversible heat engine. ` +
	`Consider a piston compressing gas, which raises its internal energy. ` +
	`Enthalpy is defined as internal energy plus pressure times volume. ` +
	`The second law means total entropy never decreases in an isolated system. ` +
	`Free energy refers to the energy available to do useful work at constant temperature. ` +
	`Suppose an ice cube melts in a warm room, showing spontaneous entropy increase. `

const chunkNoteJSON = `{"chunk_title": "thermo", "key_definitions": ["Entropy: disorder measure"],
 "core_concepts": ["Energy conservation"], "important_examples": ["Heat flow"],
 "revision_points": ["Define entropy"], "fact_statements": ["Energy is conserved"]}`

const reducedJSON = `{"topic_outline": ["thermo"], "key_definitions": ["Entropy: disorder measure"],
 "core_concepts": ["Energy conservation"], "important_examples": ["Heat flow"],
 "exam_revision_points": ["Define entropy"], "fact_bank": ["Energy is conserved"]}`

const finalJSON = `{"overview_paragraphs": ["p1", "p2", "p3"],
 "key_definitions": ["Entropy: disorder measure"], "core_concepts": ["Energy conservation"],
 "important_examples": ["Heat flow"], "exam_revision_points": ["Define entropy"]}`

func multiPassTranscript() string {
	return strings.Repeat(longLecture, 4)
}

func TestRunMultiPassHappyPath(t *testing.T) {
	g := &scriptedGenerator{respond: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "lecture chunk"):
			return chunkNoteJSON, nil
		case strings.Contains(prompt, "reduce stage"):
			return reducedJSON, nil
		case strings.Contains(prompt, "final synthesis stage"):
			return finalJSON, nil
		case strings.Contains(prompt, "Validate and improve"):
			return strings.Replace(finalJSON, `"p1"`, `"validated p1"`, 1), nil
		default:
			return "", errors.New("unexpected prompt")
		}
	}}

	result, err := RunMultiPass(context.Background(), g, multiPassTranscript(),
		MultiPassConfig{ChunkChars: 600, ChunkOverlap: 60, MaxChunks: 4, Concurrency: 2})
	require.NoError(t, err)
	assert.False(t, result.Degraded)

	summary := NormalizeSummary(result.Data)
	require.Len(t, summary.OverviewParagraphs, 3)
	assert.Equal(t, "validated p1", summary.OverviewParagraphs[0])
	assert.Equal(t, []string{"Entropy: disorder measure"}, summary.KeyDefinitions)
}

func TestRunMultiPassDegradesWhenAllChunksFail(t *testing.T) {
	g := &scriptedGenerator{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "lecture chunk") {
			return "sorry, I cannot produce JSON right now", nil
		}
		return finalJSON, nil
	}}

	result, err := RunMultiPass(context.Background(), g, multiPassTranscript(),
		MultiPassConfig{ChunkChars: 600, ChunkOverlap: 60, MaxChunks: 4, Concurrency: 2})
	require.NoError(t, err)
	assert.True(t, result.Degraded)

	summary := NormalizeSummary(result.Data)
	assert.Len(t, summary.OverviewParagraphs, 3)
}

func TestRunMultiPassPropagatesBackendFailure(t *testing.T) {
	backendDown := &RecoverableError{Provider: "scripted", Err: errors.New("connection refused")}
	g := &scriptedGenerator{respond: func(string) (string, error) {
		return "", backendDown
	}}

	_, err := RunMultiPass(context.Background(), g, multiPassTranscript(),
		MultiPassConfig{ChunkChars: 600, ChunkOverlap: 60, MaxChunks: 4, Concurrency: 2})
	require.Error(t, err)

	var recoverable *RecoverableError
	assert.ErrorAs(t, err, &recoverable)
}

func TestGenerateJSONRetriesOnceWithStricterPrompt(t *testing.T) {
	g := &scriptedGenerator{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Return JSON only. No markdown.") {
			return `{"ok": true}`, nil
		}
		return "definitely not json", nil
	}}

	value, err := GenerateJSON(context.Background(), g, "summarize this", 0.3)
	require.NoError(t, err)
	require.Len(t, g.calls, 2)
	object, ok := value.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, object, "ok")
}

func TestGenerateJSONParseErrorAfterRetry(t *testing.T) {
	g := &scriptedGenerator{respond: func(string) (string, error) {
		return "still not json", nil
	}}

	_, err := GenerateJSON(context.Background(), g, "summarize this", 0.3)
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
	assert.Len(t, g.calls, 2)
}
