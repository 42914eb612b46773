package ai

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/studysense/studysense/server/pipeline"
)

// Generator is the minimal text-generation surface the multi-pass
// protocol needs from a backend. Both network adapters implement it.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
}

// MultiPassConfig bounds the chunking stage of one protocol run.
type MultiPassConfig struct {
	ChunkChars   int
	ChunkOverlap int
	MaxChunks    int
	// Concurrency caps parallel per-chunk extraction requests.
	Concurrency int
}

// MultiPassResult carries the raw consolidated summary data. Degraded is
// set when every per-chunk extraction failed and the protocol silently
// collapsed to a single-shot call; the summary is still usable, the flag
// only makes the degradation observable.
type MultiPassResult struct {
	Data     map[string]any
	Degraded bool
}

// GenerateJSON runs one prompt and extracts its JSON payload. A response
// that fails to parse triggers exactly one same-tier retry with a
// stricter instruction at slightly lower randomness; a second failure is
// a ParseError.
func GenerateJSON(ctx context.Context, g Generator, prompt string, temperature float32) (any, error) {
	text, err := g.Generate(ctx, prompt, temperature)
	if err != nil {
		return nil, err
	}
	if value, err := ExtractJSON(text); err == nil {
		return value, nil
	}

	retryTemp := temperature - 0.1
	if retryTemp < 0.1 {
		retryTemp = 0.1
	}
	text, err = g.Generate(ctx, prompt+"\n\nReturn JSON only. No markdown.", retryTemp)
	if err != nil {
		return nil, err
	}
	value, err := ExtractJSON(text)
	if err != nil {
		return nil, &ParseError{Provider: g.Name(), Err: err}
	}
	return value, nil
}

// generateObject is GenerateJSON constrained to a JSON object.
func generateObject(ctx context.Context, g Generator, prompt string, temperature float32) (map[string]any, error) {
	value, err := GenerateJSON(ctx, g, prompt, temperature)
	if err != nil {
		return nil, err
	}
	object, ok := value.(map[string]any)
	if !ok {
		return nil, nil
	}
	return object, nil
}

// RunMultiPass drives the chunked map-reduce summarization protocol:
// CHUNKED -> PER-CHUNK-EXTRACT -> REDUCE -> SYNTHESIZE -> VALIDATE.
// Chunks whose note fails to parse are dropped; when all of them fail the
// protocol falls back to a single-shot summarize call and flags the
// result as degraded. A reduce/synthesize/validate stage returning the
// wrong shape carries the prior stage's result forward instead of
// aborting.
func RunMultiPass(ctx context.Context, g Generator, transcript string, cfg MultiPassConfig) (MultiPassResult, error) {
	cleaned := pipeline.CleanTranscript(transcript)
	chunks := pipeline.SplitChunks(cleaned, cfg.ChunkChars, cfg.ChunkOverlap, cfg.MaxChunks)

	if len(chunks) == 0 {
		// Very short transcript: collapse to a single-shot call.
		data, err := generateObject(ctx, g, BuildSummaryPrompt(cleaned), 0.2)
		if err != nil {
			return MultiPassResult{}, err
		}
		return MultiPassResult{Data: data}, nil
	}

	chunkNotes := extractChunkNotes(ctx, g, chunks, cfg.Concurrency)
	if len(chunkNotes) == 0 {
		slog.Warn("all chunk extractions failed, degrading to single-shot summary",
			"provider", g.Name(), "chunks", len(chunks))
		data, err := generateObject(ctx, g, BuildSummaryPrompt(cleaned), 0.2)
		if err != nil {
			return MultiPassResult{Degraded: true}, err
		}
		return MultiPassResult{Data: data, Degraded: true}, nil
	}

	reduced, err := generateObject(ctx, g, BuildReducePrompt(chunkNotes), 0.2)
	if err != nil {
		return MultiPassResult{}, err
	}
	if reduced == nil {
		reduced = map[string]any{
			"key_definitions":      []any{},
			"core_concepts":        []any{},
			"important_examples":   []any{},
			"exam_revision_points": []any{},
			"fact_bank":            []any{},
		}
	}

	candidate, err := generateObject(ctx, g, BuildSynthesisPrompt(reduced, cleaned), 0.2)
	if err != nil {
		return MultiPassResult{}, err
	}
	if candidate == nil {
		candidate = reduced
	}

	validated, err := generateObject(ctx, g, BuildValidationPrompt(candidate, reduced), 0.1)
	if err != nil {
		return MultiPassResult{}, err
	}
	if validated == nil {
		validated = candidate
	}

	return MultiPassResult{Data: validated}, nil
}

// extractChunkNotes runs the map stage with bounded concurrency. Failures
// are intentionally lossy: a chunk whose request or parse fails
// contributes nothing. Order of surviving notes follows chunk order.
func extractChunkNotes(ctx context.Context, g Generator, chunks []string, concurrency int) []map[string]any {
	if concurrency <= 0 {
		concurrency = 4
	}

	notes := make([]map[string]any, len(chunks))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for index, chunk := range chunks {
		index, chunk := index, chunk
		group.Go(func() error {
			prompt := BuildChunkPrompt(chunk, index+1, len(chunks))
			data, err := generateObject(groupCtx, g, prompt, 0.2)
			if err != nil || data == nil {
				if err != nil {
					slog.Debug("chunk extraction dropped",
						"provider", g.Name(), "chunk", index+1, "error", err)
				}
				return nil
			}
			mu.Lock()
			notes[index] = data
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	surviving := make([]map[string]any, 0, len(notes))
	for _, note := range notes {
		if note != nil {
			surviving = append(surviving, note)
		}
	}
	return surviving
}
