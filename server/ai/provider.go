// Package ai holds the provider-agnostic generation layer: the capability
// contract implemented by every model backend, the JSON-extraction
// convention for loosely-typed model output, the multi-pass summarization
// protocol, and the fallback orchestrator that walks the tier chain.
package ai

import (
	"context"

	"github.com/studysense/studysense/server/pipeline"
)

// SolveRequest carries one solver-chat turn. ImageBytes is optional; when
// set, ImageMIMEType must name a supported image type.
type SolveRequest struct {
	Message       string
	History       []pipeline.ChatMessage
	ImageBytes    []byte
	ImageMIMEType string
}

// HasImage reports whether the request carries an image attachment.
func (r SolveRequest) HasImage() bool {
	return len(r.ImageBytes) > 0 && r.ImageMIMEType != ""
}

// Provider is the capability contract shared by every generation tier.
// Each call either returns a fully validated result or an error; adapters
// are stateless and never hold references to arguments across calls.
type Provider interface {
	// Name identifies the tier in logs.
	Name() string

	// Summarize turns a transcript into a validated StructuredSummary.
	Summarize(ctx context.Context, transcript string) (pipeline.StructuredSummary, error)

	// Chat answers a question grounded in the summary, recent history and
	// retrieved context chunks.
	Chat(ctx context.Context, message string, summary pipeline.StructuredSummary,
		history []pipeline.ChatMessage, contextChunks []string) (string, error)

	// GenerateMCQs produces exactly 5 multiple-choice questions.
	GenerateMCQs(ctx context.Context, summary pipeline.StructuredSummary,
		contextChunks []string) ([]pipeline.MCQItem, error)

	// SolveOrChat handles the free-form solver conversation, optionally
	// grounded in an attached image.
	SolveOrChat(ctx context.Context, req SolveRequest) (string, error)
}

// HistoryWindow is the number of trailing chat messages used as prompt
// context per turn.
const HistoryWindow = 10

// TrimHistory returns at most the last HistoryWindow messages.
func TrimHistory(history []pipeline.ChatMessage) []pipeline.ChatMessage {
	if len(history) <= HistoryWindow {
		return history
	}
	return history[len(history)-HistoryWindow:]
}
