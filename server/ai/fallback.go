package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/studysense/studysense/internal/observability"
	"github.com/studysense/studysense/server/pipeline"
)

// Run walks an ordered chain of escalating-availability callables and
// returns the first success. A ClientInputError from any tier propagates
// immediately: caller mistakes must not be masked by a degraded offline
// answer. Every other error falls through to the next tier. An error
// from the final tier is returned wrapped; with the offline model as the
// terminal tier that path indicates a programming error.
func Run[T any](logger *slog.Logger, operation string, calls ...func() (T, error)) (T, error) {
	if logger == nil {
		logger = slog.Default()
	}

	metrics := observability.GlobalMetrics()
	metrics.RecordRequest(operation)
	start := time.Now()
	defer func() { metrics.RecordDuration(operation, time.Since(start)) }()

	var zero T
	var lastErr error
	for index, call := range calls {
		if call == nil {
			continue
		}
		result, err := call()
		if err == nil {
			if index > 0 {
				metrics.RecordFallback(operation)
			}
			return result, nil
		}
		if IsClientInputError(err) {
			return zero, err
		}
		lastErr = err
		if index < len(calls)-1 {
			logger.Warn("generation tier failed, falling back",
				"operation", operation, "tier", index, "error", err)
		}
	}
	metrics.RecordFailure(operation)
	if lastErr == nil {
		return zero, errors.Errorf("%s: no generation tier available", operation)
	}
	return zero, errors.Wrapf(lastErr, "%s: all generation tiers failed", operation)
}

// Orchestrator owns the three-tier fallback chain: cloud model, then
// local-network model, then the offline heuristic model which by
// construction cannot fail. Tiers may be nil (unconfigured) except the
// terminal one.
type Orchestrator struct {
	primary   Provider // cloud, may be nil
	secondary Provider // local network, may be nil
	tertiary  Provider // offline, required
	logger    *slog.Logger
}

// NewOrchestrator builds the fallback chain. The tertiary provider is the
// availability guarantee and must be non-nil.
func NewOrchestrator(primary, secondary, tertiary Provider, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		primary:   primary,
		secondary: secondary,
		tertiary:  tertiary,
		logger:    logger,
	}
}

func calls[T any](o *Orchestrator, fn func(Provider) (T, error)) []func() (T, error) {
	output := make([]func() (T, error), 0, 3)
	for _, provider := range []Provider{o.primary, o.secondary, o.tertiary} {
		if provider == nil {
			continue
		}
		provider := provider
		output = append(output, func() (T, error) { return fn(provider) })
	}
	return output
}

// Summarize runs the summarize capability down the tier chain.
func (o *Orchestrator) Summarize(ctx context.Context, transcript string) (pipeline.StructuredSummary, error) {
	return Run(o.logger, "summarize", calls(o, func(p Provider) (pipeline.StructuredSummary, error) {
		return p.Summarize(ctx, transcript)
	})...)
}

// Chat runs the grounded chat capability down the tier chain.
func (o *Orchestrator) Chat(ctx context.Context, message string, summary pipeline.StructuredSummary,
	history []pipeline.ChatMessage, contextChunks []string) (string, error) {
	return Run(o.logger, "chat", calls(o, func(p Provider) (string, error) {
		return p.Chat(ctx, message, summary, history, contextChunks)
	})...)
}

// GenerateMCQs runs the MCQ capability down the tier chain.
func (o *Orchestrator) GenerateMCQs(ctx context.Context, summary pipeline.StructuredSummary,
	contextChunks []string) ([]pipeline.MCQItem, error) {
	return Run(o.logger, "mcq", calls(o, func(p Provider) ([]pipeline.MCQItem, error) {
		return p.GenerateMCQs(ctx, summary, contextChunks)
	})...)
}

// SolveOrChat runs the solver capability down the tier chain.
func (o *Orchestrator) SolveOrChat(ctx context.Context, req SolveRequest) (string, error) {
	return Run(o.logger, "solver_chat", calls(o, func(p Provider) (string, error) {
		return p.SolveOrChat(ctx, req)
	})...)
}
