// Package observability holds the slog setup and lightweight in-process
// counters for the generation pipeline.
package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger: JSON output in prod, human-readable
// text with debug level everywhere else.
func NewLogger(mode string) *slog.Logger {
	if mode == "prod" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}
