package ai

import (
	"fmt"

	"github.com/pkg/errors"
)

// ClientInputError marks a malformed request. It is never retried on
// another tier; the orchestrator propagates it to the caller unchanged.
type ClientInputError struct {
	Message string
}

func (e *ClientInputError) Error() string {
	return e.Message
}

// NewClientInputError builds a ClientInputError with a formatted message.
func NewClientInputError(format string, args ...any) error {
	return &ClientInputError{Message: fmt.Sprintf(format, args...)}
}

// RecoverableError marks a backend failure expected to be resolved by a
// different tier: quota, auth, rate-limit, server-side errors, timeouts.
type RecoverableError struct {
	Provider string
	Err      error
}

func (e *RecoverableError) Error() string {
	return fmt.Sprintf("%s: recoverable backend failure: %v", e.Provider, e.Err)
}

func (e *RecoverableError) Unwrap() error {
	return e.Err
}

// ParseError marks model output that could not be coerced into the
// expected JSON shape even after the stricter-prompt retry. For fallback
// purposes it counts as a backend failure.
type ParseError struct {
	Provider string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: unparseable model response: %v", e.Provider, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsClientInputError reports whether err is a caller mistake that must
// propagate immediately instead of triggering fallback.
func IsClientInputError(err error) bool {
	var cie *ClientInputError
	return errors.As(err, &cie)
}
