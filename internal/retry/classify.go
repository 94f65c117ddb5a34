package retry

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/vietddude/jobctl/internal/infra/backend"
)

// Action determines how to handle an error.
type Action int

const (
	ActionRetry Action = iota
	ActionFatal
)

// fatalError marks an error as non-retryable regardless of classification.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal wraps err so the retry policy propagates it immediately instead of
// retrying. Use it inside an operation to abort on errors that retrying
// cannot fix.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// ClassifyError determines the action for a given error. Typed backend
// sentinels are checked first; string patterns cover errors from transports
// that do not wrap the sentinels.
func ClassifyError(err error) Action {
	if err == nil {
		return ActionRetry // Should not happen
	}

	var fatal *fatalError
	if errors.As(err, &fatal) {
		return ActionFatal
	}

	// A cancelled caller must not keep the loop alive.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ActionFatal
	}

	// Validation, missing resources, and state conflicts cannot resolve
	// themselves on retry. Operations that tolerate conflict/not-found fold
	// them into success before the error ever reaches this policy.
	if errors.Is(err, backend.ErrValidation) ||
		errors.Is(err, backend.ErrNotFound) ||
		errors.Is(err, backend.ErrConflict) {
		return ActionFatal
	}

	if errors.Is(err, backend.ErrUnavailable) || errors.Is(err, backend.ErrThrottled) {
		return ActionRetry
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ActionRetry
	}

	s := strings.ToLower(err.Error())

	// Fatal (request issues)
	if strings.Contains(s, "400") || strings.Contains(s, "bad request") ||
		strings.Contains(s, "invalid") || strings.Contains(s, "unsupported") {
		return ActionFatal
	}

	// Transient (availability issues)
	if strings.Contains(s, "429") || strings.Contains(s, "too many requests") ||
		strings.Contains(s, "503") || strings.Contains(s, "unavailable") ||
		strings.Contains(s, "timeout") || strings.Contains(s, "timed out") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "rate limit") {
		return ActionRetry
	}

	// Default to retry (network, 5xx, etc)
	return ActionRetry
}
