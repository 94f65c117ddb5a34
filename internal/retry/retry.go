// Package retry wraps arbitrary fallible operations in a bounded
// exponential-backoff retry loop with transient/fatal error classification.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/jobctl/internal/backoff"
	"github.com/vietddude/jobctl/internal/metrics"
)

// Config defines retry behavior for one operation.
type Config struct {
	MaxRetries int              // retries after the initial attempt
	BaseDelay  time.Duration    // first retry delay; doubles each attempt
	Backoff    backoff.Strategy // optional; overrides the derived exponential
	Logger     *slog.Logger     // optional; slog.Default() when nil
	Operation  string           // optional; labels the retry metric
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
}

// ExhaustedError is returned when every attempt failed transiently. It wraps
// the last error so callers can distinguish "gave up retrying" from "fatal,
// never retried" via errors.As.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Do executes op, retrying transient failures up to cfg.MaxRetries times.
// Fatal errors propagate immediately; exhausting all attempts returns an
// *ExhaustedError wrapping the last transient error.
func Do(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	_, err := DoValue(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// DoValue is Do for operations that produce a result.
func DoValue[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	strategy := cfg.Backoff
	if strategy == nil {
		strategy = backoff.Default(cfg.BaseDelay)
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if ClassifyError(err) == ActionFatal {
			return zero, err // Stop immediately, do not retry
		}

		if attempt == cfg.MaxRetries {
			break
		}

		delay := strategy.Delay(attempt)
		metrics.RetriesTotal.WithLabelValues(cfg.Operation).Inc()
		log.Warn("Transient failure, retrying",
			"attempt", attempt+1,
			"max_retries", cfg.MaxRetries,
			"delay", delay,
			"error", err)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, &ExhaustedError{Attempts: cfg.MaxRetries + 1, Err: lastErr}
}
