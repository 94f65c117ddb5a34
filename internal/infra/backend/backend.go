// Package backend defines the job backend client consumed by the lifecycle
// controller, plus an HTTP implementation for transform-style REST APIs.
package backend

import (
	"context"
	"errors"

	"github.com/vietddude/jobctl/internal/core/domain"
)

var (
	// ErrNotFound is returned when the job does not exist in the backend.
	ErrNotFound = errors.New("backend: job not found")
	// ErrConflict is returned when the job already exists or is already
	// in the requested state.
	ErrConflict = errors.New("backend: conflict")
	// ErrValidation is returned when the backend rejects the request as
	// malformed. Never retryable.
	ErrValidation = errors.New("backend: validation failed")
	// ErrUnavailable is returned on 5xx-class failures. Retryable.
	ErrUnavailable = errors.New("backend: unavailable")
	// ErrThrottled is returned when the backend rate-limits the caller.
	// Retryable.
	ErrThrottled = errors.New("backend: throttled")
)

// StopOptions controls how a job is stopped.
type StopOptions struct {
	// WaitForCompletion blocks the call until the backend reports the job
	// fully stopped instead of returning as soon as the stop is accepted.
	WaitForCompletion bool
	Force             bool
}

// DeleteOptions controls how a job is removed.
type DeleteOptions struct {
	Force bool
}

// PreviewResult holds the documents a dry run of the job would produce.
type PreviewResult struct {
	Documents []map[string]any `json:"preview"`
}

// Client is the transform-style job API the controller drives. Conflict and
// not-found outcomes surface as ErrConflict / ErrNotFound; folding them into
// success where the operation's intent makes them acceptable is the
// controller's job, not the client's.
type Client interface {
	// Put creates or replaces the job spec.
	Put(ctx context.Context, id domain.JobID, spec domain.JobSpec) error

	// Preview executes a dry run of the installed job without side effects.
	Preview(ctx context.Context, id domain.JobID) (*PreviewResult, error)

	// Start transitions the job to running.
	Start(ctx context.Context, id domain.JobID) error

	// Stop transitions the job to stopped.
	Stop(ctx context.Context, id domain.JobID, opts StopOptions) error

	// Delete removes the job permanently.
	Delete(ctx context.Context, id domain.JobID, opts DeleteOptions) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
