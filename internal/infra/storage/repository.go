// Package storage defines the local job ledger. The ledger is bookkeeping,
// not the source of truth: the backend always wins on disagreement.
package storage

import (
	"context"
	"errors"

	"github.com/vietddude/jobctl/internal/core/domain"
)

var (
	// ErrJobNotFound is returned when a job is not in the ledger
	ErrJobNotFound = errors.New("job not found")
)

// JobRepository records installed jobs and their last-known state.
type JobRepository interface {
	// Save upserts a job record
	Save(ctx context.Context, rec *domain.JobRecord) error

	// Get retrieves a job record by ID
	Get(ctx context.Context, id domain.JobID) (*domain.JobRecord, error)

	// List retrieves all job records
	List(ctx context.Context) ([]*domain.JobRecord, error)

	// UpdateState updates the recorded lifecycle state
	UpdateState(ctx context.Context, id domain.JobID, state domain.JobState) error

	// Delete removes a job record
	Delete(ctx context.Context, id domain.JobID) error
}
