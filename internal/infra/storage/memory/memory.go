// Package memory provides an in-memory job ledger for tests and for running
// without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/jobctl/internal/core/domain"
	"github.com/vietddude/jobctl/internal/infra/storage"
)

// JobRepo implements storage.JobRepository in memory.
type JobRepo struct {
	mu   sync.RWMutex
	jobs map[domain.JobID]*domain.JobRecord
}

// NewJobRepo creates an empty in-memory job repository.
func NewJobRepo() *JobRepo {
	return &JobRepo{jobs: make(map[domain.JobID]*domain.JobRecord)}
}

// Save upserts a job record.
func (r *JobRepo) Save(_ context.Context, rec *domain.JobRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *rec
	if existing, ok := r.jobs[rec.JobID]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	cp.UpdatedAt = time.Now()
	r.jobs[rec.JobID] = &cp
	return nil
}

// Get retrieves a job record by ID.
func (r *JobRepo) Get(_ context.Context, id domain.JobID) (*domain.JobRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.jobs[id]
	if !ok {
		return nil, storage.ErrJobNotFound
	}
	cp := *rec
	return &cp, nil
}

// List retrieves all job records.
func (r *JobRepo) List(_ context.Context) ([]*domain.JobRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*domain.JobRecord, 0, len(r.jobs))
	for _, rec := range r.jobs {
		cp := *rec
		records = append(records, &cp)
	}
	return records, nil
}

// UpdateState updates the recorded lifecycle state.
func (r *JobRepo) UpdateState(_ context.Context, id domain.JobID, state domain.JobState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.jobs[id]
	if !ok {
		return storage.ErrJobNotFound
	}
	rec.State = state
	rec.UpdatedAt = time.Now()
	return nil
}

// Delete removes a job record.
func (r *JobRepo) Delete(_ context.Context, id domain.JobID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.jobs, id)
	return nil
}
