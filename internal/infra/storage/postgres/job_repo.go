package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/jobctl/internal/core/domain"
	"github.com/vietddude/jobctl/internal/infra/storage"
)

// JobRepo implements storage.JobRepository using PostgreSQL.
type JobRepo struct {
	db *DB
}

// NewJobRepo creates a new PostgreSQL job repository.
func NewJobRepo(db *DB) *JobRepo {
	return &JobRepo{db: db}
}

// Save upserts a job record.
func (r *JobRepo) Save(ctx context.Context, rec *domain.JobRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (job_id, kind, definition, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (job_id) DO UPDATE
		SET kind = EXCLUDED.kind,
		    definition = EXCLUDED.definition,
		    state = EXCLUDED.state,
		    updated_at = now()`,
		string(rec.JobID), string(rec.Kind), rec.Definition, string(rec.State))
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// Get retrieves a job record by ID.
func (r *JobRepo) Get(ctx context.Context, id domain.JobID) (*domain.JobRecord, error) {
	var row jobRow
	err := r.db.GetContext(ctx, &row,
		`SELECT job_id, kind, definition, state, created_at, updated_at
		 FROM jobs WHERE job_id = $1`, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return row.toDomain(), nil
}

// List retrieves all job records.
func (r *JobRepo) List(ctx context.Context) ([]*domain.JobRecord, error) {
	var rows []jobRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT job_id, kind, definition, state, created_at, updated_at
		 FROM jobs ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	records := make([]*domain.JobRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toDomain())
	}
	return records, nil
}

// UpdateState updates the recorded lifecycle state.
func (r *JobRepo) UpdateState(ctx context.Context, id domain.JobID, state domain.JobState) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET state = $1, updated_at = now() WHERE job_id = $2`,
		string(state), string(id))
	if err != nil {
		return fmt.Errorf("failed to update job state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrJobNotFound
	}
	return nil
}

// Delete removes a job record.
func (r *JobRepo) Delete(ctx context.Context, id domain.JobID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE job_id = $1`, string(id))
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

type jobRow struct {
	JobID      string    `db:"job_id"`
	Kind       string    `db:"kind"`
	Definition []byte    `db:"definition"`
	State      string    `db:"state"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r jobRow) toDomain() *domain.JobRecord {
	return &domain.JobRecord{
		JobID:      domain.JobID(r.JobID),
		Kind:       domain.JobKind(r.Kind),
		Definition: r.Definition,
		State:      domain.JobState(r.State),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
