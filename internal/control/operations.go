package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/jobctl/internal/core/domain"
	"github.com/vietddude/jobctl/internal/infra/backend"
	"github.com/vietddude/jobctl/internal/metrics"
	"github.com/vietddude/jobctl/internal/retry"
)

// Install installs the job and records it in the ledger. Ledger failures are
// logged, never surfaced: the backend is the source of truth.
func (c *Controller) Install(ctx context.Context, def domain.JobDefinition) (domain.JobID, error) {
	id, err := c.manager.Install(ctx, def)
	if err != nil {
		// Install is not parked for replay: the definition is only recorded
		// in the ledger after a successful install, so a replay would have
		// nothing to work from. The caller re-issues the install instead.
		return "", err
	}

	data, err := json.Marshal(def)
	if err != nil {
		c.log.Warn("Failed to marshal definition for ledger", "job_id", id, "error", err)
		return id, nil
	}
	if err := c.repo.Save(ctx, &domain.JobRecord{
		JobID:      id,
		Kind:       def.Kind,
		Definition: data,
		State:      domain.JobStateInstalled,
	}); err != nil {
		c.log.Warn("Failed to record job in ledger", "job_id", id, "error", err)
	}
	c.updateJobGauge(ctx)
	return id, nil
}

// Preview executes a dry run of the installed job.
func (c *Controller) Preview(ctx context.Context, id domain.JobID) (*backend.PreviewResult, error) {
	return c.manager.Preview(ctx, id)
}

// Start starts the job and records the transition.
func (c *Controller) Start(ctx context.Context, id domain.JobID) error {
	if err := c.manager.Start(ctx, id); err != nil {
		c.park(ctx, domain.OpStart, id, err)
		return err
	}
	c.recordState(ctx, id, domain.JobStateRunning)
	return nil
}

// Stop stops the job, waiting for completion, and records the transition.
func (c *Controller) Stop(ctx context.Context, id domain.JobID) error {
	if err := c.manager.Stop(ctx, id); err != nil {
		c.park(ctx, domain.OpStop, id, err)
		return err
	}
	c.recordState(ctx, id, domain.JobStateStopped)
	return nil
}

// Uninstall removes the job and its ledger entry.
func (c *Controller) Uninstall(ctx context.Context, id domain.JobID) error {
	if err := c.manager.Uninstall(ctx, id); err != nil {
		c.park(ctx, domain.OpUninstall, id, err)
		return err
	}
	if err := c.repo.Delete(ctx, id); err != nil {
		c.log.Warn("Failed to remove job from ledger", "job_id", id, "error", err)
	}
	c.updateJobGauge(ctx)
	return nil
}

// Status lists the ledger.
func (c *Controller) Status(ctx context.Context) ([]*domain.JobRecord, error) {
	return c.repo.List(ctx)
}

func (c *Controller) recordState(ctx context.Context, id domain.JobID, state domain.JobState) {
	if err := c.repo.UpdateState(ctx, id, state); err != nil {
		c.log.Warn("Failed to record state in ledger", "job_id", id, "state", state, "error", err)
	}
}

// park stores an exhausted operation in the replay queue. Fatal errors are
// not parked: replaying them cannot change the outcome.
func (c *Controller) park(ctx context.Context, op domain.Operation, id domain.JobID, err error) {
	if c.queue == nil {
		return
	}
	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) {
		return
	}

	failed := &domain.FailedOperation{
		ID:        uuid.NewString(),
		Op:        op,
		JobID:     id,
		Error:     err.Error(),
		CreatedAt: time.Now().Unix(),
	}
	if addErr := c.queue.Add(ctx, failed); addErr != nil {
		c.log.Error("Failed to park operation for replay",
			"operation", op, "job_id", id, "error", addErr)
		return
	}
	c.log.Info("Operation parked for replay", "operation", op, "job_id", id)
}

func (c *Controller) updateJobGauge(ctx context.Context) {
	records, err := c.repo.List(ctx)
	if err != nil {
		return
	}
	metrics.InstalledJobs.Set(float64(len(records)))
}

// replayOp re-runs a parked operation. It calls the lifecycle manager
// directly so a re-exhausted replay is not parked a second time, but a
// successful replay still performs the same ledger bookkeeping as the
// non-replay path.
func (c *Controller) replayOp(ctx context.Context, op *domain.FailedOperation) error {
	switch op.Op {
	case domain.OpPreview:
		_, err := c.manager.Preview(ctx, op.JobID)
		return err
	case domain.OpStart:
		if err := c.manager.Start(ctx, op.JobID); err != nil {
			return err
		}
		c.recordState(ctx, op.JobID, domain.JobStateRunning)
		return nil
	case domain.OpStop:
		if err := c.manager.Stop(ctx, op.JobID); err != nil {
			return err
		}
		c.recordState(ctx, op.JobID, domain.JobStateStopped)
		return nil
	case domain.OpUninstall:
		if err := c.manager.Uninstall(ctx, op.JobID); err != nil {
			return err
		}
		if err := c.repo.Delete(ctx, op.JobID); err != nil {
			c.log.Warn("Failed to remove job from ledger", "job_id", op.JobID, "error", err)
		}
		c.updateJobGauge(ctx)
		return nil
	default:
		return fmt.Errorf("unknown operation %q", op.Op)
	}
}
