package control

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/jobctl/internal/metrics"
	"github.com/vietddude/jobctl/internal/retry"
)

// runReplayLoop periodically re-runs parked operations. One entry per tick:
// the lifecycle calls inside already carry their own retry budget, and the
// queue is expected to stay short.
func (c *Controller) runReplayLoop(ctx context.Context) {
	c.log.Info("Starting replay worker", "interval", c.cfg.Replay.Interval)

	ticker := time.NewTicker(c.cfg.Replay.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("Replay worker stopped")
			return
		case <-ticker.C:
			if err := c.replayNext(ctx); err != nil {
				c.log.Error("Replay cycle failed", "error", err)
			}
			c.updateQueueGauge(ctx)
		}
	}
}

func (c *Controller) replayNext(ctx context.Context) error {
	op, err := c.queue.Next(ctx)
	if err != nil {
		return err
	}
	if op == nil {
		return nil
	}

	c.log.Info("Replaying operation",
		"operation", op.Op, "job_id", op.JobID, "replays", op.RetryCount)

	err = c.replayOp(ctx, op)
	if err == nil {
		c.log.Info("Replay succeeded", "operation", op.Op, "job_id", op.JobID)
		return c.queue.Remove(ctx, op.ID)
	}

	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) {
		// Fatal now; replaying again cannot change the outcome.
		c.log.Error("Replay failed fatally, dropping",
			"operation", op.Op, "job_id", op.JobID, "error", err)
		return c.queue.Remove(ctx, op.ID)
	}

	op.RetryCount++
	op.Error = err.Error()
	if op.RetryCount >= c.cfg.Replay.MaxReplays {
		c.log.Error("Replay budget exhausted, dropping",
			"operation", op.Op, "job_id", op.JobID, "replays", op.RetryCount)
		return c.queue.Remove(ctx, op.ID)
	}

	c.log.Warn("Replay exhausted retries, re-queueing",
		"operation", op.Op, "job_id", op.JobID, "replays", op.RetryCount)
	if err := c.queue.Remove(ctx, op.ID); err != nil {
		return err
	}
	return c.queue.Add(ctx, op)
}

func (c *Controller) updateQueueGauge(ctx context.Context) {
	depth, err := c.queue.Depth(ctx)
	if err != nil {
		return
	}
	metrics.ReplayQueueDepth.Set(float64(depth))
}
