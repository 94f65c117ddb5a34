// Package lifecycle implements the managed job lifecycle controller. Each
// operation builds a backend request, runs it through the retry policy, folds
// the operation's ignorable outcomes into success, and logs anything else
// once before returning it.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/jobctl/internal/core/domain"
	"github.com/vietddude/jobctl/internal/generator"
	"github.com/vietddude/jobctl/internal/infra/backend"
	"github.com/vietddude/jobctl/internal/metrics"
	"github.com/vietddude/jobctl/internal/retry"
)

// Manager drives the five lifecycle operations against a job backend.
// It holds no in-process locks: idempotence lives at the backend, so the
// same operation may run concurrently or repeatedly for the same JobID.
type Manager struct {
	registry *generator.Registry
	client   backend.Client
	retryCfg retry.Config

	// ignorable maps each operation to the backend outcomes folded into
	// success. Configuration rather than control flow, so new codes can be
	// swallowed without touching the operations themselves.
	ignorable map[domain.Operation][]error

	log *slog.Logger
}

// Option customizes a Manager.
type Option func(*Manager)

// WithRetryConfig overrides the retry policy applied to every operation.
func WithRetryConfig(cfg retry.Config) Option {
	return func(m *Manager) { m.retryCfg = cfg }
}

// WithIgnorableOutcomes replaces the set of backend outcomes op treats as
// success.
func WithIgnorableOutcomes(op domain.Operation, outcomes ...error) Option {
	return func(m *Manager) { m.ignorable[op] = outcomes }
}

// NewManager creates a lifecycle manager. The default ignorable-outcome
// table is: start swallows conflict, stop and uninstall swallow not-found.
func NewManager(reg *generator.Registry, client backend.Client, log *slog.Logger, opts ...Option) *Manager {
	if log == nil {
		log = slog.Default()
	}
	m := &Manager{
		registry: reg,
		client:   client,
		retryCfg: retry.DefaultConfig,
		ignorable: map[domain.Operation][]error{
			domain.OpStart:     {backend.ErrConflict},
			domain.OpStop:      {backend.ErrNotFound},
			domain.OpUninstall: {backend.ErrNotFound},
		},
		log: log.With("component", "lifecycle"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.retryCfg.Logger == nil {
		m.retryCfg.Logger = m.log
	}
	return m
}

// opConfig copies the retry policy with the operation name attached, so the
// retry metric is labeled per operation.
func (m *Manager) opConfig(op domain.Operation) retry.Config {
	cfg := m.retryCfg
	cfg.Operation = string(op)
	return cfg
}

// Install maps the definition to a job spec via the registered generator and
// creates it in the backend. The returned JobID addresses the job for every
// later operation. An unregistered kind fails before any backend call.
func (m *Manager) Install(ctx context.Context, def domain.JobDefinition) (domain.JobID, error) {
	gen, err := m.registry.Get(def.Kind)
	if err != nil {
		m.log.Error("Install failed", "kind", def.Kind, "error", err)
		return "", retry.Fatal(err)
	}

	id, spec, err := gen.JobSpec(def)
	if err != nil {
		err = fmt.Errorf("generate spec for kind %s: %w", def.Kind, err)
		m.log.Error("Install failed", "kind", def.Kind, "error", err)
		return "", retry.Fatal(err)
	}

	err = m.run(ctx, domain.OpInstall, id, func(ctx context.Context) error {
		return m.client.Put(ctx, id, spec)
	})
	if err != nil {
		return "", err
	}

	m.log.Info("Job installed", "job_id", id, "kind", def.Kind)
	return id, nil
}

// Preview executes a dry run of the installed job without side effects.
func (m *Manager) Preview(ctx context.Context, id domain.JobID) (*backend.PreviewResult, error) {
	start := time.Now()
	result, err := retry.DoValue(ctx, m.opConfig(domain.OpPreview), func(ctx context.Context) (*backend.PreviewResult, error) {
		return m.client.Preview(ctx, id)
	})
	err = m.finish(domain.OpPreview, id, start, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Start transitions the job to running. A job already running is success.
func (m *Manager) Start(ctx context.Context, id domain.JobID) error {
	return m.run(ctx, domain.OpStart, id, func(ctx context.Context) error {
		return m.client.Start(ctx, id)
	})
}

// Stop transitions the job to stopped and waits for the stop to complete.
// A job that no longer exists is success.
func (m *Manager) Stop(ctx context.Context, id domain.JobID) error {
	return m.run(ctx, domain.OpStop, id, func(ctx context.Context) error {
		return m.client.Stop(ctx, id, backend.StopOptions{WaitForCompletion: true})
	})
}

// Uninstall removes the job permanently. A job that no longer exists is
// success.
func (m *Manager) Uninstall(ctx context.Context, id domain.JobID) error {
	return m.run(ctx, domain.OpUninstall, id, func(ctx context.Context) error {
		return m.client.Delete(ctx, id, backend.DeleteOptions{Force: false})
	})
}

func (m *Manager) run(ctx context.Context, op domain.Operation, id domain.JobID, call func(ctx context.Context) error) error {
	start := time.Now()
	err := retry.Do(ctx, m.opConfig(op), call)
	return m.finish(op, id, start, err)
}

// finish folds ignorable outcomes into success, records metrics, and logs
// every surfacing failure exactly once.
func (m *Manager) finish(op domain.Operation, id domain.JobID, start time.Time, err error) error {
	metrics.OperationLatency.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())

	if err != nil {
		for _, outcome := range m.ignorable[op] {
			if errors.Is(err, outcome) {
				m.log.Debug("Ignorable outcome folded into success",
					"operation", op, "job_id", id, "outcome", outcome)
				err = nil
				break
			}
		}
	}

	if err != nil {
		metrics.OperationsTotal.WithLabelValues(string(op), outcomeLabel(err)).Inc()
		m.log.Error("Operation failed", "operation", op, "job_id", id, "error", err)
		return fmt.Errorf("%s job %s: %w", op, id, err)
	}

	metrics.OperationsTotal.WithLabelValues(string(op), "success").Inc()
	return nil
}

func outcomeLabel(err error) string {
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		return "exhausted"
	}
	return "fatal"
}
