package control

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/vietddude/jobctl/internal/backoff"
	"github.com/vietddude/jobctl/internal/core/domain"
	"github.com/vietddude/jobctl/internal/generator"
	"github.com/vietddude/jobctl/internal/infra/backend"
	"github.com/vietddude/jobctl/internal/infra/storage"
	"github.com/vietddude/jobctl/internal/infra/storage/memory"
	"github.com/vietddude/jobctl/internal/lifecycle"
	"github.com/vietddude/jobctl/internal/retry"
)

// stubBackend accepts everything; individual tests override single methods.
type stubBackend struct {
	startErr  error
	deleteErr error
}

func (s *stubBackend) Put(context.Context, domain.JobID, domain.JobSpec) error { return nil }
func (s *stubBackend) Preview(context.Context, domain.JobID) (*backend.PreviewResult, error) {
	return &backend.PreviewResult{}, nil
}
func (s *stubBackend) Start(context.Context, domain.JobID) error { return s.startErr }
func (s *stubBackend) Stop(context.Context, domain.JobID, backend.StopOptions) error {
	return nil
}
func (s *stubBackend) Delete(context.Context, domain.JobID, backend.DeleteOptions) error {
	return s.deleteErr
}
func (s *stubBackend) Ping(context.Context) error { return nil }

func newTestController(sb *stubBackend) *Controller {
	mgr := lifecycle.NewManager(generator.DefaultRegistry(), sb, slog.Default(),
		lifecycle.WithRetryConfig(retry.Config{
			MaxRetries: 1,
			BaseDelay:  time.Millisecond,
			Backoff:    backoff.NewConstant(time.Millisecond),
		}))
	return &Controller{
		manager: mgr,
		client:  sb,
		repo:    memory.NewJobRepo(),
		log:     slog.Default(),
	}
}

func TestController_InstallRecordsLedger(t *testing.T) {
	c := newTestController(&stubBackend{})
	ctx := context.Background()

	id, err := c.Install(ctx, domain.JobDefinition{
		ID: "orders", Kind: domain.KindRollup, SourceIndex: "metrics-orders",
	})
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	rec, err := c.repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("job not in ledger: %v", err)
	}
	if rec.State != domain.JobStateInstalled {
		t.Errorf("expected installed, got %s", rec.State)
	}
	if rec.Kind != domain.KindRollup {
		t.Errorf("expected rollup kind, got %s", rec.Kind)
	}
}

func TestController_StartStopTransitions(t *testing.T) {
	c := newTestController(&stubBackend{})
	ctx := context.Background()

	id, err := c.Install(ctx, domain.JobDefinition{
		ID: "orders", Kind: domain.KindRollup, SourceIndex: "metrics-orders",
	})
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	if err := c.Start(ctx, id); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	rec, _ := c.repo.Get(ctx, id)
	if rec.State != domain.JobStateRunning {
		t.Errorf("expected running, got %s", rec.State)
	}

	if err := c.Stop(ctx, id); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	rec, _ = c.repo.Get(ctx, id)
	if rec.State != domain.JobStateStopped {
		t.Errorf("expected stopped, got %s", rec.State)
	}
}

func TestController_UninstallRemovesLedgerEntry(t *testing.T) {
	c := newTestController(&stubBackend{})
	ctx := context.Background()

	id, _ := c.Install(ctx, domain.JobDefinition{
		ID: "orders", Kind: domain.KindRollup, SourceIndex: "metrics-orders",
	})

	if err := c.Uninstall(ctx, id); err != nil {
		t.Fatalf("Uninstall failed: %v", err)
	}
	if _, err := c.repo.Get(ctx, id); !errors.Is(err, storage.ErrJobNotFound) {
		t.Errorf("expected job removed from ledger, got %v", err)
	}
}

func TestController_StartFailureLeavesLedgerState(t *testing.T) {
	sb := &stubBackend{}
	c := newTestController(sb)
	ctx := context.Background()

	id, _ := c.Install(ctx, domain.JobDefinition{
		ID: "orders", Kind: domain.KindRollup, SourceIndex: "metrics-orders",
	})

	sb.startErr = backend.ErrValidation
	if err := c.Start(ctx, id); err == nil {
		t.Fatal("expected Start to fail")
	}
	rec, _ := c.repo.Get(ctx, id)
	if rec.State != domain.JobStateInstalled {
		t.Errorf("failed start must not record running, got %s", rec.State)
	}
}

func TestController_ReplayedUninstallClearsLedger(t *testing.T) {
	c := newTestController(&stubBackend{})
	ctx := context.Background()

	id, err := c.Install(ctx, domain.JobDefinition{
		ID: "orders", Kind: domain.KindRollup, SourceIndex: "metrics-orders",
	})
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	if err := c.replayOp(ctx, &domain.FailedOperation{Op: domain.OpUninstall, JobID: id}); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if _, err := c.repo.Get(ctx, id); !errors.Is(err, storage.ErrJobNotFound) {
		t.Errorf("expected replayed uninstall to remove ledger entry, got %v", err)
	}
}

func TestController_ReplayedStartStopRecordState(t *testing.T) {
	c := newTestController(&stubBackend{})
	ctx := context.Background()

	id, err := c.Install(ctx, domain.JobDefinition{
		ID: "orders", Kind: domain.KindRollup, SourceIndex: "metrics-orders",
	})
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	if err := c.replayOp(ctx, &domain.FailedOperation{Op: domain.OpStart, JobID: id}); err != nil {
		t.Fatalf("replayed start failed: %v", err)
	}
	rec, _ := c.repo.Get(ctx, id)
	if rec.State != domain.JobStateRunning {
		t.Errorf("replayed start must record running, got %s", rec.State)
	}

	if err := c.replayOp(ctx, &domain.FailedOperation{Op: domain.OpStop, JobID: id}); err != nil {
		t.Fatalf("replayed stop failed: %v", err)
	}
	rec, _ = c.repo.Get(ctx, id)
	if rec.State != domain.JobStateStopped {
		t.Errorf("replayed stop must record stopped, got %s", rec.State)
	}
}

func TestController_ReplayUnknownOp(t *testing.T) {
	c := newTestController(&stubBackend{})

	err := c.replayOp(context.Background(), &domain.FailedOperation{Op: "resize"})
	if err == nil {
		t.Fatal("expected error for unknown operation")
	}
}

func TestController_StatusListsJobs(t *testing.T) {
	c := newTestController(&stubBackend{})
	ctx := context.Background()

	for _, defID := range []string{"a", "b"} {
		if _, err := c.Install(ctx, domain.JobDefinition{
			ID: defID, Kind: domain.KindRollup, SourceIndex: "idx-" + defID,
		}); err != nil {
			t.Fatalf("Install failed: %v", err)
		}
	}

	records, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 jobs, got %d", len(records))
	}
}
