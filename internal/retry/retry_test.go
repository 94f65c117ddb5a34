package retry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vietddude/jobctl/internal/backoff"
	"github.com/vietddude/jobctl/internal/infra/backend"
	"github.com/vietddude/jobctl/internal/metrics"
)

func testConfig(log *slog.Logger) Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		Backoff:    backoff.NewConstant(time.Millisecond),
		Logger:     log,
	}
}

func TestDo_TransientThenSuccess(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	calls := 0
	err := Do(context.Background(), testConfig(log), func(ctx context.Context) error {
		calls++
		if calls <= 2 {
			return backend.ErrUnavailable
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if warns := strings.Count(buf.String(), "Transient failure"); warns != 2 {
		t.Errorf("expected 2 retry warnings, got %d", warns)
	}
}

func TestDo_RetriesMetricLabeledByOperation(t *testing.T) {
	cfg := testConfig(nil)
	cfg.Operation = "start"

	before := testutil.ToFloat64(metrics.RetriesTotal.WithLabelValues("start"))

	calls := 0
	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		if calls <= 2 {
			return backend.ErrUnavailable
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	after := testutil.ToFloat64(metrics.RetriesTotal.WithLabelValues("start"))
	if delta := after - before; delta != 2 {
		t.Errorf("expected 2 retries recorded for operation start, got %v", delta)
	}
}

func TestDo_ExhaustsRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), testConfig(nil), func(ctx context.Context) error {
		calls++
		return backend.ErrUnavailable
	})

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 4 {
		t.Errorf("expected 4 attempts recorded, got %d", exhausted.Attempts)
	}
	if calls != 4 {
		t.Errorf("expected 4 calls (1 + 3 retries), got %d", calls)
	}
	if !errors.Is(err, backend.ErrUnavailable) {
		t.Errorf("expected wrapped ErrUnavailable, got %v", err)
	}
}

func TestDo_FatalNotRetried(t *testing.T) {
	calls := 0
	err := Do(context.Background(), testConfig(nil), func(ctx context.Context) error {
		calls++
		return backend.ErrValidation
	})

	if !errors.Is(err, backend.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		t.Error("fatal error should not be wrapped as ExhaustedError")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_FatalMarker(t *testing.T) {
	calls := 0
	cause := errors.New("generator blew up")
	err := Do(context.Background(), testConfig(nil), func(ctx context.Context) error {
		calls++
		return Fatal(cause)
	})

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := testConfig(nil)
	cfg.Backoff = backoff.NewConstant(time.Minute)

	errCh := make(chan error, 1)
	go func() {
		errCh <- Do(ctx, cfg, func(ctx context.Context) error {
			return backend.ErrUnavailable
		})
	}()

	// Let the first attempt fail and the loop enter its backoff sleep.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestDoValue_ReturnsResult(t *testing.T) {
	calls := 0
	got, err := DoValue(context.Background(), testConfig(nil), func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", fmt.Errorf("%w: warming up", backend.ErrThrottled)
		}
		return "done", nil
	})

	if err != nil {
		t.Fatalf("DoValue failed: %v", err)
	}
	if got != "done" {
		t.Errorf("expected %q, got %q", "done", got)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err    error
		expect Action
	}{
		{backend.ErrValidation, ActionFatal},
		{backend.ErrNotFound, ActionFatal},
		{backend.ErrConflict, ActionFatal},
		{fmt.Errorf("put job: %w", backend.ErrValidation), ActionFatal},
		{backend.ErrUnavailable, ActionRetry},
		{backend.ErrThrottled, ActionRetry},
		{context.Canceled, ActionFatal},
		{Fatal(errors.New("boom")), ActionFatal},
		{errors.New("429 Too Many Requests"), ActionRetry},
		{errors.New("connection reset by peer"), ActionRetry},
		{errors.New("request timed out"), ActionRetry},
		{errors.New("503 Service Unavailable"), ActionRetry},
		{errors.New("400 Bad Request"), ActionFatal},
		{errors.New("unsupported job kind [foo]"), ActionFatal},
		{errors.New("500 Internal Server Error"), ActionRetry},
	}

	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.expect {
			t.Errorf("ClassifyError(%q) = %v, want %v", tt.err, got, tt.expect)
		}
	}
}
