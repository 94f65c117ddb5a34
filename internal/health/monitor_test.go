package health

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
)

func TestMonitor_AllHealthy(t *testing.T) {
	m := NewMonitor()
	m.Register("backend", true, func(ctx context.Context) error { return nil })
	m.Register("ledger", false, func(ctx context.Context) error { return nil })

	report := m.CheckHealth(context.Background())
	if len(report) != 2 {
		t.Fatalf("expected 2 components, got %d", len(report))
	}
	for name, c := range report {
		if c.Status != StatusHealthy {
			t.Errorf("%s: expected healthy, got %s", name, c.Status)
		}
	}
}

func TestMonitor_CriticalVsDegraded(t *testing.T) {
	m := NewMonitor()
	m.Register("backend", true, func(ctx context.Context) error { return errors.New("refused") })
	m.Register("ledger", false, func(ctx context.Context) error { return errors.New("down") })

	report := m.CheckHealth(context.Background())
	if report["backend"].Status != StatusCritical {
		t.Errorf("backend: expected critical, got %s", report["backend"].Status)
	}
	if report["ledger"].Status != StatusDegraded {
		t.Errorf("ledger: expected degraded, got %s", report["ledger"].Status)
	}
	if report["backend"].Error == "" {
		t.Error("expected error message in report")
	}
}

func TestServer_HealthEndpoint(t *testing.T) {
	m := NewMonitor()
	m.Register("backend", true, func(ctx context.Context) error { return nil })
	s := NewServer(m, 0)

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != 200 {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	m.Register("backend", true, func(ctx context.Context) error { return errors.New("gone") })
	rec = httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != 503 {
		t.Errorf("expected 503 when critical, got %d", rec.Code)
	}
}
