// Package health reports the controller's view of its collaborators: the job
// backend, the ledger, and the replay queue.
package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the health state of a component.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
)

// ComponentHealth is one component's check result.
type ComponentHealth struct {
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// CheckFunc probes one collaborator. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

// Monitor runs registered checks on demand.
type Monitor struct {
	mu       sync.RWMutex
	checks   map[string]CheckFunc
	critical map[string]bool
}

// NewMonitor creates an empty health monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		checks:   make(map[string]CheckFunc),
		critical: make(map[string]bool),
	}
}

// Register adds a component check. Critical components take the aggregate
// status to critical when failing; others only degrade it.
func (m *Monitor) Register(name string, critical bool, check CheckFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = check
	m.critical[name] = critical
}

// CheckHealth runs every registered check.
func (m *Monitor) CheckHealth(ctx context.Context) map[string]ComponentHealth {
	m.mu.RLock()
	checks := make(map[string]CheckFunc, len(m.checks))
	for name, check := range m.checks {
		checks[name] = check
	}
	m.mu.RUnlock()

	report := make(map[string]ComponentHealth, len(checks))
	for name, check := range checks {
		result := ComponentHealth{Status: StatusHealthy, CheckedAt: time.Now()}
		if err := check(ctx); err != nil {
			result.Error = err.Error()
			if m.isCritical(name) {
				result.Status = StatusCritical
			} else {
				result.Status = StatusDegraded
			}
		}
		report[name] = result
	}
	return report
}

func (m *Monitor) isCritical(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.critical[name]
}
