// Package generator maps job kinds to the functions that turn a job
// definition into a backend job spec.
package generator

import (
	"fmt"
	"sync"

	"github.com/vietddude/jobctl/internal/core/domain"
)

// SpecGenerator builds the backend request parameters for one job kind.
// The returned JobID must be stable: the same definition always yields the
// same ID, so lifecycle operations are idempotently addressable.
type SpecGenerator interface {
	JobSpec(def domain.JobDefinition) (domain.JobID, domain.JobSpec, error)
}

// Registry maps job kinds to spec generators. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	generators map[domain.JobKind]SpecGenerator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[domain.JobKind]SpecGenerator),
	}
}

// DefaultRegistry returns a registry with the built-in generators installed.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(domain.KindRollup, &RollupGenerator{})
	r.Register(domain.KindLatencyHistogram, &LatencyHistogramGenerator{})
	return r
}

// Register adds or replaces the generator for a kind.
func (r *Registry) Register(kind domain.JobKind, gen SpecGenerator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[kind] = gen
}

// Get returns the generator for the given kind, or an error when the kind is
// unknown. The error is terminal: retrying a lookup cannot make a generator
// appear.
func (r *Registry) Get(kind domain.JobKind) (SpecGenerator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gen, ok := r.generators[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported job kind [%s]", kind)
	}
	return gen, nil
}

// Kinds returns all registered job kinds.
func (r *Registry) Kinds() []domain.JobKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]domain.JobKind, 0, len(r.generators))
	for kind := range r.generators {
		kinds = append(kinds, kind)
	}
	return kinds
}

// jobID derives the stable backend resource name for a definition.
func jobID(kind domain.JobKind, def domain.JobDefinition) domain.JobID {
	return domain.JobID(fmt.Sprintf("jobctl-%s-%s", kind, def.ID))
}
