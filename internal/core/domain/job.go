package domain

import "time"

// JobID uniquely addresses one job resource in the backend throughout its
// lifecycle. It is derived deterministically from the job definition, so the
// same definition always maps to the same backend resource.
type JobID string

// JobKind selects the spec generator used to build the backend request.
type JobKind string

const (
	KindRollup           JobKind = "rollup"
	KindLatencyHistogram JobKind = "latency_histogram"
)

// JobDefinition is the caller-supplied descriptor of a managed job.
// The controller treats everything past Kind as opaque generator input.
type JobDefinition struct {
	ID          string            `json:"id"           yaml:"id"`
	Kind        JobKind           `json:"kind"         yaml:"kind"`
	SourceIndex string            `json:"source_index" yaml:"source_index"`
	DestIndex   string            `json:"dest_index"   yaml:"dest_index"`
	Interval    string            `json:"interval"     yaml:"interval"`
	Params      map[string]string `json:"params"       yaml:"params"`
}

// JobSpec holds the backend-specific request parameters produced by a
// generator. It is serialized as-is into the backend's install request.
type JobSpec struct {
	Source      SourceSpec     `json:"source"`
	Dest        DestSpec       `json:"dest"`
	Frequency   string         `json:"frequency,omitempty"`
	Aggregation map[string]any `json:"aggregation"`
	Description string         `json:"description,omitempty"`
}

// SourceSpec identifies where the job reads from.
type SourceSpec struct {
	Index string `json:"index"`
}

// DestSpec identifies where the job writes to.
type DestSpec struct {
	Index string `json:"index"`
}

// JobState tracks the last lifecycle transition recorded in the local ledger.
type JobState string

const (
	JobStateInstalled JobState = "installed"
	JobStateRunning   JobState = "running"
	JobStateStopped   JobState = "stopped"
)

// JobRecord is the ledger entry for an installed job.
type JobRecord struct {
	JobID      JobID     `json:"job_id"`
	Kind       JobKind   `json:"kind"`
	Definition []byte    `json:"definition"`
	State      JobState  `json:"state"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
