package generator

import (
	"errors"

	"github.com/vietddude/jobctl/internal/core/domain"
)

// RollupGenerator builds a continuous aggregation job that rolls documents
// from the source index up into a destination index on a fixed interval.
type RollupGenerator struct{}

func (g *RollupGenerator) JobSpec(def domain.JobDefinition) (domain.JobID, domain.JobSpec, error) {
	if def.SourceIndex == "" {
		return "", domain.JobSpec{}, errors.New("rollup: source_index is required")
	}

	dest := def.DestIndex
	if dest == "" {
		dest = def.SourceIndex + "-rollup"
	}
	interval := def.Interval
	if interval == "" {
		interval = "1m"
	}

	spec := domain.JobSpec{
		Source:    domain.SourceSpec{Index: def.SourceIndex},
		Dest:      domain.DestSpec{Index: dest},
		Frequency: interval,
		Aggregation: map[string]any{
			"group_by": map[string]any{
				"timestamp": map[string]any{
					"date_histogram": map[string]any{
						"field":          timestampField(def),
						"fixed_interval": interval,
					},
				},
			},
			"aggregations": map[string]any{
				"doc_count": map[string]any{
					"value_count": map[string]any{"field": timestampField(def)},
				},
			},
		},
		Description: "rollup of " + def.SourceIndex,
	}

	return jobID(domain.KindRollup, def), spec, nil
}

// LatencyHistogramGenerator builds a job that aggregates latency percentiles
// per time bucket.
type LatencyHistogramGenerator struct{}

func (g *LatencyHistogramGenerator) JobSpec(def domain.JobDefinition) (domain.JobID, domain.JobSpec, error) {
	if def.SourceIndex == "" {
		return "", domain.JobSpec{}, errors.New("latency_histogram: source_index is required")
	}

	field := def.Params["latency_field"]
	if field == "" {
		field = "latency_ms"
	}
	dest := def.DestIndex
	if dest == "" {
		dest = def.SourceIndex + "-latency"
	}
	interval := def.Interval
	if interval == "" {
		interval = "1m"
	}

	spec := domain.JobSpec{
		Source:    domain.SourceSpec{Index: def.SourceIndex},
		Dest:      domain.DestSpec{Index: dest},
		Frequency: interval,
		Aggregation: map[string]any{
			"group_by": map[string]any{
				"timestamp": map[string]any{
					"date_histogram": map[string]any{
						"field":          timestampField(def),
						"fixed_interval": interval,
					},
				},
			},
			"aggregations": map[string]any{
				"latency_percentiles": map[string]any{
					"percentiles": map[string]any{
						"field":    field,
						"percents": []float64{50, 90, 95, 99},
					},
				},
			},
		},
		Description: "latency histogram of " + def.SourceIndex,
	}

	return jobID(domain.KindLatencyHistogram, def), spec, nil
}

func timestampField(def domain.JobDefinition) string {
	if f := def.Params["timestamp_field"]; f != "" {
		return f
	}
	return "@timestamp"
}
