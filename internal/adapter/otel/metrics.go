package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all Overseer metric instruments.
type Metrics struct {
	RunsStarted     metric.Int64Counter
	RunsCompleted   metric.Int64Counter
	RunsFailed      metric.Int64Counter
	RunsInterrupted metric.Int64Counter
	SnippetsServed  metric.Int64Counter
	RunDuration     metric.Float64Histogram
	RetrievalTime   metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.RunsStarted, err = meter.Int64Counter("overseer.runs.started",
		metric.WithDescription("Number of runs started"))
	if err != nil {
		return nil, err
	}

	m.RunsCompleted, err = meter.Int64Counter("overseer.runs.completed",
		metric.WithDescription("Number of runs completed"))
	if err != nil {
		return nil, err
	}

	m.RunsFailed, err = meter.Int64Counter("overseer.runs.failed",
		metric.WithDescription("Number of runs failed"))
	if err != nil {
		return nil, err
	}

	m.RunsInterrupted, err = meter.Int64Counter("overseer.runs.interrupted",
		metric.WithDescription("Number of runs forced to interrupted, including crash recovery"))
	if err != nil {
		return nil, err
	}

	m.SnippetsServed, err = meter.Int64Counter("overseer.retrieval.snippets",
		metric.WithDescription("Number of context snippets attached to runs"))
	if err != nil {
		return nil, err
	}

	m.RunDuration, err = meter.Float64Histogram("overseer.run.duration_seconds",
		metric.WithDescription("Run duration from submission to a terminal status"))
	if err != nil {
		return nil, err
	}

	m.RetrievalTime, err = meter.Float64Histogram("overseer.retrieval.duration_seconds",
		metric.WithDescription("Context retrieval latency per provider call"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
