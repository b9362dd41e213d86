// internal/metrics/metrics.go
// Package metrics exports run counters in the Prometheus text format so a node
// exporter textfile collector can pick them up.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mwiater/refusalbench/internal/stats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder collects the counters of one process on a private registry.
type Recorder struct {
	registry *prometheus.Registry
	prompts  *prometheus.CounterVec
	seconds  *prometheus.CounterVec
}

// NewRecorder returns a Recorder with its metrics registered.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	return &Recorder{
		registry: registry,
		prompts: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "refusalbench_prompts_total",
				Help: "Prompts evaluated, partitioned by model, category and outcome.",
			},
			[]string{"model", "category", "outcome"},
		),
		seconds: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "refusalbench_invocation_seconds_total",
				Help: "Total wall time spent invoking each model, in seconds.",
			},
			[]string{"model"},
		),
	}
}

// Observe counts one evaluated prompt.
func (r *Recorder) Observe(model, category string, outcome stats.Outcome, elapsedSeconds float64) {
	r.prompts.WithLabelValues(model, category, outcome.String()).Inc()
	r.seconds.WithLabelValues(model).Add(elapsedSeconds)
}

// WriteTextfile atomically replaces path with the current metric values.
func (r *Recorder) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating metrics directory %s: %w", dir, err)
		}
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("error writing metrics textfile %s: %w", path, err)
	}
	return nil
}
