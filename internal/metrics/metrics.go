// Package metrics exposes matching runs as Prometheus metrics.
//
// Metrics live in their own registry, so several runs (and tests) do not
// share state. The registry can be written to a node_exporter textfile.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/524D/slicmatch/internal/match"
	"github.com/524D/slicmatch/internal/notify"
)

const (
	namespace = "slicmatch"
	subsystem = "match"
)

// Metrics collects the metrics of matching runs. It is a notify.Observer,
// so it can be passed to Engine.Identify next to other observers.
type Metrics struct {
	reg *prometheus.Registry

	events    *prometheus.CounterVec
	progress  prometheus.Gauge
	features  prometheus.Gauge
	processed prometheus.Gauge
	matched   prometheus.Gauge
	stored    prometheus.Gauge
	completed prometheus.Gauge
	runs      *prometheus.CounterVec
	duration  prometheus.Histogram
}

// New creates the metrics in a new registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	gauge := func(name, help string) prometheus.Gauge {
		return f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}
	return &Metrics{
		reg: reg,
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_total",
			Help:      "Events reported during matching, by severity",
		}, []string{"severity"}),
		progress:  gauge("progress_percent", "Progress of the current run"),
		features:  gauge("features", "Features to identify in the last run"),
		processed: gauge("processed_features", "Features processed in the last run"),
		matched:   gauge("matched_features", "Features with at least one match in the last run"),
		stored:    gauge("stored_results", "Results stored in the last run"),
		completed: gauge("completed", "1 if the last run completed, 0 if it was cancelled"),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "runs_total",
			Help:      "Matching runs, by outcome",
		}, []string{"outcome"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "run_duration_seconds",
			Help:      "Wall clock duration of matching runs",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
	}
}

// Registry returns the registry holding the metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Log counts the event
func (m *Metrics) Log(_ string, severity notify.Severity) {
	m.events.WithLabelValues(severity.String()).Inc()
}

// Progress records the progress percentage
func (m *Metrics) Progress(_ string, percent float64) {
	m.progress.Set(percent)
}

// RecordRun records the statistics of a finished run
func (m *Metrics) RecordRun(st match.RunStats) {
	m.features.Set(float64(st.Features))
	m.processed.Set(float64(st.Processed))
	m.matched.Set(float64(st.Matched))
	m.stored.Set(float64(st.Stored))
	m.duration.Observe(st.Elapsed.Seconds())
	outcome := "cancelled"
	if st.Completed {
		outcome = "completed"
		m.completed.Set(1)
	} else {
		m.completed.Set(0)
	}
	m.runs.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes all metrics to path in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
