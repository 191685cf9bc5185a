// Package metrics provides Prometheus metrics export for fcp.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jvs-project/fcp/pkg/model"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide metrics registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Registry holds all fcp metrics on a private Prometheus registry.
// A nil *Registry is valid and records nothing.
type Registry struct {
	reg       *prometheus.Registry
	Copies    *prometheus.CounterVec
	Bytes     prometheus.Counter
	Conflicts *prometheus.CounterVec
	Duration  prometheus.Histogram
}

// NewRegistry creates a new metrics registry.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		Copies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fcp_copies_total",
			Help: "Copy operations by terminal status.",
		}, []string{"status"}),
		Bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fcp_bytes_copied_total",
			Help: "Bytes written to destination files.",
		}),
		Conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fcp_conflicts_total",
			Help: "Destination conflicts by decision.",
		}, []string{"decision"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fcp_copy_duration_seconds",
			Help:    "Wall time of copy operations, including pauses.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
	r.reg.MustRegister(r.Copies, r.Bytes, r.Conflicts, r.Duration)
	return r
}

// RecordCopy records the outcome of one copy operation.
func (r *Registry) RecordCopy(res model.Result) {
	if r == nil {
		return
	}
	r.Copies.WithLabelValues(string(res.Status)).Inc()
	r.Bytes.Add(float64(res.BytesCopied))
	r.Duration.Observe(res.Duration.Seconds())
}

// RecordConflict records a destination conflict and how it was resolved.
func (r *Registry) RecordConflict(decision model.Decision) {
	if r == nil {
		return
	}
	r.Conflicts.WithLabelValues(string(decision)).Inc()
}

// WriteTextfile writes all metrics in the Prometheus text format to path,
// suitable for the node_exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}

