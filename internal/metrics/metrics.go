// Package metrics instruments backend operations with Prometheus
// counters and latency histograms, labelled by backend name and
// operation.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fileplane/fileplane/internal/backend"
)

// Metrics holds the backend operation collectors.
type Metrics struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ops: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fileplane_backend_ops_total",
			Help: "Backend operations by backend, operation, and outcome.",
		}, []string{"backend", "op", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fileplane_backend_op_duration_seconds",
			Help:    "Backend operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend", "op"}),
	}
}

// Instrument wraps b so every contract operation is counted and timed
// under the given backend name.
func (m *Metrics) Instrument(name string, b backend.Backend) backend.Backend {
	return &instrumented{name: name, next: b, metrics: m}
}

type instrumented struct {
	name    string
	next    backend.Backend
	metrics *Metrics
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		if kind := backend.KindOf(err); kind != 0 {
			status = kind.String()
		} else {
			status = "error"
		}
	}
	i.metrics.ops.WithLabelValues(i.name, op, status).Inc()
	i.metrics.duration.WithLabelValues(i.name, op).Observe(time.Since(start).Seconds())
}

func (i *instrumented) List(ctx context.Context, path string) ([]backend.Entry, error) {
	start := time.Now()
	entries, err := i.next.List(ctx, path)
	i.observe("list", start, err)
	return entries, err
}

func (i *instrumented) Read(ctx context.Context, path string, offset, limit int) (string, error) {
	start := time.Now()
	content, err := i.next.Read(ctx, path, offset, limit)
	i.observe("read", start, err)
	return content, err
}

func (i *instrumented) Write(ctx context.Context, path, content string) (string, error) {
	start := time.Now()
	p, err := i.next.Write(ctx, path, content)
	i.observe("write", start, err)
	return p, err
}

func (i *instrumented) Edit(ctx context.Context, path, old, new string, replaceAll bool) (int, error) {
	start := time.Now()
	count, err := i.next.Edit(ctx, path, old, new, replaceAll)
	i.observe("edit", start, err)
	return count, err
}

func (i *instrumented) Grep(ctx context.Context, pattern, path, glob string) ([]backend.Match, error) {
	start := time.Now()
	matches, err := i.next.Grep(ctx, pattern, path, glob)
	i.observe("grep", start, err)
	return matches, err
}

func (i *instrumented) Glob(ctx context.Context, pattern, path string) ([]backend.Entry, error) {
	start := time.Now()
	entries, err := i.next.Glob(ctx, pattern, path)
	i.observe("glob", start, err)
	return entries, err
}

// Raw passes through to the wrapped backend when it supports raw
// reads, keeping the optional interface visible through the wrapper.
func (i *instrumented) Raw(ctx context.Context, path string) ([]byte, error) {
	rr, ok := i.next.(backend.RawReader)
	if !ok {
		return nil, backend.Substratef("backend %s does not support raw reads", i.name)
	}
	start := time.Now()
	data, err := rr.Raw(ctx, path)
	i.observe("raw", start, err)
	return data, err
}
