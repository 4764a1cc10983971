// Package telemetry provides Prometheus metrics for the response cache.
package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup outcomes. Store and decode errors are reported to callers as misses
// but are counted separately here.
const (
	OutcomeHit         = "hit"
	OutcomeMiss        = "miss"
	OutcomeStoreError  = "store_error"
	OutcomeDecodeError = "decode_error"
)

// Metrics holds the cache's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Lookups       *prometheus.CounterVec
	Updates       *prometheus.CounterVec
	ClearDeleted  prometheus.Counter
	ClearFailures prometheus.Counter
	Duration      *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		Lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmcache_lookups_total",
				Help: "Cache lookups by outcome",
			},
			[]string{"outcome"},
		),

		Updates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmcache_updates_total",
				Help: "Cache writes by status",
			},
			[]string{"status"},
		),

		ClearDeleted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "llmcache_clear_deleted_total",
				Help: "Objects deleted by clear",
			},
		),

		ClearFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "llmcache_clear_failures_total",
				Help: "Object deletions that failed during clear",
			},
		),

		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llmcache_operation_duration_seconds",
				Help:    "Cache operation latency in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"op"},
		),
	}
}

// RecordLookup counts a lookup outcome and its latency.
func (m *Metrics) RecordLookup(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(outcome).Inc()
	m.Duration.WithLabelValues("lookup").Observe(d.Seconds())
}

// RecordUpdate counts a write and its latency.
func (m *Metrics) RecordUpdate(err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Updates.WithLabelValues(status).Inc()
	m.Duration.WithLabelValues("update").Observe(d.Seconds())
}

// RecordClear counts deleted and failed objects of one clear run.
func (m *Metrics) RecordClear(deleted, failed int, d time.Duration) {
	if m == nil {
		return
	}
	m.ClearDeleted.Add(float64(deleted))
	m.ClearFailures.Add(float64(failed))
	m.Duration.WithLabelValues("clear").Observe(d.Seconds())
}

// Serve exposes the gatherer on addr at /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
