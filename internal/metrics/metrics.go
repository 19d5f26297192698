// Package metrics exposes Prometheus metrics for the ledger server.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/debtledger/internal/ledger"
)

// Metrics holds the collectors, registered on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	debtEvents  *prometheus.CounterVec
	lockResults *prometheus.CounterVec
	backupOps   *prometheus.CounterVec
	rpcDuration *prometheus.HistogramVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		debtEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "debtledger",
			Name:      "debt_events_total",
			Help:      "Debt mutations by transaction type.",
		}, []string{"type"}),
		lockResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "debtledger",
			Name:      "lock_operations_total",
			Help:      "Access lock operations by operation and result.",
		}, []string{"op", "result"}),
		backupOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "debtledger",
			Name:      "backup_operations_total",
			Help:      "Backup export, import and clear operations by result.",
		}, []string{"op", "result"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "debtledger",
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure and Connect code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
	}
	m.registry.MustRegister(
		m.debtEvents,
		m.lockResults,
		m.backupOps,
		m.rpcDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// HandleDebtEvent is a ledger.Bus subscriber counting debt events.
func (m *Metrics) HandleDebtEvent(_ context.Context, ev ledger.Event) error {
	m.debtEvents.WithLabelValues(string(ev.Kind)).Inc()
	return nil
}

// ObserveLock counts one lock operation.
func (m *Metrics) ObserveLock(op string, err error) {
	m.lockResults.WithLabelValues(op, result(err)).Inc()
}

// ObserveBackup counts one backup operation.
func (m *Metrics) ObserveBackup(op string, err error) {
	m.backupOps.WithLabelValues(op, result(err)).Inc()
}

// Interceptor records the duration of every unary RPC.
func (m *Metrics) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			code := "ok"
			if err != nil {
				code = connect.CodeOf(err).String()
			}
			m.rpcDuration.WithLabelValues(req.Spec().Procedure, code).Observe(time.Since(start).Seconds())
			return resp, err
		}
	}
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
