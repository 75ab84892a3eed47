// Package metrics exposes Prometheus instrumentation for dispatches, flow
// transfers, upstream clients, and session occupancy.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_dispatches_total",
			Help: "Total number of dispatched inbound messages labeled by flow and status",
		},
		[]string{"flow", "status"},
	)
	dispatchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_dispatch_duration_seconds",
			Help:    "Duration of message dispatches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"flow"},
	)
	flowTransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_flow_transfers_total",
			Help: "Total number of flow transfers",
		},
		[]string{"from", "to"},
	)
	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of upstream API requests by client, operation and status",
		},
		[]string{"client", "op", "status"},
	)
	upstreamDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Upstream API request latency distributions",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"client", "op"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by code and severity",
		},
		[]string{"code", "severity"},
	)
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Current number of live conversation sessions",
		},
	)
	sessionsByFlow = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sessions_by_flow",
			Help: "Number of sessions currently inside each flow",
		},
		[]string{"flow"},
	)
)

// RecordDispatch increments dispatch counters and records duration.
func RecordDispatch(flow, status string, duration time.Duration) {
	if flow == "" {
		flow = "none"
	}
	if status == "" {
		status = "unknown"
	}

	dispatchesTotal.WithLabelValues(flow, status).Inc()
	dispatchDurationSeconds.WithLabelValues(flow).Observe(duration.Seconds())
}

// RecordTransfer tracks a flow transfer applied by the stage.
func RecordTransfer(from, to string) {
	if from == "" {
		from = "none"
	}
	if to == "" {
		to = "none"
	}

	flowTransfersTotal.WithLabelValues(from, to).Inc()
}

// RecordUpstream tracks one upstream API call.
func RecordUpstream(client, op, status string, duration time.Duration) {
	upstreamRequestsTotal.WithLabelValues(client, op, status).Inc()
	upstreamDurationSeconds.WithLabelValues(client, op).Observe(duration.Seconds())
}

// RecordError increments error counters with metadata.
func RecordError(code, severity string) {
	if code == "" {
		code = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(code, severity).Inc()
}

// PositionSource enumerates current flow positions for gauge sampling.
type PositionSource interface {
	FlowCounts(ctx context.Context) (map[string]int, error)
}

// SessionCollector periodically samples session occupancy per flow.
type SessionCollector struct {
	source   PositionSource
	interval time.Duration
}

// NewSessionCollector builds a collector bound to the provided source.
func NewSessionCollector(source PositionSource, interval time.Duration) *SessionCollector {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &SessionCollector{source: source, interval: interval}
}

// Run polls the source until ctx is cancelled, updating session gauges.
func (c *SessionCollector) Run(ctx context.Context) {
	if c == nil || c.source == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		_ = c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.interval):
		}
	}
}

func (c *SessionCollector) collect(ctx context.Context) error {
	counts, err := c.source.FlowCounts(ctx)
	if err != nil {
		return err
	}

	total := 0
	sessionsByFlow.Reset()
	for flow, count := range counts {
		if flow == "" {
			flow = "none"
		}
		sessionsByFlow.WithLabelValues(flow).Set(float64(count))
		total += count
	}

	activeSessions.Set(float64(total))
	return nil
}
