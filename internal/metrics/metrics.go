package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the wallet's Prometheus collectors. A nil Recorder is valid
// and records nothing.
type Recorder struct {
	Operations    *prometheus.CounterVec
	Queries       *prometheus.CounterVec
	LedgerLatency *prometheus.HistogramVec
	Online        prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_operations_total",
				Help: "Transaction orchestrator steps by kind, step and status",
			},
			[]string{"kind", "step", "status"},
		),
		Queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_queries_total",
				Help: "Balance, rate and history fetches by query kind and status",
			},
			[]string{"query", "status"},
		),
		LedgerLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wallet_ledger_request_seconds",
				Help:    "Latency of remote ledger calls by operation and outcome",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op", "outcome"},
		),
		Online: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wallet_ledger_online",
			Help: "1 when the last connectivity check succeeded",
		}),
	}

	reg.MustRegister(r.Operations, r.Queries, r.LedgerLatency, r.Online)
	return r
}

func (r *Recorder) Operation(kind, step, status string) {
	if r == nil {
		return
	}
	r.Operations.WithLabelValues(kind, step, status).Inc()
}

func (r *Recorder) Query(query, status string) {
	if r == nil {
		return
	}
	r.Queries.WithLabelValues(query, status).Inc()
}

// ObserveLedgerCall implements ledger.Observer.
func (r *Recorder) ObserveLedgerCall(op, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.LedgerLatency.WithLabelValues(op, outcome).Observe(elapsed.Seconds())
}

func (r *Recorder) SetOnline(online bool) {
	if r == nil {
		return
	}
	if online {
		r.Online.Set(1)
	} else {
		r.Online.Set(0)
	}
}
