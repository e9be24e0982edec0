package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions  prometheus.Gauge
	SessionsStarted *prometheus.CounterVec
	SessionsEnded   *prometheus.CounterVec
	Decisions       *prometheus.CounterVec
	DirectorPosts   *prometheus.CounterVec
	RejectedEvents  *prometheus.CounterVec
	StrategyLatency prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWith registers the instruments on a specific registerer. Tests
// use it to avoid duplicate registration on the default registry.
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of bound roleplay sessions.",
		}),
		SessionsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Sessions started by mode.",
		}, []string{"mode"}),
		SessionsEnded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Sessions ended by cause.",
		}, []string{"cause"}),
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Arbitration decisions by reason code.",
		}, []string{"reason"}),
		DirectorPosts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "director_posts_total",
			Help:      "Director posts by action.",
		}, []string{"action"}),
		RejectedEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_events_total",
			Help:      "Events rejected before arbitration, by cause.",
		}, []string{"cause"}),
		StrategyLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "strategy_latency_ms",
			Help:      "Latency of reply generation in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2000, 4000, 8000},
		}),
	}
}

func (m *Metrics) ObserveStrategyLatency(d time.Duration) {
	m.StrategyLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
