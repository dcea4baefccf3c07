package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	messagesSent *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
	regimeRatio  prometheus.Gauge
	strategy     *prometheus.GaugeVec
}

// New creates a Prometheus recorder registered on reg, or on the default
// registry when reg is nil.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		messagesSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etfadvisor_bars_sent_total",
				Help: "Total number of bars handed to a backend",
			},
			[]string{"backend", "symbol"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etfadvisor_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "etfadvisor_last_close",
				Help: "Last recorded close for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "etfadvisor_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		regimeRatio: f.NewGauge(prometheus.GaugeOpts{
			Name: "etfadvisor_regime_investment_ratio",
			Help: "Investment ratio of the last classified regime",
		}),
		strategy: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "etfadvisor_regime_strategy",
				Help: "1 for the strategy of the last classified regime, 0 otherwise",
			},
			[]string{"strategy"},
		),
	}
}

// RecordMessageSent records a bar sent to a backend.
func (r *Recorder) RecordMessageSent(backend, symbol string) {
	r.messagesSent.WithLabelValues(backend, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last close for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordRegime records the last regime. Only the current strategy is set to 1.
func (r *Recorder) RecordRegime(strategy string, ratio float64) {
	r.regimeRatio.Set(ratio)
	r.strategy.Reset()
	r.strategy.WithLabelValues(strategy).Set(1)
}
