package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	AdvisorLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "etfadvisor",
			Subsystem: "advisor",
			Name:      "latency_seconds",
			Help:      "Latency of advisor endpoints",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"endpoint"},
	)

	AdvisorErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "etfadvisor",
			Subsystem: "advisor",
			Name:      "errors_total",
			Help:      "Errors by advisor endpoint",
		},
		[]string{"endpoint"},
	)

	SkippedInstruments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "etfadvisor",
			Subsystem: "advisor",
			Name:      "skipped_instruments_total",
			Help:      "Instruments left out of an evaluation",
		},
		[]string{"symbol"},
	)
)

// Register adds the advisor vectors to reg once. A nil reg uses the default registry.
func Register(reg prometheus.Registerer) {
	once.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(AdvisorLatency, AdvisorErrors, SkippedInstruments)
	})
}

// Observe records the latency of one endpoint call and counts a failure.
func Observe(endpoint string, start time.Time, err error) {
	AdvisorLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		AdvisorErrors.WithLabelValues(endpoint).Inc()
	}
}
