package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	validations *prometheus.CounterVec
	repairs     *prometheus.CounterVec
	levels      *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastPrice   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		validations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeplan_validations_total",
				Help: "Total number of schema validations by outcome",
			},
			[]string{"schema", "outcome"},
		),
		repairs: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeplan_repairs_total",
				Help: "Total number of validate-and-fix runs by outcome",
			},
			[]string{"schema", "outcome"},
		),
		levels: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeplan_levels_extracted_total",
				Help: "Total number of price levels extracted per source",
			},
			[]string{"source"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeplan_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradeplan_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradeplan_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordValidation records one validation run.
func (r *Recorder) RecordValidation(schema string, valid bool) {
	outcome := "valid"
	if !valid {
		outcome = "invalid"
	}
	r.validations.WithLabelValues(schema, outcome).Inc()
}

// RecordRepair records one validate-and-fix run. Outcome is one of
// valid, partial, failed.
func (r *Recorder) RecordRepair(schema, outcome string) {
	r.repairs.WithLabelValues(schema, outcome).Inc()
}

// RecordLevels records levels extracted from a source.
func (r *Recorder) RecordLevels(source string, count int) {
	r.levels.WithLabelValues(source).Add(float64(count))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
