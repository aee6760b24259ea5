package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions    *prometheus.CounterVec
	observations   *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	forecastDemand *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		predictions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfcast_predictions_total",
				Help: "Total number of forecasts served",
			},
			[]string{"store", "category"},
		),
		observations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfcast_observations_total",
				Help: "Total number of sales observations written to backend",
			},
			[]string{"backend", "store"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfcast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		forecastDemand: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "shelfcast_forecast_demand_units",
				Help: "Last forecast total demand in units for a store",
			},
			[]string{"store"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shelfcast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPrediction records a served forecast.
func (r *Recorder) RecordPrediction(store, category string) {
	r.predictions.WithLabelValues(store, category).Inc()
}

// RecordObservation records a sales observation written to a backend.
func (r *Recorder) RecordObservation(backend, store string) {
	r.observations.WithLabelValues(backend, store).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordForecastDemand records the last forecast total demand for a store.
func (r *Recorder) RecordForecastDemand(store string, units float64) {
	r.forecastDemand.WithLabelValues(store).Set(units)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
