// Package monitoring exposes service metrics and the live prediction feed.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Model load outcomes.
const (
	LoadOK            = "ok"
	LoadInvalidFormat = "invalid_format"
	LoadDecodeFailed  = "decode_failed"
	LoadWriteFailed   = "write_failed"
)

// Metrics holds the service collectors.
type Metrics struct {
	PredictionsServed  prometheus.Counter
	PredictionsFailed  *prometheus.CounterVec
	HistoryAppendFails prometheus.Counter
	ModelLoads         *prometheus.CounterVec
	PredictDuration    prometheus.Histogram
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PredictionsServed: factory.NewCounter(prometheus.CounterOpts{
			Name: "delaycast_predictions_served_total",
			Help: "Total number of predictions returned to clients.",
		}),
		PredictionsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "delaycast_predictions_failed_total",
			Help: "Total number of prediction requests that failed, by reason.",
		}, []string{"reason"}),
		HistoryAppendFails: factory.NewCounter(prometheus.CounterOpts{
			Name: "delaycast_history_append_failures_total",
			Help: "Total number of history appends that failed.",
		}),
		ModelLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "delaycast_model_loads_total",
			Help: "Total number of model uploads, by outcome.",
		}, []string{"outcome"}),
		PredictDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "delaycast_predict_duration_seconds",
			Help:    "Duration of a prediction request including the history append.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
	}
}
