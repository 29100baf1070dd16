package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecast_inference_duration_seconds",
			Help:    "Duration of LSTM forward passes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	InferenceErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forecast_inference_errors_total",
			Help: "Total number of failed forward passes",
		},
	)

	ArtifactLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_artifact_loads_total",
			Help: "Model and scaler load attempts by result",
		},
		[]string{"result"}, // "ok", "error"
	)

	ForecastRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_requests_total",
			Help: "Forecast requests by outcome",
		},
		[]string{"outcome"},
	)

	ForecastRowsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forecast_rows_written_total",
			Help: "Forecast rows upserted",
		},
	)

	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restock_recommendations_total",
			Help: "Recommendations produced by urgency",
		},
		[]string{"urgency"},
	)
)

// ObserveInference records one forward pass.
func ObserveInference(d time.Duration, err error) {
	InferenceDuration.Observe(d.Seconds())
	if err != nil {
		InferenceErrors.Inc()
	}
}

// RecordForecast counts a forecast request by outcome label.
func RecordForecast(outcome string) {
	ForecastRequests.WithLabelValues(outcome).Inc()
}
