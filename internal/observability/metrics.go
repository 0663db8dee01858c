package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	workoutPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fittrack",
		Subsystem: "persistence",
		Name:      "last_workout_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent workout write.",
	})
	generationPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fittrack",
		Subsystem: "persistence",
		Name:      "last_generation_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent generated-content record.",
	})

	providerAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "generation",
		Name:      "attempts_total",
		Help:      "Provider attempts labeled by stage and outcome (success, error, timeout).",
	}, []string{"provider", "outcome"})
	providerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fittrack",
		Subsystem: "generation",
		Name:      "duration_seconds",
		Help:      "Time spent in a single provider attempt.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"provider"})
	fallbackCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "generation",
		Name:      "fallback_total",
		Help:      "Requests answered from the static fallback table, labeled by kind.",
	}, []string{"kind"})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests labeled by route and status code.",
	}, []string{"route", "status"})
	rateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fittrack",
		Subsystem: "ratelimit",
		Name:      "rejected_total",
		Help:      "Requests rejected by the fixed-window limiter.",
	})
)

func init() {
	prometheus.MustRegister(
		workoutPersistGauge,
		generationPersistGauge,
		providerAttempts,
		providerDuration,
		fallbackCounter,
		httpRequests,
		rateLimited,
	)
}

// RecordWorkoutPersisted updates the workout persistence watermark.
func RecordWorkoutPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	workoutPersistGauge.Set(float64(ts.Unix()))
}

// RecordGenerationPersisted updates the generation persistence watermark.
func RecordGenerationPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	generationPersistGauge.Set(float64(ts.Unix()))
}

// RecordProviderAttempt counts one provider attempt and its latency.
func RecordProviderAttempt(provider, outcome string, took time.Duration) {
	providerAttempts.WithLabelValues(provider, outcome).Inc()
	providerDuration.WithLabelValues(provider).Observe(took.Seconds())
}

// RecordFallback counts a static fallback answer.
func RecordFallback(kind string) {
	fallbackCounter.WithLabelValues(kind).Inc()
}

// RecordHTTPRequest counts a served request.
func RecordHTTPRequest(route string, status int) {
	httpRequests.WithLabelValues(route, statusClass(status)).Inc()
}

// RecordRateLimited counts a rejected request.
func RecordRateLimited() {
	rateLimited.Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
