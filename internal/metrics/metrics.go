package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Ingest metrics
	FixesReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_fixes_received_total",
			Help: "Total location fixes handed to the session engine",
		},
	)

	FixesAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_fixes_accepted_total",
			Help: "Location fixes accepted into the route",
		},
	)

	FixesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_fixes_dropped_total",
			Help: "Location fixes not recorded, by reason",
		},
		[]string{"reason"},
	)

	// Persistence metrics
	PersistenceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_persistence_failures_total",
			Help: "Failed persistence gateway calls",
		},
		[]string{"operation"},
	)

	// Session metrics
	SessionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_session_transitions_total",
			Help: "Session state transitions",
		},
		[]string{"transition"},
	)

	SessionActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_session_active",
			Help: "1 while a session is active or paused",
		},
	)

	SessionDistanceKm = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracker_session_distance_km",
			Help:    "Distance of finalized sessions in kilometers",
			Buckets: []float64{.5, 1, 2, 5, 10, 21.1, 42.2, 100},
		},
	)

	CommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracker_command_duration_seconds",
			Help:    "Time spent executing coordinator commands",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"command"},
	)

	// Event metrics
	EventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_events_dropped_total",
			Help: "Events not delivered to a subscriber that was not listening",
		},
	)

	RelayPublishErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_relay_publish_errors_total",
			Help: "Events that failed to publish to Redis",
		},
	)
)

func init() {
	prometheus.MustRegister(
		FixesReceived,
		FixesAccepted,
		FixesDropped,
		PersistenceFailures,
		SessionTransitions,
		SessionActive,
		SessionDistanceKm,
		CommandDuration,
		EventsDropped,
		RelayPublishErrors,
	)
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
