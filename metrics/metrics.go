package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CatalogChannels tracks the number of channels in the catalog per category
	CatalogChannels = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "iptv_catalog_channels",
		Help: "Number of channels in the catalog by category",
	}, []string{"category"})

	// PlaylistImports tracks playlist import attempts by source and result
	PlaylistImports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptv_playlist_imports_total",
		Help: "Total number of playlist import attempts",
	}, []string{"source", "result"})

	// PlaylistEntriesImported tracks channels added through playlist imports
	PlaylistEntriesImported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "iptv_playlist_entries_imported_total",
		Help: "Total number of channels added by playlist imports",
	})

	// PlaylistFetches tracks remote playlist fetches by strategy and result
	PlaylistFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptv_playlist_fetch_total",
		Help: "Total number of remote playlist fetch attempts",
	}, []string{"strategy", "result"})

	// PlaybackErrors tracks fatal playback errors
	PlaybackErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "iptv_playback_errors_total",
		Help: "Total number of fatal playback errors",
	})

	// CatalogPersistFailures tracks failed writes of the catalog document
	CatalogPersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "iptv_catalog_persist_failures_total",
		Help: "Total number of failed catalog persist operations",
	})

	// CircuitBreakerState tracks the current state of circuit breakers
	// 0=closed, 1=open, 2=half-open
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "iptv_circuit_breaker_state",
		Help: "Current state of circuit breaker (0=closed, 1=open, 2=half-open)",
	}, []string{"breaker"})

	// CircuitBreakerTrips tracks how many times a circuit breaker transitioned to OPEN
	CircuitBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptv_circuit_breaker_trips_total",
		Help: "Total number of times circuit breaker transitioned to OPEN state",
	}, []string{"breaker"})

	// HTTPRequestDuration tracks API latency by route template, method and status
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "iptv_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
)

// SetCatalogChannels sets the channel gauge for a category
func SetCatalogChannels(category string, count int) {
	CatalogChannels.WithLabelValues(category).Set(float64(count))
}

// RecordPlaylistImport records an import attempt and, on success, the number of added channels
func RecordPlaylistImport(source, result string, added int) {
	PlaylistImports.WithLabelValues(source, result).Inc()
	if added > 0 {
		PlaylistEntriesImported.Add(float64(added))
	}
}

// RecordPlaylistFetch records a fetch attempt for the given strategy
func RecordPlaylistFetch(strategy, result string) {
	PlaylistFetches.WithLabelValues(strategy, result).Inc()
}

// RecordPlaybackError increments the playback error counter
func RecordPlaybackError() {
	PlaybackErrors.Inc()
}

// RecordCatalogPersistFailure increments the persist failure counter
func RecordCatalogPersistFailure() {
	CatalogPersistFailures.Inc()
}

// SetCircuitBreakerState sets the circuit breaker state gauge
func SetCircuitBreakerState(breaker string, state string) {
	var value float64
	switch state {
	case "CLOSED":
		value = 0
	case "OPEN":
		value = 1
	case "HALF-OPEN":
		value = 2
	}
	CircuitBreakerState.WithLabelValues(breaker).Set(value)
}

// RecordCircuitBreakerTrip increments the circuit breaker trip counter
func RecordCircuitBreakerTrip(breaker string) {
	CircuitBreakerTrips.WithLabelValues(breaker).Inc()
}

// ObserveHTTPRequest records the duration of a served request
func ObserveHTTPRequest(route, method string, status int, seconds float64) {
	HTTPRequestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(seconds)
}
