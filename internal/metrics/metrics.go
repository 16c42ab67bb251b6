package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	GeocodeRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maps_geocode_requests_total",
		Help: "Geocoding requests by provider and outcome",
	}, []string{"provider", "outcome"})
	GeocodeDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "maps_geocode_duration_ms",
		Help:    "Geocoding request duration in milliseconds",
		Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000},
	}, []string{"provider"})
	GeocodeCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maps_geocode_cache_total",
		Help: "Geocode cache lookups by result",
	}, []string{"result"})
	RouteRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maps_route_requests_total",
		Help: "Directions requests by outcome",
	}, []string{"outcome"})
	LoadDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "maps_load_duration_ms",
		Help:    "Map load duration until first publish in milliseconds",
		Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000},
	})
	LoadsSupersededTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "maps_loads_superseded_total",
		Help: "Load cycles discarded because a newer load started",
	})
	ProviderFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "maps_provider_fallback_total",
		Help: "Load cycles that switched from MapBox to OpenStreetMap",
	})
	CoordinatesWrittenTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maps_coordinates_written_total",
		Help: "Resolved coordinates written back by outcome",
	}, []string{"outcome"})
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "maps_active_sessions",
		Help: "Open map sessions",
	})
)

func init() {
	prometheus.MustRegister(GeocodeRequestsTotal)
	prometheus.MustRegister(GeocodeDurationMs)
	prometheus.MustRegister(GeocodeCacheTotal)
	prometheus.MustRegister(RouteRequestsTotal)
	prometheus.MustRegister(LoadDurationMs)
	prometheus.MustRegister(LoadsSupersededTotal)
	prometheus.MustRegister(ProviderFallbackTotal)
	prometheus.MustRegister(CoordinatesWrittenTotal)
	prometheus.MustRegister(ActiveSessions)
}

// Handler exposes the registered metrics for scraping.
func Handler() http.Handler { return promhttp.Handler() }
