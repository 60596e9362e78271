package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bandfest_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bandfest_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})
)

// Render metrics
var (
	CardRendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bandfest_card_renders_total",
		Help: "Total number of lineup card renders",
	}, []string{"rotation"})

	PageRendersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bandfest_page_renders_total",
		Help: "Total number of lineup page renders",
	})

	ElementUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bandfest_element_updates_total",
		Help: "Total number of settled card element updates",
	})
)

// Store metrics
var (
	StoreOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bandfest_store_operations_total",
		Help: "Total number of artist store operations",
	}, []string{"backend", "op"})
)

// Live update metrics
var (
	LiveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bandfest_live_subscribers",
		Help: "Number of connected live lineup subscribers",
	})

	LiveBroadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bandfest_live_broadcasts_total",
		Help: "Total number of live card updates broadcast",
	})

	LiveDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bandfest_live_dropped_total",
		Help: "Total number of subscribers dropped for falling behind",
	})
)

// Business metrics (gauges updated periodically by collector)
var (
	LineupArtistsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bandfest_lineup_artists_total",
		Help: "Total number of artists on the lineup",
	})

	LineupHeadlinersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bandfest_lineup_headliners_total",
		Help: "Total number of headliners on the lineup",
	})
)

// NormalizePath reduces high-cardinality path labels by replacing dynamic
// segments with placeholders. This keeps the metric label space bounded.
func NormalizePath(path string) string {
	// Static assets - collapse into one label
	if len(path) > 8 && path[:8] == "/static/" {
		return "/static/*"
	}

	segments := splitPath(path)
	if len(segments) < 2 {
		return path
	}

	switch segments[0] {
	case "lineup":
		if len(segments) == 2 && segments[1] != "card" {
			return "/lineup/:slug"
		}
	case "api":
		if len(segments) == 3 && segments[1] == "artists" {
			return "/api/artists/:slug"
		}
	}

	return path
}

func splitPath(path string) []string {
	// Skip leading slash
	if len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
