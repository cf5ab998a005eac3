package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, route, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// TourBuilds counts tour constructions by strategy and result
	TourBuilds = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "tour_builds_total", Help: "Tour constructions by strategy and result."},
		[]string{"strategy", "result"},
	)
	// TourBuildDuration tracks construction time per strategy
	TourBuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "tour_build_duration_seconds", Help: "Tour construction time in seconds.", Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5, 30}},
		[]string{"strategy"},
	)
	// TourBuildSteps records trace lengths per strategy
	TourBuildSteps = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "tour_build_steps", Help: "Steps recorded per construction.", Buckets: prometheus.ExponentialBuckets(2, 2, 9)},
		[]string{"strategy"},
	)
	// ExactSolverRuns counts external solver invocations by outcome
	ExactSolverRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "exact_solver_runs_total", Help: "External exact solver runs by outcome."},
		[]string{"outcome"},
	)

	// TraceCacheHits and TraceCacheMisses count trace cache lookups
	TraceCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "trace_cache_hits_total", Help: "Trace cache hits."},
	)
	TraceCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "trace_cache_misses_total", Help: "Trace cache misses."},
	)

	// PlaybackSessions is the number of open websocket playback sessions
	PlaybackSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "playback_sessions", Help: "Open trace playback sockets."},
	)
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(TourBuilds)
		Registry.MustRegister(TourBuildDuration)
		Registry.MustRegister(TourBuildSteps)
		Registry.MustRegister(ExactSolverRuns)
		Registry.MustRegister(TraceCacheHits)
		Registry.MustRegister(TraceCacheMisses)
		Registry.MustRegister(PlaybackSessions)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	RegisterDefault()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
