package api

import (
	"net/http"

	"tourlab/internal/metrics"
)

// Routes registers every endpoint on a new mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Problems
	mux.HandleFunc("/v1/problems", s.ProblemsHandler)
	mux.HandleFunc("/v1/problems/import", s.ImportHandler)
	mux.HandleFunc("/v1/problems/", s.ProblemByIDHandler) // includes /nodes, /export, /tikz, /tours, /events/stream

	// Traces
	mux.HandleFunc("/v1/traces/", s.TraceByIDHandler) // includes /steps/{n}, /play, /sessions
	mux.HandleFunc("/v1/strategies", s.StrategiesHandler)

	// Health
	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/debug/info", s.DebugJSON)

	// Docs
	mux.HandleFunc("/openapi.yaml", s.OpenAPIHandler)
	mux.HandleFunc("/openapi.json", s.OpenAPIJSONHandler)
	mux.HandleFunc("/docs", s.DocsHandler)
	return mux
}

// Handler is Routes wrapped in Middleware.
func (s *Server) Handler() http.Handler { return s.Middleware(s.Routes()) }
