package api

import (
	"net/http"
	"runtime"
	"time"

	"tourlab/internal/buildinfo"
	"tourlab/internal/tour"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	bin := s.Cfg.Solver.Binaries[runtime.GOOS]
	info := map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"port":           s.Cfg.Port,
			"scale":          s.Cfg.Scale,
			"logLevel":       s.Cfg.Log.Level,
			"rateRps":        s.Cfg.Rate.RPS,
			"rateBurst":      s.Cfg.Rate.Burst,
			"traceCache":     s.Cfg.Cache.Traces,
			"solverBinary":   bin,
			"solverTimeout":  s.Cfg.Solver.Timeout.String(),
			"hasDatabaseUrl": s.Cfg.Database.URL != "",
			"hasRedisUrl":    s.Cfg.Redis.URL != "",
		},
		"playbackSessions": s.Sessions.Count(),
		"cachedTraces":     s.traces.Len(),
		"strategies":       tour.Strategies(),
	}
	writeJSON(w, http.StatusOK, info)
}
