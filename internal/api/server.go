package api

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/tinylru"
	"golang.org/x/time/rate"

	"tourlab/internal/config"
	"tourlab/internal/logging"
	"tourlab/internal/solver"
	"tourlab/internal/store"
	"tourlab/internal/tour"
)

type Server struct {
	Cfg      config.Config
	Log      zerolog.Logger
	Store    store.Store
	Broker   EventBroker
	Solver   tour.ExactSolver
	Sessions *SessionRegistry

	traces  tinylru.LRU
	limiter *rate.Limiter
}

// NewServer wires a Server from cfg. Without a database URL the in-memory
// store is used; without a Redis URL events stay in process.
func NewServer(cfg config.Config, log zerolog.Logger) (*Server, error) {
	var s store.Store
	if strings.TrimSpace(cfg.Database.URL) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		if cfg.Database.Migrate {
			if err := sp.Migrate(context.Background()); err != nil {
				sp.Close()
				return nil, err
			}
		}
		s = sp
	}
	var broker EventBroker
	if cfg.Redis.URL != "" {
		if rb, err := NewRedisBroker(cfg.Redis.URL); err == nil {
			broker = rb
		} else {
			log.Warn().Err(err).Msg("redis broker unavailable, using in-memory events")
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}
	concorde := solver.NewConcorde(solver.Options{
		Binaries: cfg.Solver.Binaries,
		Timeout:  cfg.Solver.Timeout,
		Logger:   logging.Component(log, "solver"),
	})
	srv := &Server{
		Cfg:      cfg,
		Log:      logging.Component(log, "api"),
		Store:    s,
		Broker:   broker,
		Solver:   solver.NewLimited(concorde, cfg.Solver.RPS, cfg.Solver.Burst),
		Sessions: NewSessionRegistry(),
		limiter:  rate.NewLimiter(rate.Limit(cfg.Rate.RPS), cfg.Rate.Burst),
	}
	srv.traces.Resize(cfg.Cache.Traces)
	return srv, nil
}

// Close releases the store and broker connections.
func (s *Server) Close() error {
	if c, ok := s.Broker.(interface{ Close() error }); ok {
		_ = c.Close()
	}
	if c, ok := s.Store.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
