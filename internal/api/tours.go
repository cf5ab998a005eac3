package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tourlab/internal/metrics"
	"tourlab/internal/model"
	"tourlab/internal/solver"
	"tourlab/internal/tour"
)

// TraceView is a stored trace with its final step pulled out.
type TraceView struct {
	model.TraceRecord
	Final *tour.Step `json:"final,omitempty"`
}

// StepView is one step of a trace with its playback position.
type StepView struct {
	Index      int       `json:"index"`
	Len        int       `json:"len"`
	CanBack    bool      `json:"canBack"`
	CanForward bool      `json:"canForward"`
	Step       tour.Step `json:"step"`
}

func newTraceView(rec model.TraceRecord, tr tour.Trace) TraceView {
	v := TraceView{TraceRecord: rec}
	if st, ok := tr.Final(); ok {
		v.Final = &st
	}
	return v
}

// toursHandler handles POST (build) and GET (list) on /v1/problems/{id}/tours.
func (s *Server) toursHandler(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodPost:
		s.buildTour(w, r, id)
	case http.MethodGet:
		limit, err := queryInt(r, "limit", 100)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid query", err.Error(), r.URL.Path)
			return
		}
		items, next, err := s.Store.ListTraces(r.Context(), id, r.URL.Query().Get("cursor"), limit)
		if err != nil {
			writeError(w, "List traces failed", err, r.URL.Path)
			return
		}
		views := make([]TraceView, 0, len(items))
		for _, rec := range items {
			var tr tour.Trace
			if err := json.Unmarshal(rec.Steps, &tr); err != nil {
				s.Log.Warn().Err(err).Str("problem", id).Str("trace", rec.ID).Msg("decode trace failed")
			}
			views = append(views, newTraceView(rec, tr))
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": views, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) buildTour(w http.ResponseWriter, r *http.Request, id string) {
	p, err := s.Store.GetProblem(r.Context(), id)
	if err != nil {
		writeError(w, "Problem not found", err, r.URL.Path)
		return
	}
	var req TourRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	st, opts, err := validateTourRequest(&req, len(p.Nodes), p.Scale)
	if err != nil {
		writeError(w, "Invalid tour request", err, r.URL.Path)
		return
	}

	key := ""
	if deterministic(st, opts, len(p.Nodes.Starts()) > 0) {
		key = cacheKey(p, st, req)
		if v, ok := s.traces.Get(key); ok {
			metrics.TraceCacheHits.Inc()
			w.Header().Set("X-Cache", "hit")
			writeJSON(w, http.StatusOK, v.(TraceView))
			return
		}
		metrics.TraceCacheMisses.Inc()
	}

	b := tour.NewBuilder(nil, tour.WithExactSolver(s.Solver))
	start := time.Now()
	res, err := b.Build(r.Context(), st, p.Nodes, opts)
	metrics.TourBuildDuration.WithLabelValues(string(st)).Observe(time.Since(start).Seconds())
	if st == tour.StrategyOptimal {
		metrics.ExactSolverRuns.WithLabelValues(solver.Outcome(err)).Inc()
	}
	if err != nil {
		metrics.TourBuilds.WithLabelValues(string(st), "error").Inc()
		s.Log.Warn().Err(err).Str("problem", id).Str("strategy", string(st)).Msg("tour build failed")
		writeError(w, "Tour build failed", err, r.URL.Path)
		return
	}
	metrics.TourBuilds.WithLabelValues(string(st), "ok").Inc()
	metrics.TourBuildSteps.WithLabelValues(string(st)).Observe(float64(len(res.Trace)))

	trace := res.Trace
	if trace == nil {
		trace = tour.Trace{}
	}
	steps, err := json.Marshal(trace)
	if err != nil {
		writeError(w, "Encode trace failed", err, r.URL.Path)
		return
	}
	rec, err := s.Store.SaveTrace(r.Context(), model.TraceRecord{
		ProblemID:      p.ID,
		ProblemVersion: p.Version,
		Strategy:       string(st),
		Steps:          steps,
	})
	if err != nil {
		writeError(w, "Save trace failed", err, r.URL.Path)
		return
	}
	view := newTraceView(rec, trace)
	if key != "" {
		s.traces.Set(key, view)
	}
	evt := map[string]any{"problemId": p.ID, "traceId": rec.ID, "strategy": rec.Strategy, "steps": len(trace)}
	if view.Final != nil {
		evt["tourLength"] = view.Final.TourLength
	}
	s.Broker.Publish(p.ID, SSEEvent{Type: EventTraceCreated, Data: evt})
	s.Log.Info().Str("problem", p.ID).Str("trace", rec.ID).Str("strategy", rec.Strategy).
		Int("steps", len(trace)).Dur("took", time.Since(start)).Msg("tour built")
	w.Header().Set("X-Cache", "miss")
	writeJSON(w, http.StatusCreated, view)
}

// cacheKey identifies a deterministic build: the same problem version and
// the same normalized request.
func cacheKey(p model.Problem, st tour.Strategy, req TourRequest) string {
	start := "-"
	if req.Start != nil {
		start = strconv.Itoa(*req.Start)
	}
	dir, _ := tour.ParseDirection(req.Direction)
	return fmt.Sprintf("%s@%d|%s|%s|%s|%d|%d", p.ID, p.Version, st, start, dir, req.Seed, req.Passes)
}

// TraceByIDHandler handles /v1/traces/{id}, /steps/{n}, /play and /sessions.
func (s *Server) TraceByIDHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	rest := strings.TrimPrefix(path, "/v1/traces/")
	if rest == path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", path)
		return
	}
	parts := strings.Split(strings.TrimSuffix(rest, "/"), "/")
	id := parts[0]
	if len(parts) > 1 && parts[1] == "play" {
		s.PlaybackHandler(w, r, id)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch {
	case len(parts) == 1:
		rec, tr, err := s.loadTrace(r.Context(), id)
		if err != nil {
			writeError(w, "Trace not found", err, path)
			return
		}
		writeJSON(w, http.StatusOK, newTraceView(rec, tr))
	case len(parts) == 3 && parts[1] == "steps":
		_, tr, err := s.loadTrace(r.Context(), id)
		if err != nil {
			writeError(w, "Trace not found", err, path)
			return
		}
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid step", err.Error(), path)
			return
		}
		st, ok := tr.At(n)
		if !ok {
			writeProblem(w, http.StatusNotFound, "Step not found",
				fmt.Sprintf("step %d not in [0,%d)", n, len(tr)), path)
			return
		}
		writeJSON(w, http.StatusOK, StepView{
			Index: n, Len: len(tr), CanBack: n > 0, CanForward: n < len(tr)-1, Step: st,
		})
	case len(parts) == 2 && parts[1] == "sessions":
		if _, err := s.Store.GetTrace(r.Context(), id); err != nil {
			writeError(w, "Trace not found", err, path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": s.Sessions.ListByTrace(id)})
	default:
		writeProblem(w, http.StatusNotFound, "Not Found", "", path)
	}
}

func (s *Server) loadTrace(ctx context.Context, id string) (model.TraceRecord, tour.Trace, error) {
	rec, err := s.Store.GetTrace(ctx, id)
	if err != nil {
		return rec, nil, err
	}
	var tr tour.Trace
	if err := json.Unmarshal(rec.Steps, &tr); err != nil {
		return rec, nil, fmt.Errorf("trace %s: %w", id, err)
	}
	return rec, tr, nil
}
