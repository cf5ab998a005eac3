package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tourlab/internal/model"
	"tourlab/internal/tour"
	"tourlab/internal/tspio"
)

// ProblemsHandler handles POST/GET /v1/problems
func (s *Server) ProblemsHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/problems" {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req model.Problem
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateProblem(&req, s.Cfg.Scale); err != nil {
			writeError(w, "Invalid problem", err, r.URL.Path)
			return
		}
		p, err := s.Store.CreateProblem(r.Context(), req)
		if err != nil {
			writeError(w, "Create problem failed", err, r.URL.Path)
			return
		}
		s.Log.Info().Str("problem", p.ID).Int("nodes", len(p.Nodes)).Msg("problem created")
		w.Header().Set("ETag", etag(p.Version))
		writeJSON(w, http.StatusCreated, p)
	case http.MethodGet:
		limit, err := queryInt(r, "limit", 100)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid query", err.Error(), r.URL.Path)
			return
		}
		items, next, err := s.Store.ListProblems(r.Context(), r.URL.Query().Get("cursor"), limit)
		if err != nil {
			writeError(w, "List problems failed", err, r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ImportHandler handles POST /v1/problems/import with a TSPLIB body.
// An optional ?scale= overrides the configured grid scale.
func (s *Server) ImportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	scale := s.Cfg.Scale
	if v := r.URL.Query().Get("scale"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid query", "scale must be a positive number", r.URL.Path)
			return
		}
		scale = f
	}
	in, err := tspio.Parse(http.MaxBytesReader(w, r.Body, 8<<20), scale)
	if err != nil {
		writeError(w, "Import failed", err, r.URL.Path)
		return
	}
	p, err := s.Store.CreateProblem(r.Context(), in)
	if err != nil {
		writeError(w, "Create problem failed", err, r.URL.Path)
		return
	}
	s.Log.Info().Str("problem", p.ID).Int("nodes", len(p.Nodes)).Msg("problem imported")
	w.Header().Set("ETag", etag(p.Version))
	writeJSON(w, http.StatusCreated, p)
}

// ProblemByIDHandler handles /v1/problems/{id} and its sub-resources:
// nodes, export, tikz, tours and events/stream.
func (s *Server) ProblemByIDHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	rest := strings.TrimPrefix(path, "/v1/problems/")
	if rest == path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", path)
		return
	}
	parts := strings.Split(strings.TrimSuffix(rest, "/"), "/")
	id := parts[0]
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			p, err := s.Store.GetProblem(r.Context(), id)
			if err != nil {
				writeError(w, "Problem not found", err, path)
				return
			}
			w.Header().Set("ETag", etag(p.Version))
			writeJSON(w, http.StatusOK, p)
		case http.MethodDelete:
			if err := s.Store.DeleteProblem(r.Context(), id); err != nil {
				writeError(w, "Delete problem failed", err, path)
				return
			}
			s.Broker.Publish(id, SSEEvent{Type: EventProblemDeleted, Data: map[string]any{"problemId": id}})
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	switch parts[1] {
	case "nodes":
		s.nodesHandler(w, r, id, parts[2:])
	case "export":
		s.exportHandler(w, r, id)
	case "tikz":
		s.tikzHandler(w, r, id)
	case "tours":
		s.toursHandler(w, r, id)
	case "events":
		if len(parts) == 3 && parts[2] == "stream" {
			s.streamHandler(w, r, id)
			return
		}
		writeProblem(w, http.StatusNotFound, "Not Found", "", path)
	default:
		writeProblem(w, http.StatusNotFound, "Not Found", "", path)
	}
}

// nodesHandler edits the node set. Every edit bumps the problem version;
// an If-Match header pins the version the edit was made against.
func (s *Server) nodesHandler(w http.ResponseWriter, r *http.Request, id string, sub []string) {
	ifVersion, err := ifMatch(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid If-Match", err.Error(), r.URL.Path)
		return
	}
	edit := func(fn func(model.NodeSet) (model.NodeSet, error)) {
		p, err := s.Store.GetProblem(r.Context(), id)
		if err != nil {
			writeError(w, "Problem not found", err, r.URL.Path)
			return
		}
		if ifVersion != 0 && ifVersion != p.Version {
			writeProblem(w, http.StatusPreconditionFailed, "Version mismatch",
				fmt.Sprintf("problem is at version %d", p.Version), r.URL.Path)
			return
		}
		nodes, err := fn(p.Nodes.Clone())
		if err != nil {
			writeError(w, "Edit nodes failed", err, r.URL.Path)
			return
		}
		up, err := s.Store.UpdateNodes(r.Context(), id, p.Version, nodes)
		if err != nil {
			writeError(w, "Edit nodes failed", err, r.URL.Path)
			return
		}
		s.Broker.Publish(id, SSEEvent{Type: EventProblemUpdated, Data: map[string]any{
			"problemId": id, "version": up.Version, "nodes": len(up.Nodes),
		}})
		w.Header().Set("ETag", etag(up.Version))
		writeJSON(w, http.StatusOK, up)
	}

	switch {
	case len(sub) == 0:
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req NodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		edit(func(ns model.NodeSet) (model.NodeSet, error) {
			ns = ns.Add(req.X, req.Y, req.Color)
			ns[len(ns)-1].Start = req.Start
			return ns, ns.Validate()
		})
	case len(sub) == 1 || (len(sub) == 2 && sub[1] == "start"):
		nid, err := strconv.Atoi(sub[0])
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid node id", err.Error(), r.URL.Path)
			return
		}
		if len(sub) == 1 {
			if r.Method != http.MethodDelete {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			edit(func(ns model.NodeSet) (model.NodeSet, error) { return ns.Remove(nid) })
			return
		}
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		edit(func(ns model.NodeSet) (model.NodeSet, error) { return ns, ns.ToggleStart(nid) })
	default:
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
	}
}

// exportHandler writes the problem as a TSPLIB file.
func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	p, err := s.Store.GetProblem(r.Context(), id)
	if err != nil {
		writeError(w, "Problem not found", err, r.URL.Path)
		return
	}
	var buf bytes.Buffer
	if err := tspio.Write(&buf, p, p.Scale); err != nil {
		writeError(w, "Export failed", err, r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName(p.Name, ".tsp")))
	_, _ = w.Write(buf.Bytes())
}

// tikzHandler renders the layout as LaTeX. ?trace= overlays the final tour
// of one of the problem's traces.
func (s *Server) tikzHandler(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	p, err := s.Store.GetProblem(r.Context(), id)
	if err != nil {
		writeError(w, "Problem not found", err, r.URL.Path)
		return
	}
	var path tour.Tour
	if tid := r.URL.Query().Get("trace"); tid != "" {
		rec, tr, err := s.loadTrace(r.Context(), tid)
		if err != nil {
			writeError(w, "Trace not found", err, r.URL.Path)
			return
		}
		if rec.ProblemID != p.ID || rec.ProblemVersion != p.Version {
			writeProblem(w, http.StatusConflict, "Trace does not match problem",
				"trace was built for another problem or version", r.URL.Path)
			return
		}
		if st, ok := tr.Final(); ok {
			path = st.Tour
		}
	}
	var buf bytes.Buffer
	if err := tspio.WriteTikz(&buf, p.Nodes, p.Scale, path); err != nil {
		writeError(w, "Render failed", err, r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "application/x-tex; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// StrategiesHandler lists the tour strategies in menu order.
func (s *Server) StrategiesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": tour.Strategies()})
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	// Check DB connectivity when using Postgres store
	type pinger interface{ Ping(ctx context.Context) error }
	if pg, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			writeProblem(w, 503, "Not Ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, 200, map[string]string{"status": "ready"})
}

func etag(version int) string { return strconv.Quote(strconv.Itoa(version)) }

// ifMatch reads a version from If-Match, 0 when absent.
func ifMatch(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.Header.Get("If-Match"))
	if v == "" || v == "*" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.Trim(strings.TrimPrefix(v, "W/"), `"`))
	if err != nil || n <= 0 {
		return 0, errors.New("If-Match must carry a problem version")
	}
	return n, nil
}

// fileName turns a problem name into a download name.
func fileName(name, ext string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, name)
	if name == "" {
		name = "problem"
	}
	return name + ext
}
