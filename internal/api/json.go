package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"tourlab/internal/model"
	"tourlab/internal/solver"
	"tourlab/internal/store"
	"tourlab/internal/tour"
	"tourlab/internal/tspio"
)

// Problem represents an RFC7807 problem details response body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidNodeSet),
		errors.Is(err, tour.ErrUnknownStrategy),
		errors.Is(err, tour.ErrUnknownDirection),
		errors.Is(err, tour.ErrInvalidStart),
		errors.Is(err, tspio.ErrMalformed),
		errors.Is(err, errInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, tour.ErrSolverUnavailable), errors.Is(err, solver.ErrUnsupportedPlatform):
		return http.StatusNotImplemented
	case errors.Is(err, solver.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, solver.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, title string, err error, instance string) {
	writeProblem(w, statusFor(err), title, err.Error(), instance)
}

// queryInt reads a non-negative integer query parameter, def when absent.
func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(key + " must be a non-negative integer")
	}
	return n, nil
}
