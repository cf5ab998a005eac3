package api

import (
	"errors"
	"fmt"

	"tourlab/internal/model"
	"tourlab/internal/tour"
)

// TourRequest is the body of POST /v1/problems/{id}/tours.
type TourRequest struct {
	Strategy  string `json:"strategy"`
	Start     *int   `json:"start,omitempty"`
	Direction string `json:"direction,omitempty"`
	Seed      int64  `json:"seed,omitempty"`
	Passes    int    `json:"passes,omitempty"`
}

// NodeRequest is the body of POST /v1/problems/{id}/nodes.
type NodeRequest struct {
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Color model.Color `json:"color"`
	Start bool        `json:"start,omitempty"`
}

const maxPasses = 1000

// errInvalidRequest marks request fields that fail validation.
var errInvalidRequest = errors.New("invalid request")

// validateTourRequest resolves the request into a strategy and options for
// a problem with n nodes.
func validateTourRequest(req *TourRequest, n int, scale float64) (tour.Strategy, tour.Options, error) {
	st, err := tour.ParseStrategy(req.Strategy)
	if err != nil {
		return "", tour.Options{}, err
	}
	opts := tour.Options{Scale: scale, Seed: req.Seed, Start: req.Start}
	if req.Direction != "" {
		if opts.Direction, err = tour.ParseDirection(req.Direction); err != nil {
			return "", tour.Options{}, err
		}
	}
	if req.Start != nil && (*req.Start < 0 || *req.Start >= n) {
		return "", tour.Options{}, fmt.Errorf("%w: %d not in [0,%d)", tour.ErrInvalidStart, *req.Start, n)
	}
	if req.Passes < 0 || req.Passes > maxPasses {
		return "", tour.Options{}, fmt.Errorf("%w: passes must be in [0,%d]", errInvalidRequest, maxPasses)
	}
	opts.Passes = req.Passes
	return st, opts, nil
}

// deterministic reports whether two identical requests on the same problem
// version must yield the same trace. marked tells whether the problem has
// start nodes, which the human model draws from even when a start is given.
func deterministic(st tour.Strategy, opts tour.Options, marked bool) bool {
	switch st {
	case tour.StrategyNone, tour.StrategyConvexHull, tour.StrategyOptimal:
		return true
	case tour.StrategyHumanModel:
		if opts.Seed != 0 {
			return true
		}
		return !marked && opts.Start != nil && opts.Direction != tour.DirectionUnspecified
	default:
		return opts.Seed != 0
	}
}

func validateProblem(p *model.Problem, defScale float64) error {
	if p.Scale == 0 {
		p.Scale = defScale
	}
	if p.Scale < 0 {
		return fmt.Errorf("%w: scale must be positive", model.ErrInvalidNodeSet)
	}
	p.Nodes.Reindex()
	return p.Nodes.Validate()
}
