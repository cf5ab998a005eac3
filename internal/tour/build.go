package tour

import (
	"context"
	"fmt"

	"tourlab/internal/model"
)

// ExactSolver produces an optimal closed tour. Implementations live in
// package solver.
type ExactSolver interface {
	Solve(ctx context.Context, nodes model.NodeSet, scale float64) (Tour, error)
}

// Result is the outcome of one Build call.
type Result struct {
	Strategy Strategy `json:"strategy"`
	Trace    Trace    `json:"steps"`
}

// Final returns the answer step. False means there was nothing to build.
func (r Result) Final() (Step, bool) { return r.Trace.Final() }

// Build dispatches to a strategy. The node set is validated and copied
// first, so callers may keep editing theirs.
//
// Empty node sets are not an error: the result carries a nil trace, except
// for StrategyNone which always yields the empty step.
func (b *Builder) Build(ctx context.Context, s Strategy, nodes model.NodeSet, opts Options) (Result, error) {
	if err := nodes.Validate(); err != nil {
		return Result{}, err
	}
	if opts.Start != nil && (*opts.Start < 0 || *opts.Start >= len(nodes)) {
		return Result{}, fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidStart, *opts.Start, len(nodes))
	}
	nodes = nodes.Clone()
	rng := b.source(opts)
	res := Result{Strategy: s}

	switch s {
	case StrategyNone:
		res.Trace = Trace{EmptySolution()}
	case StrategyConvexHull:
		if st, ok := b.ConvexHullTour(nodes, opts.scale()); ok {
			res.Trace = Trace{EmptySolution(), st}
		}
	case StrategyNearestNeighbor:
		res.Trace = nearestNeighbor(nodes, opts.scale(), rng)
	case StrategyHumanModel:
		res.Trace = humanModel(nodes, opts, rng)
	case StrategyTwoOpt:
		res.Trace = twoOpt(nodes, opts, rng)
	case StrategyOptimal:
		tr, err := b.optimal(ctx, nodes, opts.scale())
		if err != nil {
			return Result{}, err
		}
		res.Trace = tr
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
	return res, nil
}

func (b *Builder) optimal(ctx context.Context, nodes model.NodeSet, scale float64) (Trace, error) {
	if b.exact == nil {
		return nil, ErrSolverUnavailable
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	t, err := b.exact.Solve(ctx, nodes, scale)
	if err != nil {
		return nil, fmt.Errorf("tour: exact solve: %w", err)
	}
	if err := t.CheckComplete(len(nodes)); err != nil {
		return nil, err
	}
	return Trace{EmptySolution(), newStep(t, LabelUnknown, LabelUnknown, nodes, scale)}, nil
}
