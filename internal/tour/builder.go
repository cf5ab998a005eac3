package tour

import (
	"math/rand"
	"time"

	"tourlab/internal/geom"
	"tourlab/internal/model"
)

// Builder runs the construction strategies. A Builder owns its random
// source and is not safe for concurrent use; create one per request.
type Builder struct {
	src   Source
	exact ExactSolver
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithExactSolver enables the optimal strategy.
func WithExactSolver(s ExactSolver) BuilderOption {
	return func(b *Builder) { b.exact = s }
}

// NewBuilder returns a Builder drawing from src. A nil src falls back to a
// time-seeded generator.
func NewBuilder(src Source, opts ...BuilderOption) *Builder {
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	b := &Builder{src: src}
	for _, o := range opts {
		o(b)
	}
	return b
}

// NewSeededBuilder returns a Builder whose draws are fixed by seed.
func NewSeededBuilder(seed int64, opts ...BuilderOption) *Builder {
	return NewBuilder(rand.New(rand.NewSource(seed)), opts...)
}

func (b *Builder) source(opts Options) Source {
	if opts.Seed != 0 {
		return rand.New(rand.NewSource(opts.Seed))
	}
	return b.src
}

func (o Options) scale() float64 {
	if o.Scale <= 0 {
		return geom.DefaultScale
	}
	return o.Scale
}

func newStep(t Tour, start, direction string, nodes model.NodeSet, scale float64) Step {
	return Step{
		Tour:       t.Clone(),
		TourLength: geom.PathLength(nodes, scale, t),
		Start:      start,
		Direction:  direction,
	}
}

// EmptySolution is the zero step used to clear a displayed tour and to seed
// every trace.
func EmptySolution() Step {
	return Step{Tour: Tour{}}
}

// ConvexHullTour returns the closed hull of nodes, clockwise on screen from
// the top-left node. It returns false for an empty node set.
func (b *Builder) ConvexHullTour(nodes model.NodeSet, scale float64) (Step, bool) {
	hull, ok := geom.HullAsIDs(nodes)
	if !ok {
		return Step{}, false
	}
	return newStep(hull, LabelHullStart, LabelClockwise, nodes, scale), true
}

// NearestNeighborTour starts at a random node (preferring marked start
// nodes) and keeps moving to the closest unvisited node, then closes the
// loop. The trace holds the empty step, one step per visited node and the
// closing step, so it has len(nodes)+2 entries. An empty node set yields a
// nil trace.
func (b *Builder) NearestNeighborTour(nodes model.NodeSet, scale float64) Trace {
	return nearestNeighbor(nodes, scale, b.src)
}

func nearestNeighbor(nodes model.NodeSet, scale float64, rng Source) Trace {
	if len(nodes) == 0 {
		return nil
	}
	remaining := nodes.Clone()
	starts, label := remaining.Starts(), LabelMarkedStart
	if len(starts) == 0 {
		starts, label = remaining, LabelRandomStart
	}
	current := starts[rng.Intn(len(starts))]

	trace := Trace{EmptySolution()}
	path := make(Tour, 0, len(nodes)+1)
	for {
		path = append(path, current.ID)
		remaining = without(remaining, current.ID)
		trace = append(trace, newStep(path, label, LabelRandom, nodes, scale))
		if len(remaining) == 0 {
			break
		}
		next, _ := geom.NearestUnvisited(remaining, current)
		current = remaining[next]
	}
	path = append(path, path[0])
	return append(trace, newStep(path, label, LabelRandom, nodes, scale))
}

// without drops the node with the given id, keeping the others' ids.
func without(ns model.NodeSet, id int) model.NodeSet {
	for i, n := range ns {
		if n.ID == id {
			return append(ns[:i:i], ns[i+1:]...)
		}
	}
	return ns
}
