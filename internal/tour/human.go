package tour

import (
	"fmt"
	"math"

	"tourlab/internal/geom"
	"tourlab/internal/model"
)

// evalScale is used for every insertion comparison. Only the ordering of
// lengths matters there, so it is independent of the display scale.
const evalScale = 100

// arc is a hull edge in traversal order.
type arc struct{ from, to int }

func (a arc) sameEdge(b arc) bool {
	return a == b || (a.from == b.to && a.to == b.from)
}

// HumanModel simulates the convex-hull heuristic people use on small TSP
// instances (MacGregor et al.): sketch the hull, pick a start and a
// direction, then walk the current arc and insert the interior point it is
// closest to, as long as that point is not closer to some other arc.
//
// The trace holds the empty step, the hull step, a step for connecting an
// interior start to the hull (when needed) and one step per insertion. An
// empty node set yields a nil trace.
//
// Marked start nodes take precedence over opts.Start. opts.Start must be a
// valid id if set; Build checks it.
//
// Complexity: O(n^3) length evaluations per insertion in the worst case,
// fine for the tens to low hundreds of nodes this targets.
func (b *Builder) HumanModel(nodes model.NodeSet, opts Options) Trace {
	return humanModel(nodes, opts, b.source(opts))
}

func humanModel(nodes model.NodeSet, opts Options, rng Source) Trace {
	if len(nodes) == 0 {
		return nil
	}
	scale := opts.scale()

	ids, _ := geom.HullAsIDs(nodes)
	hull := Tour(ids)
	start, startLabel := pickStart(nodes, opts.Start, rng)
	dir, dirLabel := pickDirection(opts.Direction, rng)
	if dir == CounterClockwise {
		reverse(hull)
	}

	trace := Trace{EmptySolution(), newStep(hull, startLabel, dirLabel, nodes, scale)}
	ev := newEvaluator(nodes)

	var current, adjacent int
	if i := hull.IndexOf(start); i >= 0 {
		current = start
		adjacent = hull[(i+1)%len(hull)]
	} else {
		pos, closest := ev.closestArc(hull, start)
		hull = hull.insertAt(pos, start)
		trace = append(trace, newStep(hull, startLabel, dirLabel, nodes, scale))
		current, adjacent = start, closest.to
	}

	for len(hull) <= len(nodes) {
		var pos, candidate int
		pos, candidate, current = ev.nextInsertion(hull, current, adjacent, len(hull))
		hull = hull.insertAt(pos, candidate)
		adjacent = candidate
		trace = append(trace, newStep(hull, startLabel, dirLabel, nodes, scale))
	}
	return trace
}

// nextInsertion walks the hull from the arc (current, adjacent) until it
// finds an arc whose closest interior node is not closer to another arc. It
// returns the insertion position, the node, and the arc start the node now
// follows.
//
// The node/arc pair with the globally cheapest insertion always matches, so
// the walk ends within one lap. After maxMoves arcs without a match the last
// candidate goes on its own closest arc.
func (e *evaluator) nextInsertion(hull Tour, current, adjacent, maxMoves int) (pos, candidate, from int) {
	for moves := 0; ; moves++ {
		candidate = e.closestInterior(hull, current)
		p, closest := e.closestArc(hull, candidate)
		if closest.sameEdge(arc{current, adjacent}) {
			return hull.IndexOf(current) + 1, candidate, current
		}
		if moves >= maxMoves {
			return p, candidate, closest.from
		}
		current = adjacent
		adjacent = hull[(hull.IndexOf(current)+1)%len(hull)]
	}
}

// pickStart prefers marked start nodes; the override only applies when no
// node is marked.
func pickStart(nodes model.NodeSet, override *int, rng Source) (int, string) {
	if starts := nodes.Starts(); len(starts) > 0 {
		return starts[rng.Intn(len(starts))].ID, LabelMarkedStart
	}
	if override != nil {
		if *override < 0 || *override >= len(nodes) {
			panic(fmt.Sprintf("tour: start %d: index out of range [0,%d)", *override, len(nodes)))
		}
		return *override, LabelPredefinedStart
	}
	return nodes[rng.Intn(len(nodes))].ID, LabelRandomStart
}

// pickDirection draws a direction when none is given. Only a random
// counter-clockwise pick is labelled as random.
func pickDirection(d Direction, rng Source) (Direction, string) {
	if d == DirectionUnspecified {
		if rng.Intn(2) == 1 {
			return Clockwise, LabelClockwise
		}
		return CounterClockwise, LabelCounterCW + LabelRandomSuffix
	}
	if d == Clockwise {
		return d, LabelClockwise
	}
	return d, LabelCounterCW
}

func reverse(t Tour) {
	for i, j := 0, len(t)-1; i < j; i, j = i+1, j-1 {
		t[i], t[j] = t[j], t[i]
	}
}

// evaluator scores tentative insertions with a reusable buffer.
type evaluator struct {
	nodes model.NodeSet
	buf   Tour
}

func newEvaluator(nodes model.NodeSet) *evaluator {
	return &evaluator{nodes: nodes, buf: make(Tour, 0, len(nodes)+2)}
}

// lengthWith is the length of hull with id inserted at pos.
func (e *evaluator) lengthWith(hull Tour, pos, id int) float64 {
	e.buf = append(e.buf[:0], hull[:pos]...)
	e.buf = append(e.buf, id)
	e.buf = append(e.buf, hull[pos:]...)
	return geom.PathLength(e.nodes, evalScale, e.buf)
}

// closestArc tries p between every pair of consecutive hull ids and returns
// the insertion position with the shortest result and the arc it splits.
// The first minimum wins.
func (e *evaluator) closestArc(hull Tour, p int) (int, arc) {
	best, bestLen := 1, math.Inf(1)
	for i := 1; i < len(hull); i++ {
		if l := e.lengthWith(hull, i, p); l < bestLen {
			best, bestLen = i, l
		}
	}
	return best, arc{hull[best-1], hull[best]}
}

// closestInterior returns the unplaced node whose insertion right after
// current gives the shortest hull. Ties go to the lowest id.
func (e *evaluator) closestInterior(hull Tour, current int) int {
	pos := hull.IndexOf(current) + 1
	placed := make([]bool, len(e.nodes))
	for _, id := range hull {
		placed[id] = true
	}
	best, bestLen := -1, math.Inf(1)
	for _, n := range e.nodes {
		if placed[n.ID] {
			continue
		}
		if l := e.lengthWith(hull, pos, n.ID); l < bestLen {
			best, bestLen = n.ID, l
		}
	}
	return best
}
