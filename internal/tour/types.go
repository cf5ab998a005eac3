// Package tour builds TSP tours over a node set with construction
// heuristics and records every intermediate state as a playable trace.
//
// Strategies never modify the node set they are given. Random choices
// (start node, direction) come from an injectable Source so runs are
// reproducible under a fixed seed.
package tour

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownStrategy   = errors.New("tour: unknown strategy")
	ErrUnknownDirection  = errors.New("tour: unknown direction")
	ErrInvalidStart      = errors.New("tour: start node out of range")
	ErrIncompleteTour    = errors.New("tour: tour does not visit every node exactly once")
	ErrSolverUnavailable = errors.New("tour: exact solver unavailable")
)

// Step labels shown next to a tour.
const (
	LabelHullStart       = "Most Top Left Node"
	LabelMarkedStart     = "Random from marked nodes"
	LabelRandomStart     = "Random from all nodes"
	LabelPredefinedStart = "Predefined node"
	LabelClockwise       = "Clockwise"
	LabelCounterCW       = "Counter Clockwise"
	LabelRandomSuffix    = " (random)"
	LabelRandom          = "random"
	LabelUnknown         = "Unknown"
)

// Tour is a sequence of node ids. A closed tour repeats its first id last.
type Tour []int

// Clone returns an independent copy. A nil tour clones to an empty one.
func (t Tour) Clone() Tour {
	out := make(Tour, len(t))
	copy(out, t)
	return out
}

// Closed reports whether the tour ends where it starts.
func (t Tour) Closed() bool { return len(t) >= 2 && t[0] == t[len(t)-1] }

// IndexOf returns the first position of id, or -1.
func (t Tour) IndexOf(id int) int {
	for i, v := range t {
		if v == id {
			return i
		}
	}
	return -1
}

// Contains reports whether id occurs in the tour.
func (t Tour) Contains(id int) bool { return t.IndexOf(id) >= 0 }

// insertAt returns t with id placed at pos. t is not modified.
func (t Tour) insertAt(pos, id int) Tour {
	out := make(Tour, 0, len(t)+1)
	out = append(out, t[:pos]...)
	out = append(out, id)
	return append(out, t[pos:]...)
}

// CheckComplete verifies t is a closed tour visiting each of n nodes once.
func (t Tour) CheckComplete(n int) error {
	if n == 0 {
		if len(t) == 0 {
			return nil
		}
		return fmt.Errorf("%w: %d ids for an empty node set", ErrIncompleteTour, len(t))
	}
	if len(t) != n+1 || !t.Closed() {
		return fmt.Errorf("%w: want %d closed ids, got %v", ErrIncompleteTour, n+1, []int(t))
	}
	seen := make([]bool, n)
	for _, id := range t[:n] {
		if id < 0 || id >= n {
			return fmt.Errorf("%w: id %d out of range [0,%d)", ErrIncompleteTour, id, n)
		}
		if seen[id] {
			return fmt.Errorf("%w: id %d repeated", ErrIncompleteTour, id)
		}
		seen[id] = true
	}
	return nil
}

// MarshalJSON encodes a nil tour as [] so renderers always get a list.
func (t Tour) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int(t))
}

// Direction is the traversal direction of the hull on screen.
type Direction int

const (
	DirectionUnspecified Direction = iota
	Clockwise
	CounterClockwise
)

func (d Direction) String() string {
	switch d {
	case Clockwise:
		return "clockwise"
	case CounterClockwise:
		return "counter-clockwise"
	default:
		return ""
	}
}

// ParseDirection accepts "clockwise"/"cw", "counter-clockwise"/"ccw" and
// the empty string for unspecified.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "random", "unspecified":
		return DirectionUnspecified, nil
	case "clockwise", "cw":
		return Clockwise, nil
	case "counter-clockwise", "counterclockwise", "ccw":
		return CounterClockwise, nil
	}
	return DirectionUnspecified, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Step is one snapshot of a tour under construction. The JSON keys are
// fixed; renderers overlay a tour by reading exactly these.
type Step struct {
	Tour       Tour    `json:"Tour"`
	TourLength float64 `json:"Tourlength"`
	Start      string  `json:"Start,omitempty"`
	Direction  string  `json:"Direction,omitempty"`
}

// Trace is the ordered record of a construction. Index 0 is the empty step.
type Trace []Step

// Final returns the last step.
func (tr Trace) Final() (Step, bool) {
	if len(tr) == 0 {
		return Step{}, false
	}
	return tr[len(tr)-1], true
}

// At returns step i.
func (tr Trace) At(i int) (Step, bool) {
	if i < 0 || i >= len(tr) {
		return Step{}, false
	}
	return tr[i], true
}

// Strategy names a tour construction method.
type Strategy string

const (
	StrategyNone            Strategy = "none"
	StrategyOptimal         Strategy = "optimal"
	StrategyConvexHull      Strategy = "convex-hull"
	StrategyHumanModel      Strategy = "human-model"
	StrategyNearestNeighbor Strategy = "nearest-neighbor"
	StrategyTwoOpt          Strategy = "two-opt"
)

// Strategies lists every known strategy in menu order.
func Strategies() []Strategy {
	return []Strategy{StrategyNone, StrategyOptimal, StrategyConvexHull,
		StrategyHumanModel, StrategyNearestNeighbor, StrategyTwoOpt}
}

// ParseStrategy resolves a strategy name, ignoring case and surrounding space.
func ParseStrategy(s string) (Strategy, error) {
	want := Strategy(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range Strategies() {
		if st == want {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Source is the random draw used for start and direction choices.
// *math/rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// Options tune a single construction call.
type Options struct {
	// Scale applies to reported lengths. Zero means geom.DefaultScale.
	Scale float64
	// Start overrides the start node id for the human model.
	Start *int
	// Direction overrides the hull direction for the human model.
	Direction Direction
	// Seed, when non-zero, replaces the builder's source for this call.
	Seed int64
	// Passes bounds 2-opt improvement sweeps. Zero means defaultPasses.
	Passes int
}
