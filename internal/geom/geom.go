// Package geom is the geometry kernel of the tour engine: scaled Euclidean
// distance, path length, the convex hull and nearest-node lookup.
//
// All functions are pure. Inputs are read, never modified.
package geom

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"tourlab/internal/model"
)

// DefaultScale is the canvas-to-export unit factor.
const DefaultScale = 100

// Point is an integer grid position. Hull construction stays in integers so
// the orientation test is exact.
type Point struct {
	X, Y int
}

func less(a, b Point) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

// Vec converts a node position to a gonum vector.
func Vec(n model.Node) r2.Vec { return r2.Vec{X: float64(n.X), Y: float64(n.Y)} }

// Distance is the Euclidean distance between two nodes after scaling both
// coordinates by scale.
func Distance(p, q model.Node, scale float64) float64 {
	return r2.Norm(r2.Scale(scale, r2.Sub(Vec(p), Vec(q))))
}

// PathLength sums Distance over consecutive ids in path. Empty and
// single-element paths have length 0.
//
// Ids are positions in nodes. An id outside [0, len(nodes)) is a caller bug
// (usually a missed reindex) and panics.
func PathLength(nodes model.NodeSet, scale float64, path []int) float64 {
	var total float64
	for i := 0; i+1 < len(path); i++ {
		total += Distance(at(nodes, path, i), at(nodes, path, i+1), scale)
	}
	return total
}

func at(nodes model.NodeSet, path []int, pos int) model.Node {
	id := path[pos]
	if id < 0 || id >= len(nodes) {
		panic(fmt.Sprintf("geom: path[%d]=%d: index out of range [0,%d)", pos, id, len(nodes)))
	}
	return nodes[id]
}

// cross is the z component of OA x OB. Positive for a counter-clockwise
// turn, negative for clockwise, zero when collinear.
func cross(o, a, b Point) int {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// ConvexHull returns the hull of points with Andrew's monotone chain,
// counter-clockwise starting at the lexicographically smallest point.
// Duplicates are removed. Points lying on a hull edge are kept: a chain only
// drops its last point on a strictly clockwise turn.
//
// Fewer than two unique points are returned as they are (deduplicated).
func ConvexHull(points []Point) []Point {
	pts := uniqueSorted(points)
	if len(pts) <= 1 {
		return pts
	}

	lower := make([]Point, 0, len(pts))
	for _, p := range pts {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) < 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	upper := make([]Point, 0, len(pts))
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) < 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	hull := make([]Point, 0, len(lower)+len(upper)-2)
	hull = append(hull, lower[:len(lower)-1]...)
	hull = append(hull, upper[:len(upper)-1]...)

	// All-collinear input walks the same segment twice.
	return dropRepeats(hull)
}

func uniqueSorted(points []Point) []Point {
	pts := make([]Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool { return less(pts[i], pts[j]) })
	out := pts[:0]
	for i, p := range pts {
		if i == 0 || p != pts[i-1] {
			out = append(out, p)
		}
	}
	return out
}

func dropRepeats(hull []Point) []Point {
	seen := make(map[Point]bool, len(hull))
	out := hull[:0]
	for _, p := range hull {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// Points extracts node positions in node order.
func Points(nodes model.NodeSet) []Point {
	out := make([]Point, len(nodes))
	for i, n := range nodes {
		out[i] = Point{X: n.X, Y: n.Y}
	}
	return out
}

// HullAsIDs maps the convex hull of nodes back to node ids and closes the
// loop by repeating the first id. Where several nodes share a position the
// first one wins.
//
// With screen coordinates (y grows downward) the order is clockwise.
// Returns false for an empty node set.
func HullAsIDs(nodes model.NodeSet) ([]int, bool) {
	if len(nodes) == 0 {
		return nil, false
	}
	hull := ConvexHull(Points(nodes))
	ids := make([]int, 0, len(hull)+1)
	for _, p := range hull {
		n, _ := nodes.FindByCoords(p.X, p.Y)
		ids = append(ids, n.ID)
	}
	ids = append(ids, ids[0])
	return ids, true
}

// NearestUnvisited returns the position in nodes of the node closest to
// origin, skipping origin itself (matched by id), and the unscaled distance.
// Ties go to the first node in iteration order. Returns (-1, +Inf) when no
// other node exists.
func NearestUnvisited(nodes model.NodeSet, origin model.Node) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for i, n := range nodes {
		if n.ID == origin.ID {
			continue
		}
		if d := Distance(origin, n, 1); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// Centroid is the center of mass of the node positions.
func Centroid(nodes model.NodeSet) (r2.Vec, bool) {
	if len(nodes) == 0 {
		return r2.Vec{}, false
	}
	var sum r2.Vec
	for _, n := range nodes {
		sum = r2.Add(sum, Vec(n))
	}
	return r2.Scale(1/float64(len(nodes)), sum), true
}

// BoundsCenter is the midpoint of the axis-aligned bounding box.
func BoundsCenter(nodes model.NodeSet) (r2.Vec, bool) {
	if len(nodes) == 0 {
		return r2.Vec{}, false
	}
	lo, hi := Vec(nodes[0]), Vec(nodes[0])
	for _, n := range nodes[1:] {
		v := Vec(n)
		lo = r2.Vec{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y)}
		hi = r2.Vec{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y)}
	}
	return r2.Scale(0.5, r2.Add(lo, hi)), true
}

// Contains reports whether p lies inside or on the boundary of the
// counter-clockwise polygon hull.
func Contains(hull []Point, p Point) bool {
	switch len(hull) {
	case 0:
		return false
	case 1:
		return hull[0] == p
	}
	if len(hull) == 2 || allCollinear(hull) {
		return onSegmentChain(hull, p)
	}
	for i := range hull {
		a, b := hull[i], hull[(i+1)%len(hull)]
		if cross(a, b, p) < 0 {
			return false
		}
	}
	return true
}

func allCollinear(hull []Point) bool {
	for i := 2; i < len(hull); i++ {
		if cross(hull[0], hull[1], hull[i]) != 0 {
			return false
		}
	}
	return true
}

func onSegmentChain(hull []Point, p Point) bool {
	for i := 0; i+1 < len(hull); i++ {
		a, b := hull[i], hull[i+1]
		if cross(a, b, p) == 0 &&
			min(a.X, b.X) <= p.X && p.X <= max(a.X, b.X) &&
			min(a.Y, b.Y) <= p.Y && p.Y <= max(a.Y, b.Y) {
			return true
		}
	}
	return false
}
