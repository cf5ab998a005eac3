package geom

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourlab/internal/model"
)

func square() model.NodeSet {
	var ns model.NodeSet
	ns = ns.Add(0, 0, model.Black)
	ns = ns.Add(10, 0, model.Black)
	ns = ns.Add(10, 10, model.Black)
	ns = ns.Add(0, 10, model.Black)
	return ns
}

func TestDistance(t *testing.T) {
	a := model.Node{X: 0, Y: 0}
	b := model.Node{X: 3, Y: 4}
	assert.InDelta(t, 5.0, Distance(a, b, 1), 1e-12)
	assert.InDelta(t, 500.0, Distance(a, b, 100), 1e-9)
	assert.Zero(t, Distance(b, b, 100))
}

func TestPathLength(t *testing.T) {
	ns := square()
	assert.Zero(t, PathLength(ns, 1, nil))
	assert.Zero(t, PathLength(ns, 1, []int{2}))
	assert.InDelta(t, 40.0, PathLength(ns, 1, []int{0, 1, 2, 3, 0}), 1e-12)
	assert.InDelta(t, 20.0, PathLength(ns, 1, []int{0, 1, 0}), 1e-12)
}

func TestPathLengthPanicsOnBadID(t *testing.T) {
	assert.PanicsWithValue(t, "geom: path[1]=4: index out of range [0,4)", func() {
		PathLength(square(), 1, []int{0, 4})
	})
	assert.Panics(t, func() { PathLength(square(), 1, []int{-1, 0}) })
}

func TestConvexHull(t *testing.T) {
	tests := []struct {
		name string
		in   []Point
		want []Point
	}{
		{"empty", nil, []Point{}},
		{"single", []Point{{3, 4}}, []Point{{3, 4}}},
		{"duplicates collapse", []Point{{3, 4}, {3, 4}}, []Point{{3, 4}}},
		{"two points", []Point{{5, 5}, {0, 0}}, []Point{{0, 0}, {5, 5}}},
		{
			"square with interior",
			[]Point{{10, 10}, {0, 0}, {5, 5}, {10, 0}, {0, 10}},
			[]Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}},
		},
		{
			"collinear edge point kept",
			[]Point{{0, 0}, {5, 0}, {10, 0}, {10, 10}, {0, 10}},
			[]Point{{0, 0}, {5, 0}, {10, 0}, {10, 10}, {0, 10}},
		},
		{
			"all collinear",
			[]Point{{2, 2}, {0, 0}, {1, 1}},
			[]Point{{0, 0}, {1, 1}, {2, 2}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConvexHull(tt.in))
		})
	}
}

func TestConvexHullDoesNotModifyInput(t *testing.T) {
	in := []Point{{10, 10}, {0, 0}, {10, 0}}
	ConvexHull(in)
	assert.Equal(t, []Point{{10, 10}, {0, 0}, {10, 0}}, in)
}

func TestHullContainsEveryPoint(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		n := 1 + rng.Intn(40)
		pts := make([]Point, n)
		for i := range pts {
			pts[i] = Point{rng.Intn(20), rng.Intn(20)}
		}
		hull := ConvexHull(pts)
		for _, p := range pts {
			require.Truef(t, Contains(hull, p), "round %d: %v outside hull %v", round, p, hull)
		}
	}
}

func TestHullAsIDs(t *testing.T) {
	ids, ok := HullAsIDs(square())
	require.True(t, ok)
	assert.Equal(t, []int{0, 1, 2, 3, 0}, ids)
	assert.InDelta(t, 40.0, PathLength(square(), 1, ids), 1e-12)

	_, ok = HullAsIDs(nil)
	assert.False(t, ok)

	one := model.NodeSet{}.Add(4, 4, model.Black)
	ids, ok = HullAsIDs(one)
	require.True(t, ok)
	assert.Equal(t, []int{0, 0}, ids)
}

func TestHullAsIDsClosure(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for round := 0; round < 30; round++ {
		var ns model.NodeSet
		for i := 0; i < 1+rng.Intn(25); i++ {
			ns = ns.Add(rng.Intn(30), rng.Intn(30), model.Black)
		}
		ids, ok := HullAsIDs(ns)
		require.True(t, ok)
		assert.Equal(t, ids[0], ids[len(ids)-1])
		assert.Len(t, ids, len(ConvexHull(Points(ns)))+1)
	}
}

func TestHullAsIDsPrefersFirstNodeAtCoordinate(t *testing.T) {
	ns := square().Add(10, 10, model.Pink)
	ids, _ := HullAsIDs(ns)
	assert.NotContains(t, ids, 4)
}

func TestNearestUnvisited(t *testing.T) {
	ns := square()
	idx, d := NearestUnvisited(ns, ns[0])
	// (10,0) and (0,10) tie; the first wins.
	assert.Equal(t, 1, idx)
	assert.InDelta(t, 10.0, d, 1e-12)

	idx, d = NearestUnvisited(ns[:1], ns[0])
	assert.Equal(t, -1, idx)
	assert.True(t, math.IsInf(d, 1))
}

func TestCenters(t *testing.T) {
	ns := square().Add(10, 10, model.Black)
	c, ok := Centroid(ns)
	require.True(t, ok)
	assert.InDelta(t, 6.0, c.X, 1e-12)
	assert.InDelta(t, 6.0, c.Y, 1e-12)

	b, ok := BoundsCenter(ns)
	require.True(t, ok)
	assert.InDelta(t, 5.0, b.X, 1e-12)
	assert.InDelta(t, 5.0, b.Y, 1e-12)

	_, ok = Centroid(nil)
	assert.False(t, ok)
	_, ok = BoundsCenter(nil)
	assert.False(t, ok)
}
