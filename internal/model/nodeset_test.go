package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSet() NodeSet {
	var ns NodeSet
	ns = ns.Add(0, 0, Black)
	ns = ns.Add(10, 0, Orange)
	ns = ns.Add(10, 10, Black)
	ns = ns.Add(0, 10, Cyan)
	return ns
}

func TestRemoveReindexes(t *testing.T) {
	ns := sampleSet()
	out, err := ns.Remove(1)
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i, n := range out {
		assert.Equal(t, i, n.ID)
	}
	assert.Equal(t, 10, out[1].X)
	assert.Equal(t, 10, out[1].Y)
	require.NoError(t, out.Validate())

	// the original is left intact
	assert.Len(t, ns, 4)
	assert.Equal(t, 1, ns[1].ID)
}

func TestRemoveOutOfRange(t *testing.T) {
	_, err := sampleSet().Remove(9)
	require.ErrorIs(t, err, ErrInvalidNodeSet)
}

func TestValidateRejectsSparseIDs(t *testing.T) {
	ns := sampleSet()
	ns[2].ID = 7
	require.ErrorIs(t, ns.Validate(), ErrInvalidNodeSet)
}

func TestToggleStartAndStarts(t *testing.T) {
	ns := sampleSet()
	require.NoError(t, ns.ToggleStart(2))
	starts := ns.Starts()
	require.Len(t, starts, 1)
	assert.Equal(t, 2, starts[0].ID)
	require.NoError(t, ns.ToggleStart(2))
	assert.Empty(t, ns.Starts())
}

func TestCloneIsIndependent(t *testing.T) {
	ns := sampleSet()
	cp := ns.Clone()
	cp[0].X = 99
	assert.Equal(t, 0, ns[0].X)
	assert.Nil(t, NodeSet(nil).Clone())
}

func TestFindByCoordsReturnsFirst(t *testing.T) {
	ns := sampleSet().Add(10, 10, Pink)
	n, ok := ns.FindByCoords(10, 10)
	require.True(t, ok)
	assert.Equal(t, 2, n.ID)
	_, ok = ns.FindByCoords(3, 3)
	assert.False(t, ok)
}

func TestGroupsFirstSeenOrder(t *testing.T) {
	assert.Equal(t, []Color{Black, Orange, Cyan}, sampleSet().Groups())
}

func TestColorJSON(t *testing.T) {
	b, err := json.Marshal(Node{ID: 1, X: 2, Y: 3, Color: Magenta})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"x":2,"y":3,"color":"Magenta"}`, string(b))

	var n Node
	require.NoError(t, json.Unmarshal([]byte(`{"id":0,"x":1,"y":1,"color":"violet","start":true}`), &n))
	assert.Equal(t, Violet, n.Color)
	assert.True(t, n.Start)

	require.NoError(t, json.Unmarshal([]byte(`{"color":4}`), &n))
	assert.Equal(t, Yellow, n.Color)

	assert.Error(t, json.Unmarshal([]byte(`{"color":"Teal"}`), &n))
	assert.Error(t, json.Unmarshal([]byte(`{"color":42}`), &n))
}
