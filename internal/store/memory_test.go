package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourlab/internal/model"
)

func TestMemoryProblemLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	in := model.NodeSet{{ID: 0, X: 1, Y: 1}, {ID: 1, X: 5, Y: 1}}
	p, err := m.CreateProblem(ctx, model.Problem{Name: "demo", Scale: 100, Nodes: in})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	assert.Equal(t, 1, p.Version)

	// stored nodes are not aliased with the caller's slice
	in[0].X = 99
	got, err := m.GetProblem(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Nodes[0].X)

	_, err = m.UpdateNodes(ctx, p.ID, 5, got.Nodes)
	assert.ErrorIs(t, err, ErrConflict)

	got.Nodes = append(got.Nodes, model.Node{ID: 2, X: 3, Y: 4})
	up, err := m.UpdateNodes(ctx, p.ID, 1, got.Nodes)
	require.NoError(t, err)
	assert.Equal(t, 2, up.Version)
	assert.Len(t, up.Nodes, 3)

	// zero skips the version check
	up, err = m.UpdateNodes(ctx, p.ID, 0, up.Nodes[:1])
	require.NoError(t, err)
	assert.Equal(t, 3, up.Version)

	require.NoError(t, m.DeleteProblem(ctx, p.ID))
	_, err = m.GetProblem(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.DeleteProblem(ctx, p.ID), ErrNotFound)
	_, err = m.UpdateNodes(ctx, p.ID, 0, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryListProblemsPaginates(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	var ids []string
	for i := 0; i < 5; i++ {
		p, err := m.CreateProblem(ctx, model.Problem{Name: "p"})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	page1, next, err := m.ListProblems(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, ids[0], page1[0].ID)
	assert.Equal(t, ids[1], next)

	page2, next, err := m.ListProblems(ctx, next, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, ids[2], page2[0].ID)

	page3, next, err := m.ListProblems(ctx, next, 2)
	require.NoError(t, err)
	assert.Len(t, page3, 1)
	assert.Empty(t, next)
}

func TestMemoryTraces(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.SaveTrace(ctx, model.TraceRecord{ProblemID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	p, err := m.CreateProblem(ctx, model.Problem{Name: "t"})
	require.NoError(t, err)
	tr, err := m.SaveTrace(ctx, model.TraceRecord{ProblemID: p.ID, ProblemVersion: 1, Strategy: "convex-hull", Steps: []byte(`[]`)})
	require.NoError(t, err)
	assert.NotEmpty(t, tr.ID)
	assert.NotEmpty(t, tr.CreatedAt)

	got, err := m.GetTrace(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "convex-hull", got.Strategy)

	list, next, err := m.ListTraces(ctx, p.ID, "", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Empty(t, next)

	_, _, err = m.ListTraces(ctx, "missing", "", 0)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.DeleteProblem(ctx, p.ID))
	_, err = m.GetTrace(ctx, tr.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, defaultLimit, clampLimit(0))
	assert.Equal(t, defaultLimit, clampLimit(-3))
	assert.Equal(t, defaultLimit, clampLimit(1000))
	assert.Equal(t, 7, clampLimit(7))
}
