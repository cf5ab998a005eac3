package store

import (
	"context"
	"errors"

	"tourlab/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
	// Problems
	CreateProblem(ctx context.Context, p model.Problem) (model.Problem, error)
	GetProblem(ctx context.Context, id string) (model.Problem, error)
	ListProblems(ctx context.Context, cursor string, limit int) ([]model.Problem, string, error)
	// UpdateNodes replaces the node set and bumps the version. A non-zero
	// ifVersion must match the stored version or ErrConflict is returned.
	UpdateNodes(ctx context.Context, id string, ifVersion int, nodes model.NodeSet) (model.Problem, error)
	DeleteProblem(ctx context.Context, id string) error

	// Traces
	SaveTrace(ctx context.Context, tr model.TraceRecord) (model.TraceRecord, error)
	GetTrace(ctx context.Context, id string) (model.TraceRecord, error)
	ListTraces(ctx context.Context, problemID, cursor string, limit int) ([]model.TraceRecord, string, error)
}

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("version conflict")
)

const defaultLimit = 100

func clampLimit(limit int) int {
	if limit <= 0 || limit > defaultLimit {
		return defaultLimit
	}
	return limit
}
