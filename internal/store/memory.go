package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"tourlab/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu       sync.Mutex
	problems map[string]model.Problem     // id -> problem
	order    []string                     // problem ids in creation order
	traces   map[string]model.TraceRecord // id -> trace
	byProb   map[string][]string          // problem id -> trace ids
}

func NewMemory() *Memory {
	return &Memory{
		problems: map[string]model.Problem{},
		traces:   map[string]model.TraceRecord{},
		byProb:   map[string][]string{},
	}
}

func (m *Memory) CreateProblem(ctx context.Context, p model.Problem) (model.Problem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New().String()
	p.Version = 1
	p.Nodes = p.Nodes.Clone()
	m.problems[p.ID] = p
	m.order = append(m.order, p.ID)
	return copyProblem(p), nil
}

func (m *Memory) GetProblem(ctx context.Context, id string) (model.Problem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.problems[id]
	if !ok {
		return model.Problem{}, ErrNotFound
	}
	return copyProblem(p), nil
}

func (m *Memory) ListProblems(ctx context.Context, cursor string, limit int) ([]model.Problem, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids, next := page(m.order, cursor, clampLimit(limit))
	out := make([]model.Problem, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyProblem(m.problems[id]))
	}
	return out, next, nil
}

func (m *Memory) UpdateNodes(ctx context.Context, id string, ifVersion int, nodes model.NodeSet) (model.Problem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.problems[id]
	if !ok {
		return model.Problem{}, ErrNotFound
	}
	if ifVersion != 0 && ifVersion != p.Version {
		return model.Problem{}, ErrConflict
	}
	p.Nodes = nodes.Clone()
	p.Version++
	m.problems[id] = p
	return copyProblem(p), nil
}

func (m *Memory) DeleteProblem(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.problems[id]; !ok {
		return ErrNotFound
	}
	delete(m.problems, id)
	for i, pid := range m.order {
		if pid == id {
			m.order = append(m.order[:i:i], m.order[i+1:]...)
			break
		}
	}
	for _, tid := range m.byProb[id] {
		delete(m.traces, tid)
	}
	delete(m.byProb, id)
	return nil
}

func (m *Memory) SaveTrace(ctx context.Context, tr model.TraceRecord) (model.TraceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.problems[tr.ProblemID]; !ok {
		return model.TraceRecord{}, ErrNotFound
	}
	tr.ID = uuid.New().String()
	if tr.CreatedAt == "" {
		tr.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	tr.Steps = append([]byte(nil), tr.Steps...)
	m.traces[tr.ID] = tr
	m.byProb[tr.ProblemID] = append(m.byProb[tr.ProblemID], tr.ID)
	return tr, nil
}

func (m *Memory) GetTrace(ctx context.Context, id string) (model.TraceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tr, ok := m.traces[id]
	if !ok {
		return model.TraceRecord{}, ErrNotFound
	}
	return tr, nil
}

func (m *Memory) ListTraces(ctx context.Context, problemID, cursor string, limit int) ([]model.TraceRecord, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.problems[problemID]; !ok {
		return nil, "", ErrNotFound
	}
	ids, next := page(m.byProb[problemID], cursor, clampLimit(limit))
	out := make([]model.TraceRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.traces[id])
	}
	return out, next, nil
}

// page returns up to limit ids after cursor and the cursor for the next
// page, empty on the last one.
func page(ids []string, cursor string, limit int) ([]string, string) {
	start := 0
	if cursor != "" {
		for i, id := range ids {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(ids) {
		end = len(ids)
	}
	if start > end {
		start = end
	}
	next := ""
	if end < len(ids) {
		next = ids[end-1]
	}
	return ids[start:end], next
}

func copyProblem(p model.Problem) model.Problem {
	p.Nodes = p.Nodes.Clone()
	return p
}
