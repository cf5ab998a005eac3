package api

import (
	"sync"
)

// Event types published per problem.
const (
	EventTraceCreated   = "trace.created"
	EventProblemUpdated = "problem.updated"
	EventProblemDeleted = "problem.deleted"
)

type SSEEvent struct {
	Type string
	Data map[string]any
}

type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan SSEEvent]struct{} // problemId -> set of channels
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan SSEEvent]struct{}{}}
}

func (b *Broker) Subscribe(problemID string) chan SSEEvent {
	ch := make(chan SSEEvent, 8)
	b.mu.Lock()
	if b.subs[problemID] == nil {
		b.subs[problemID] = map[chan SSEEvent]struct{}{}
	}
	b.subs[problemID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes ch. Unknown channels are ignored, so a
// second call is harmless.
func (b *Broker) Unsubscribe(problemID string, ch chan SSEEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.subs[problemID]
	if _, ok := m[ch]; !ok {
		return
	}
	delete(m, ch)
	if len(m) == 0 {
		delete(b.subs, problemID)
	}
	close(ch)
}

// Publish fans evt out without blocking; slow subscribers drop events.
func (b *Broker) Publish(problemID string, evt SSEEvent) {
	b.mu.Lock()
	m := b.subs[problemID]
	for ch := range m {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}
