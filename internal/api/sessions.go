package api

import (
	"sort"
	"sync"
	"time"
)

// PlaybackCursor is the position of one open playback socket.
type PlaybackCursor struct {
	TraceID   string `json:"traceId"`
	SessionID string `json:"sessionId"`
	Index     int    `json:"index"`
	Len       int    `json:"len"`
	TS        string `json:"ts"`
}

// SessionRegistry tracks open playback sessions per trace.
type SessionRegistry struct {
	mu sync.Mutex
	// key: traceId|sessionId
	m map[string]PlaybackCursor
}

// NewSessionRegistry constructs a SessionRegistry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{m: map[string]PlaybackCursor{}}
}

func (c *SessionRegistry) key(traceID, sessionID string) string {
	return traceID + "|" + sessionID
}

// Upsert stores or updates the cursor of a session.
func (c *SessionRegistry) Upsert(traceID, sessionID string, index, n int) {
	if traceID == "" || sessionID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[c.key(traceID, sessionID)] = PlaybackCursor{
		TraceID:   traceID,
		SessionID: sessionID,
		Index:     index,
		Len:       n,
		TS:        time.Now().UTC().Format(time.RFC3339),
	}
}

func (c *SessionRegistry) Remove(traceID, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, c.key(traceID, sessionID))
}

// ListByTrace returns the open sessions on a trace ordered by session id.
func (c *SessionRegistry) ListByTrace(traceID string) []PlaybackCursor {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []PlaybackCursor{}
	for _, v := range c.m {
		if v.TraceID == traceID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out
}

// Count is the number of open sessions across all traces.
func (c *SessionRegistry) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
