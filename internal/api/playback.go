package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tourlab/internal/metrics"
	"tourlab/internal/tour"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

const (
	playbackIdle  = 60 * time.Second
	playbackPing  = 20 * time.Second
	playbackWrite = 5 * time.Second
)

// PlaybackMessage is exchanged on /v1/traces/{id}/play. Clients send
// first, prev, next, last, goto (with index) or ping; the server answers
// with step, pong or error.
type PlaybackMessage struct {
	Type       string     `json:"type"`
	Index      *int       `json:"index,omitempty"`
	Len        int        `json:"len,omitempty"`
	CanBack    bool       `json:"canBack,omitempty"`
	CanForward bool       `json:"canForward,omitempty"`
	Step       *tour.Step `json:"step,omitempty"`
	Message    string     `json:"message,omitempty"`
}

func stepMessage(sp *tour.Stepper) PlaybackMessage {
	i, st := sp.Index(), sp.Current()
	return PlaybackMessage{
		Type:       "step",
		Index:      &i,
		Len:        sp.Len(),
		CanBack:    sp.CanBack(),
		CanForward: sp.CanForward(),
		Step:       &st,
	}
}

// PlaybackHandler upgrades to a websocket and walks a stored trace. The
// cursor starts on the final step, which is sent right after the upgrade.
func (s *Server) PlaybackHandler(w http.ResponseWriter, r *http.Request, traceID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	_, tr, err := s.loadTrace(r.Context(), traceID)
	if err != nil {
		writeError(w, "Trace not found", err, r.URL.Path)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	sid := uuid.NewString()
	sp := tour.NewStepper(tr)
	s.Sessions.Upsert(traceID, sid, sp.Index(), sp.Len())
	metrics.PlaybackSessions.Inc()
	defer func() {
		s.Sessions.Remove(traceID, sid)
		metrics.PlaybackSessions.Dec()
	}()
	log := s.Log.With().Str("trace", traceID).Str("session", sid).Logger()
	log.Debug().Msg("playback opened")

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(playbackIdle))
	conn.SetPongHandler(func(string) error { _ = conn.SetReadDeadline(time.Now().Add(playbackIdle)); return nil })

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(playbackPing)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(playbackWrite)); err != nil {
					return
				}
			}
		}
	}()

	if err := conn.WriteJSON(stepMessage(sp)); err != nil {
		return
	}
	for {
		var msg PlaybackMessage
		if err := conn.ReadJSON(&msg); err != nil {
			log.Debug().Err(err).Msg("playback closed")
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(playbackIdle))
		var out PlaybackMessage
		switch msg.Type {
		case "first":
			sp.First()
			out = stepMessage(sp)
		case "prev":
			sp.Prev()
			out = stepMessage(sp)
		case "next":
			sp.Next()
			out = stepMessage(sp)
		case "last":
			sp.Last()
			out = stepMessage(sp)
		case "goto":
			if msg.Index == nil || *msg.Index < 0 || *msg.Index >= sp.Len() {
				out = PlaybackMessage{Type: "error", Message: "index out of range"}
				break
			}
			sp.Last()
			for sp.Index() > *msg.Index {
				sp.Prev()
			}
			out = stepMessage(sp)
		case "ping":
			out = PlaybackMessage{Type: "pong"}
		default:
			out = PlaybackMessage{Type: "error", Message: "unknown message type " + msg.Type}
		}
		s.Sessions.Upsert(traceID, sid, sp.Index(), sp.Len())
		if err := conn.WriteJSON(out); err != nil {
			return
		}
	}
}
