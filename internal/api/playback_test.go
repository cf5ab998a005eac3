package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourlab/internal/tour"
)

func TestPlaybackWalksTrace(t *testing.T) {
	s := newTestServer(t)
	p := createSquare(t, s)
	rr := do(t, s, http.MethodPost, "/v1/problems/"+p.ID+"/tours", TourRequest{Strategy: "nearest-neighbor", Seed: 3})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	v := decode[TraceView](t, rr)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/traces/" + v.ID + "/play"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	send := func(msg PlaybackMessage) PlaybackMessage {
		t.Helper()
		require.NoError(t, conn.WriteJSON(msg))
		var out PlaybackMessage
		require.NoError(t, conn.ReadJSON(&out))
		return out
	}

	// the cursor opens on the finished tour
	var first PlaybackMessage
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, "step", first.Type)
	n := len(p.Nodes) + 2
	assert.Equal(t, n-1, *first.Index)
	assert.Equal(t, n, first.Len)
	assert.True(t, first.CanBack)
	assert.False(t, first.CanForward)
	assert.True(t, first.Step.Tour.Closed())
	assert.Equal(t, v.Final.Tour, first.Step.Tour)

	out := send(PlaybackMessage{Type: "first"})
	assert.Equal(t, 0, *out.Index)
	assert.False(t, out.CanBack)
	assert.Equal(t, tour.Tour{}, out.Step.Tour)

	out = send(PlaybackMessage{Type: "prev"})
	assert.Equal(t, 0, *out.Index)

	out = send(PlaybackMessage{Type: "next"})
	assert.Equal(t, 1, *out.Index)
	assert.Len(t, out.Step.Tour, 1)

	two := 2
	out = send(PlaybackMessage{Type: "goto", Index: &two})
	assert.Equal(t, 2, *out.Index)

	big := 99
	out = send(PlaybackMessage{Type: "goto", Index: &big})
	assert.Equal(t, "error", out.Type)

	out = send(PlaybackMessage{Type: "last"})
	assert.Equal(t, n-1, *out.Index)
	assert.False(t, out.CanForward)

	assert.Equal(t, "pong", send(PlaybackMessage{Type: "ping"}).Type)
	assert.Equal(t, "error", send(PlaybackMessage{Type: "rewind"}).Type)

	rr = do(t, s, http.MethodGet, "/v1/traces/"+v.ID+"/sessions", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	sessions := decode[struct {
		Items []PlaybackCursor `json:"items"`
	}](t, rr)
	require.Len(t, sessions.Items, 1)
	assert.Equal(t, n-1, sessions.Items[0].Index)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return s.Sessions.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestPlaybackUnknownTrace(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/traces/missing/play"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
