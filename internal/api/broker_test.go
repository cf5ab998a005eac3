package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	pid := "p1"
	ch := b.Subscribe(pid)

	evt := SSEEvent{Type: EventTraceCreated, Data: map[string]any{"x": 1}}
	b.Publish(pid, evt)

	select {
	case got := <-ch:
		assert.Equal(t, evt.Type, got.Type)
		assert.Equal(t, 1, got.Data["x"])
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe(pid, ch)
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after unsubscribe")
	assert.NotPanics(t, func() { b.Unsubscribe(pid, ch) })
}

func TestBrokerIsolatesProblems(t *testing.T) {
	b := NewBroker()
	a := b.Subscribe("a")
	defer b.Unsubscribe("a", a)

	b.Publish("b", SSEEvent{Type: EventProblemUpdated})
	select {
	case evt := <-a:
		t.Fatalf("unexpected event %+v", evt)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBrokerDropsWhenSubscriberIsSlow(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("p")
	defer b.Unsubscribe("p", ch)
	require.NotPanics(t, func() {
		for i := 0; i < 100; i++ {
			b.Publish("p", SSEEvent{Type: EventProblemUpdated})
		}
	})
	assert.Equal(t, cap(ch), len(ch))
}
