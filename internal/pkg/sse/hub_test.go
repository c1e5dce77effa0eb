package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesOnlyTopicSubscribers(t *testing.T) {
	hub := NewHub()

	a, cleanupA := hub.Subscribe("company-a")
	defer cleanupA()
	b, cleanupB := hub.Subscribe("company-b")
	defer cleanupB()

	hub.Publish("company-a", Event{Topic: "company-a", Event: "rollup.snapshot", Data: 1})

	select {
	case ev := <-a:
		assert.Equal(t, "rollup.snapshot", ev.Event)
		assert.Equal(t, 1, ev.Data)
	default:
		t.Fatal("expected an event for company-a")
	}

	select {
	case ev := <-b:
		t.Fatalf("unexpected event for company-b: %+v", ev)
	default:
	}
}

func TestHub_PublishDoesNotBlockOnFullBuffer(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("company-a")
	defer cleanup()

	for i := 0; i < hub.bufferSize*3; i++ {
		hub.Publish("company-a", Event{Event: "tick", Data: i})
	}

	assert.Len(t, ch, hub.bufferSize)
}

func TestHub_CleanupRemovesSubscriber(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("company-a")
	_, cleanupOther := hub.Subscribe("company-a")
	defer cleanupOther()

	require.Equal(t, 2, hub.SubscriberCount("company-a"))
	cleanup()
	cleanup()

	assert.Equal(t, 1, hub.SubscriberCount("company-a"))
	assert.Equal(t, 1, hub.TotalSubscribers())

	_, open := <-ch
	assert.False(t, open)
}
