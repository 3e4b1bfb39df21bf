package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesTopicSubscribers(t *testing.T) {
	h := NewHub()
	a, cleanupA := h.Subscribe("emp-a")
	defer cleanupA()
	b, cleanupB := h.Subscribe("emp-b")
	defer cleanupB()

	h.Publish(Event{Event: "delivery.ticket", Data: "sent"}, "emp-a", "emp-a")

	require.Len(t, a, 1)
	ev := <-a
	assert.Equal(t, "emp-a", ev.Topic)
	assert.Equal(t, "sent", ev.Data)
	assert.Len(t, b, 0)
}

func TestHub_CleanupRemovesSubscriber(t *testing.T) {
	h := NewHub()
	ch, cleanup := h.Subscribe("emp-a")
	assert.Equal(t, 1, h.SubscriberCount("emp-a"))

	cleanup()
	cleanup()

	assert.Equal(t, 0, h.SubscriberCount("emp-a"))
	_, open := <-ch
	assert.False(t, open)

	h.Publish(Event{Event: "noop"}, "emp-a")
}

func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub()
	ch, cleanup := h.Subscribe("emp-a")
	defer cleanup()

	for i := 0; i < h.buffer+5; i++ {
		h.Publish(Event{Event: "tick", Data: i}, "emp-a")
	}
	assert.Len(t, ch, h.buffer)
}
