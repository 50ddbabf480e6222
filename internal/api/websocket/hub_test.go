package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maumercado/task-queue-go/internal/events"
	"github.com/maumercado/task-queue-go/internal/task"
)

// newTestClient builds a Client with no live WebSocket connection, for
// exercising Hub's registration/broadcast/subscription logic directly.
func newTestClient(hub *Hub) *Client {
	return &Client{
		ID:            "test-client",
		hub:           hub,
		send:          make(chan []byte, sendBufferSize),
		subscriptions: make(map[events.EventType]bool),
	}
}

func TestHub_ClientCountReflectsAddedAndClosedClients(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(hub)

	hub.mu.Lock()
	hub.clients[client] = true
	hub.mu.Unlock()
	assert.Equal(t, 1, hub.ClientCount())

	hub.closeAllClients()
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_BroadcastEventDeliversTaskLifecycleEventToSubscribedClient(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(hub)
	client.Subscribe(events.EventTaskCreated)

	hub.mu.Lock()
	hub.clients[client] = true
	hub.mu.Unlock()

	tid := task.TID(7)
	event := events.NewEvent(events.EventTaskCreated, events.TaskEventData(tid.String(), "greeter", nil))
	hub.broadcastEvent(event)

	select {
	case data := <-client.send:
		assert.Contains(t, string(data), `"tid":"tid-7"`)
		assert.Contains(t, string(data), `"task.created"`)
	case <-time.After(time.Second):
		t.Fatal("subscribed client never received the broadcast task event")
	}
}

func TestHub_BroadcastEventSkipsClientNotSubscribedToThatEventType(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(hub)
	client.Subscribe(events.EventTaskPaused)

	hub.mu.Lock()
	hub.clients[client] = true
	hub.mu.Unlock()

	event := events.NewEvent(events.EventTaskCreated, events.TaskEventData(task.TID(1).String(), "greeter", nil))
	hub.broadcastEvent(event)

	select {
	case <-client.send:
		t.Fatal("client received an event type it never subscribed to")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_BroadcastDropsEventWhenChannelFull(t *testing.T) {
	hub := NewHub(nil)

	for i := 0; i < cap(hub.broadcast); i++ {
		hub.broadcast <- events.NewEvent(events.EventSystemMetrics, nil)
	}

	require.Len(t, hub.broadcast, cap(hub.broadcast))
	hub.Broadcast(events.NewEvent(events.EventTaskCreated, nil)) // must not block
}
