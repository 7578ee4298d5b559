package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(hub *Hub, userID string, buffer int) *Client {
	return &Client{
		hub:    hub,
		userID: userID,
		send:   make(chan []byte, buffer),
		logger: zap.NewNop(),
	}
}

func receive(t *testing.T, client *Client) Envelope {
	t.Helper()
	select {
	case message := <-client.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(message, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Envelope{}
	}
}

func TestHubDeliversToOwnerRoomOnly(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Shutdown()

	owner := newTestClient(hub, "user-1", 4)
	other := newTestClient(hub, "user-2", 4)
	hub.register <- owner
	hub.register <- other

	hub.Publish("user-1", "expense-added", map[string]string{"id": "exp-1"})

	env := receive(t, owner)
	assert.Equal(t, "expense-added", env.Event)
	assert.Empty(t, other.send, "events do not leak across rooms")
}

func TestHubFansOutToAllSessionsOfUser(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Shutdown()

	first := newTestClient(hub, "user-1", 4)
	second := newTestClient(hub, "user-1", 4)
	hub.register <- first
	hub.register <- second

	hub.Publish("user-1", "expense-updated", nil)

	assert.Equal(t, "expense-updated", receive(t, first).Event)
	assert.Equal(t, "expense-updated", receive(t, second).Event)
}

func TestHubDropsSlowConsumer(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Shutdown()

	slow := newTestClient(hub, "user-1", 1)
	hub.register <- slow

	// First event fills the buffer, second evicts the client.
	hub.Publish("user-1", "expense-added", nil)
	hub.Publish("user-1", "expense-added", nil)

	assert.Eventually(t, func() bool {
		hub.Publish("user-1", "expense-added", nil)
		// A closed send channel means the hub dropped the client.
		select {
		case _, ok := <-slow.send:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Shutdown()

	client := newTestClient(hub, "user-1", 4)
	hub.register <- client
	hub.unregister <- client

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-client.send:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestDisconnectAfterShutdownDoesNotBlock(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	client := newTestClient(hub, "user-1", 4)
	hub.enroll(client)
	hub.Shutdown()

	done := make(chan struct{})
	go func() {
		// A client disconnecting during the drain window must not hang
		// on a run loop that has already exited.
		hub.drop(client)
		hub.enroll(newTestClient(hub, "user-2", 4))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("unregister blocked after shutdown")
	}
}

func TestPublishAfterShutdownDoesNotBlock(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	hub.Shutdown()

	done := make(chan struct{})
	go func() {
		hub.Publish("user-1", "expense-added", nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked after shutdown")
	}
}
