package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ucplatform-backend/pkg/logger"
	"ucplatform-backend/pkg/metrics"
)

func init() {
	logger.InitDefault()
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, metrics.NewMetrics("hub-test"))
	go hub.Run()
	return hub
}

func sessionCount(hub *Hub, userID uuid.UUID) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.users[userID])
}

// registerClient returns only once the registry reflects the new session.
// Waiting on IsConnected is not enough: it is already true while a second
// session of the same user is still in flight.
func registerClient(t *testing.T, hub *Hub, userID uuid.UUID) *Client {
	t.Helper()
	before := sessionCount(hub, userID)

	client := newClient(hub, nil, userID)
	hub.register <- client
	require.Eventually(t, func() bool {
		return sessionCount(hub, userID) == before+1
	}, time.Second, 5*time.Millisecond)
	return client
}

func receive(t *testing.T, client *Client) Event {
	t.Helper()
	select {
	case raw := <-client.send:
		var event Event
		require.NoError(t, json.Unmarshal(raw, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestSendToUserDeliversToAllSessions(t *testing.T) {
	hub := newTestHub(t)
	userID := uuid.New()

	first := registerClient(t, hub, userID)
	second := registerClient(t, hub, userID)

	delivered := hub.SendToUser(userID, "call_answered", map[string]string{"call_id": "abc"})
	assert.True(t, delivered)

	for _, client := range []*Client{first, second} {
		event := receive(t, client)
		assert.Equal(t, "call_answered", event.Event)
	}
}

func TestSendToUserWithoutSessionDropsSilently(t *testing.T) {
	hub := newTestHub(t)

	delivered := hub.SendToUser(uuid.New(), "incoming_call", nil)
	assert.False(t, delivered)
}

func TestConnectHooksFireOnFirstAndLastSession(t *testing.T) {
	hub := NewHub(nil, metrics.NewMetrics("hub-hooks-test"))

	connects := make(chan uuid.UUID, 4)
	disconnects := make(chan uuid.UUID, 4)
	hub.OnConnect = func(id uuid.UUID) { connects <- id }
	hub.OnDisconnect = func(id uuid.UUID) { disconnects <- id }
	go hub.Run()

	userID := uuid.New()
	first := registerClient(t, hub, userID)
	second := registerClient(t, hub, userID)

	select {
	case id := <-connects:
		assert.Equal(t, userID, id)
	case <-time.After(time.Second):
		t.Fatal("connect hook not fired")
	}
	// Second session of the same user must not fire the hook again
	assert.Empty(t, connects)

	hub.unregister <- first
	require.Eventually(t, func() bool {
		return sessionCount(hub, userID) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, disconnects)

	hub.unregister <- second
	select {
	case id := <-disconnects:
		assert.Equal(t, userID, id)
	case <-time.After(time.Second):
		t.Fatal("disconnect hook not fired")
	}
	assert.False(t, hub.IsConnected(userID))
}

func TestBroadcastAllReachesEveryUser(t *testing.T) {
	hub := newTestHub(t)

	alice := registerClient(t, hub, uuid.New())
	bob := registerClient(t, hub, uuid.New())

	hub.BroadcastAll("user_status_update", map[string]string{"status": "Away"})

	for _, client := range []*Client{alice, bob} {
		event := receive(t, client)
		assert.Equal(t, "user_status_update", event.Event)
	}
}

func TestConnectedUsers(t *testing.T) {
	hub := newTestHub(t)

	userID := uuid.New()
	registerClient(t, hub, userID)

	ids := hub.ConnectedUsers()
	require.Len(t, ids, 1)
	assert.Equal(t, userID, ids[0])
}
