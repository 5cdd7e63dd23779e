package websocket

import (
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyprep/pkg/contracts/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(testLogger())
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

// waitForMessage reads one frame from the client's send channel.
func waitForMessage(t *testing.T, client *Client) map[string]interface{} {
	t.Helper()
	select {
	case raw, ok := <-client.send:
		require.True(t, ok, "send channel closed before message arrived")
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestHubRegisterSendsWelcome(t *testing.T) {
	hub := startTestHub(t)

	client := NewClientWithConnection(hub, newMockConnection(), testLogger())
	hub.Register(client)

	msg := waitForMessage(t, client)
	assert.Equal(t, string(events.MessageTypeConnect), msg["type"])

	data, ok := msg["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "connected", data["status"])
	assert.Equal(t, client.id, data["client_id"])

	assert.Equal(t, 1, hub.ClientCount())
}

func TestHubUnregister(t *testing.T) {
	hub := startTestHub(t)

	client := NewClientWithConnection(hub, newMockConnection(), testLogger())
	hub.Register(client)
	waitForMessage(t, client)

	hub.unregister <- client

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	// The hub closed the send channel on unregister
	_, ok := <-client.send
	assert.False(t, ok)
}

func TestBroadcastUpdateReachesAllClients(t *testing.T) {
	hub := startTestHub(t)

	first := NewClientWithConnection(hub, newMockConnection(), testLogger())
	second := NewClientWithConnection(hub, newMockConnection(), testLogger())
	hub.Register(first)
	hub.Register(second)
	waitForMessage(t, first)
	waitForMessage(t, second)

	hub.BroadcastUpdate(string(events.MessageTypeRunSnapshot), events.RunSnapshot{
		RunID:   "run-1",
		Dataset: "survey.csv",
		Status:  "running",
	})

	for _, client := range []*Client{first, second} {
		msg := waitForMessage(t, client)
		assert.Equal(t, string(events.MessageTypeRunSnapshot), msg["type"])
		assert.NotEmpty(t, msg["timestamp"])

		data, ok := msg["data"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "run-1", data["run_id"])
		assert.Equal(t, "survey.csv", data["dataset"])
	}
}

func TestSlowClientIsDisconnected(t *testing.T) {
	hub := startTestHub(t)

	// A one-slot buffer fills with the welcome message, so the next
	// broadcast finds it full
	slow := NewClientWithConnection(hub, newMockConnection(), testLogger())
	slow.send = make(chan []byte, 1)
	hub.Register(slow)

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.BroadcastUpdate(string(events.MessageTypeRunSnapshot), events.RunSnapshot{RunID: "run-1"})

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubStopIsIdempotent(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()

	client := NewClientWithConnection(hub, newMockConnection(), testLogger())
	hub.Register(client)
	waitForMessage(t, client)

	hub.Stop()
	assert.NotPanics(t, hub.Stop)

	assert.Equal(t, 0, hub.ClientCount())

	// Broadcasting after shutdown must not block
	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer+8; i++ {
			hub.BroadcastUpdate("system:status", map[string]string{"status": "down"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("BroadcastUpdate blocked after Stop")
	}
}

func TestHubStartIsIdempotent(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	hub.Start()
	t.Cleanup(hub.Stop)

	client := NewClientWithConnection(hub, newMockConnection(), testLogger())
	hub.Register(client)
	waitForMessage(t, client)
	assert.Equal(t, 1, hub.ClientCount())
}

func TestGetHubMetrics(t *testing.T) {
	hub := startTestHub(t)

	client := NewClientWithConnection(hub, newMockConnection(), testLogger())
	hub.Register(client)
	waitForMessage(t, client)

	hub.BroadcastUpdate("system:status", map[string]string{"status": "healthy"})
	waitForMessage(t, client)

	metrics := hub.GetHubMetrics()
	assert.Equal(t, 1, metrics["active_clients"])
	assert.Equal(t, int64(1), metrics["total_connections"])
	assert.GreaterOrEqual(t, metrics["messages_sent"].(int64), int64(1))
}

func TestBroadcastUnmarshalableDataIsDropped(t *testing.T) {
	hub := startTestHub(t)

	client := NewClientWithConnection(hub, newMockConnection(), testLogger())
	hub.Register(client)
	waitForMessage(t, client)

	// Channels cannot be marshaled; the broadcast is logged and dropped
	hub.BroadcastUpdate("run:snapshot", make(chan int))

	select {
	case raw := <-client.send:
		t.Fatalf("unexpected message: %s", raw)
	case <-time.After(100 * time.Millisecond):
	}
}
