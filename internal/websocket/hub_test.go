package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func receive(t *testing.T, client *Client) map[string]interface{} {
	t.Helper()
	select {
	case data, ok := <-client.Send:
		require.True(t, ok, "send channel closed")
		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &out))
		return out
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestHub_SendToUserReachesEverySession(t *testing.T) {
	hub := startHub(t)

	phone := NewClient(hub, nil, 7)
	laptop := NewClient(hub, nil, 7)
	stranger := NewClient(hub, nil, 8)
	hub.Register(phone)
	hub.Register(laptop)
	hub.Register(stranger)

	require.Eventually(t, func() bool {
		return hub.SessionCount(7) == 2 && hub.IsUserOnline(8)
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.SendToUser(7, map[string]string{"type": "order_placed"}))

	assert.Equal(t, "order_placed", receive(t, phone)["type"])
	assert.Equal(t, "order_placed", receive(t, laptop)["type"])
	assert.Len(t, stranger.Send, 0)
}

func TestHub_UnregisterClosesSendChannel(t *testing.T) {
	hub := startHub(t)
	client := NewClient(hub, nil, 3)
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.IsUserOnline(3) }, time.Second, 5*time.Millisecond)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return !hub.IsUserOnline(3) }, time.Second, 5*time.Millisecond)

	_, ok := <-client.Send
	assert.False(t, ok)
}

func TestHub_HandleClientMessage(t *testing.T) {
	hub := NewHub()
	client := NewClient(hub, nil, 1)

	hub.HandleClientMessage(client, []byte(`{"type":"ping"}`))
	assert.Equal(t, "pong", receive(t, client)["type"])

	hub.HandleClientMessage(client, []byte(`not json`))
	assert.Len(t, client.Send, 0)

	for i := 0; i < maxMessagesPerSecond+5; i++ {
		hub.HandleClientMessage(client, []byte(`{"type":"ping"}`))
	}
	assert.LessOrEqual(t, len(client.Send), maxMessagesPerSecond)
}
