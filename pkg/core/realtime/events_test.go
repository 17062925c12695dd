package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventType_Constants(t *testing.T) {
	assert.Equal(t, EventType("graph.updated"), EventGraphUpdated)
	assert.Equal(t, EventType("client.connected"), EventClientConnected)
	assert.Equal(t, EventType("client.disconnected"), EventClientDisconnected)
	assert.Equal(t, EventType("backpressure.triggered"), EventBackpressure)
}

func TestNewRealtimeEvent(t *testing.T) {
	before := time.Now()
	event, err := NewRealtimeEvent(EventGraphUpdated, "client-1", &GraphUpdatedPayload{
		TaskCount: 2,
		TaskIDs:   []string{"0", "1"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, EventGraphUpdated, event.Type)
	assert.Equal(t, "client-1", event.ClientID)
	assert.False(t, event.Timestamp.Before(before))
	assert.NotNil(t, event.Metadata)

	var payload GraphUpdatedPayload
	require.NoError(t, event.DecodePayload(&payload))
	assert.Equal(t, 2, payload.TaskCount)
	assert.Equal(t, []string{"0", "1"}, payload.TaskIDs)
}

func TestNewRealtimeEvent_WithoutPayload(t *testing.T) {
	event, err := NewRealtimeEvent(EventClientDisconnected, "client-1", nil)
	require.NoError(t, err)
	assert.Empty(t, event.Payload)

	var payload ClientPayload
	assert.Error(t, event.DecodePayload(&payload))
}

func TestNewRealtimeEvent_UnmarshalablePayload(t *testing.T) {
	_, err := NewRealtimeEvent(EventGraphUpdated, "", make(chan int))
	assert.Error(t, err)
}

func TestRealtimeEvent_WithMetadata(t *testing.T) {
	event := &RealtimeEvent{}
	event.WithMetadata("key1", "value1").WithMetadata("key2", "value2")

	assert.Equal(t, "value1", event.Metadata["key1"])
	assert.Equal(t, "value2", event.Metadata["key2"])
}

func TestRealtimeEvent_JSON(t *testing.T) {
	event, err := NewRealtimeEvent(EventClientConnected, "client-7", &ClientPayload{
		RemoteAddr: "127.0.0.1:5555",
		Clients:    3,
	})
	require.NoError(t, err)
	event.WithMetadata("env", "test")

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "client.connected", raw["type"])
	assert.Equal(t, "client-7", raw["client_id"])
	payload := raw["payload"].(map[string]interface{})
	assert.Equal(t, "127.0.0.1:5555", payload["remote_addr"])
	assert.Equal(t, float64(3), payload["clients"])

	var decoded RealtimeEvent
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, "test", decoded.Metadata["env"])
}
