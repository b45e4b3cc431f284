package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserStatusEventShape(t *testing.T) {
	e := UserStatusEvent(7, true)

	assert.Equal(t, EventUserStatus, e["type"])
	assert.Equal(t, uint64(7), e["user_id"])
	assert.Equal(t, true, e["is_online"])
	assert.NotEmpty(t, e["timestamp"])
}

func TestHeartbeatAckEchoesClientTimestamp(t *testing.T) {
	// Clients send epoch-millisecond timestamps; the ack returns the value
	// untouched so the client can measure round-trip time.
	sent := float64(1756339200000)
	e := HeartbeatAckEvent(sent)

	assert.Equal(t, EventHeartbeatAck, e["type"])
	assert.Equal(t, sent, e["timestamp"])
}

func TestHeartbeatAckWithoutClientTimestamp(t *testing.T) {
	e := HeartbeatAckEvent(nil)

	assert.Equal(t, EventHeartbeatAck, e["type"])
	assert.NotEmpty(t, e["timestamp"])
}
