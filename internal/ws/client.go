package ws

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"modmarket/pkg/log"
)

// Client pumps inbound frames for one registered connection
type Client struct {
	hub    *Hub
	conn   *Conn
	userID uint64
	connID uuid.UUID

	readLimit int64
}

// NewClient wraps a registered websocket connection
func NewClient(hub *Hub, conn *Conn, userID uint64, connID uuid.UUID, readLimit int64) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		userID:    userID,
		connID:    connID,
		readLimit: readLimit,
	}
}

type inboundFrame struct {
	Type      string      `json:"type"`
	Timestamp interface{} `json:"timestamp"`
}

// ReadPump consumes client frames until the connection drops, then
// unregisters. Heartbeats get an ack and refresh the activity timestamp;
// anything else just counts as activity. The unregister carries the
// connection ID so it cannot tear down a replacement connection.
func (c *Client) ReadPump(onActivity func(userID uint64)) {
	defer func() {
		c.hub.Unregister(c.userID, c.connID)
		c.conn.Close()
	}()

	if c.readLimit > 0 {
		c.conn.SetReadLimit(c.readLimit)
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debugf("user %d read error: %v", c.userID, err)
			}
			return
		}

		c.hub.Touch(c.userID)
		if onActivity != nil {
			onActivity(c.userID)
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Debugf("user %d sent malformed frame: %v", c.userID, err)
			continue
		}

		if frame.Type == EventHeartbeat {
			if err := c.conn.WriteJSON(HeartbeatAckEvent(frame.Timestamp)); err != nil {
				return
			}
		}
	}
}
