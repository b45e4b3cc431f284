package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn serializes writes to a gorilla connection. The gorilla API allows at
// most one concurrent writer, and hub sends can race the read pump's
// heartbeat acks without this. Reads stay unlocked; the read pump is the
// only reader.
type Conn struct {
	mu           sync.Mutex
	ws           *websocket.Conn
	writeTimeout time.Duration
}

// WrapConn wraps a gorilla connection for shared writing
func WrapConn(wsConn *websocket.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{
		ws:           wsConn,
		writeTimeout: writeTimeout,
	}
}

// WriteJSON writes one JSON frame under the write lock
func (c *Conn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.ws.WriteJSON(v)
}

// ReadMessage reads the next frame
func (c *Conn) ReadMessage() (int, []byte, error) {
	return c.ws.ReadMessage()
}

// SetReadLimit caps the inbound frame size
func (c *Conn) SetReadLimit(limit int64) {
	c.ws.SetReadLimit(limit)
}

// Close closes the underlying connection
func (c *Conn) Close() error {
	return c.ws.Close()
}
