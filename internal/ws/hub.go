package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"modmarket/pkg/log"
)

// Channel is the write side of a live client connection
type Channel interface {
	WriteJSON(v interface{}) error
	Close() error
}

type connection struct {
	id           uuid.UUID
	ch           Channel
	lastActivity time.Time
}

// Hub tracks at most one live connection per user. A second register for the
// same user replaces the first; unregister is a no-op unless the connection
// ID still matches, so a slow close of a replaced connection cannot knock
// out its successor.
type Hub struct {
	mu    sync.RWMutex
	conns map[uint64]*connection
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		conns: make(map[uint64]*connection),
	}
}

// Register installs ch as the user's live connection and returns its
// connection ID. Any previous connection of the same user is closed. Other
// online users are told the user came online; the user is not told who was
// already online here (clients ask over the API instead).
func (h *Hub) Register(userID uint64, ch Channel) uuid.UUID {
	connID := uuid.New()

	h.mu.Lock()
	prev := h.conns[userID]
	h.conns[userID] = &connection{
		id:           connID,
		ch:           ch,
		lastActivity: time.Now(),
	}
	h.mu.Unlock()

	if prev != nil {
		if err := prev.ch.Close(); err != nil {
			log.Debugf("close replaced connection for user %d: %v", userID, err)
		}
	}

	h.BroadcastExcept(userID, UserStatusEvent(userID, true))

	log.Infof("user %d connected, conn %s", userID, connID)
	return connID
}

// Unregister removes the user's connection if connID still identifies it.
// A stale unregister from a replaced connection leaves the current one alone.
func (h *Hub) Unregister(userID uint64, connID uuid.UUID) {
	h.mu.Lock()
	conn, ok := h.conns[userID]
	if !ok || conn.id != connID {
		h.mu.Unlock()
		return
	}
	delete(h.conns, userID)
	h.mu.Unlock()

	// Only connects are announced; peers learn of a disconnect the next
	// time they query presence.
	log.Infof("user %d disconnected, conn %s", userID, connID)
}

// SendTo delivers an event to the user if one is online. A write failure
// evicts the connection. Returns whether delivery succeeded.
func (h *Hub) SendTo(userID uint64, event Event) bool {
	h.mu.RLock()
	conn, ok := h.conns[userID]
	h.mu.RUnlock()
	if !ok {
		return false
	}

	if err := conn.ch.WriteJSON(event); err != nil {
		log.Warnf("send to user %d failed, evicting: %v", userID, err)
		h.evict(userID, conn.id)
		return false
	}
	return true
}

// Broadcast delivers an event to every online user. Failed recipients are
// evicted; one dead connection never blocks the rest.
func (h *Hub) Broadcast(event Event) {
	h.broadcast(0, event)
}

// BroadcastExcept delivers an event to every online user but one
func (h *Hub) BroadcastExcept(skipUserID uint64, event Event) {
	h.broadcast(skipUserID, event)
}

func (h *Hub) broadcast(skipUserID uint64, event Event) {
	type target struct {
		userID uint64
		connID uuid.UUID
		ch     Channel
	}

	h.mu.RLock()
	targets := make([]target, 0, len(h.conns))
	for userID, conn := range h.conns {
		if userID == skipUserID {
			continue
		}
		targets = append(targets, target{userID: userID, connID: conn.id, ch: conn.ch})
	}
	h.mu.RUnlock()

	// Writes happen outside the lock so a stalled socket cannot stall
	// registration or other sends.
	for _, tgt := range targets {
		if err := tgt.ch.WriteJSON(event); err != nil {
			log.Warnf("broadcast to user %d failed, evicting: %v", tgt.userID, err)
			h.evict(tgt.userID, tgt.connID)
		}
	}
}

// evict drops a connection only if connID still identifies it
func (h *Hub) evict(userID uint64, connID uuid.UUID) {
	h.mu.Lock()
	conn, ok := h.conns[userID]
	if !ok || conn.id != connID {
		h.mu.Unlock()
		return
	}
	delete(h.conns, userID)
	h.mu.Unlock()

	conn.ch.Close()
}

// Disconnect force-closes the user's live connection regardless of its
// connection ID. Used when an account is banned. Returns whether a
// connection was dropped.
func (h *Hub) Disconnect(userID uint64) bool {
	h.mu.Lock()
	conn, ok := h.conns[userID]
	if ok {
		delete(h.conns, userID)
	}
	h.mu.Unlock()
	if !ok {
		return false
	}

	conn.ch.Close()
	log.Infof("user %d force-disconnected", userID)
	return true
}

// Touch records client activity on the user's connection
func (h *Hub) Touch(userID uint64) {
	h.mu.Lock()
	if conn, ok := h.conns[userID]; ok {
		conn.lastActivity = time.Now()
	}
	h.mu.Unlock()
}

// IsOnline reports whether the user has a live connection
func (h *Hub) IsOnline(userID uint64) bool {
	h.mu.RLock()
	_, ok := h.conns[userID]
	h.mu.RUnlock()
	return ok
}

// OnlineUsers returns the IDs of all connected users
func (h *Hub) OnlineUsers() []uint64 {
	h.mu.RLock()
	ids := make([]uint64, 0, len(h.conns))
	for userID := range h.conns {
		ids = append(ids, userID)
	}
	h.mu.RUnlock()
	return ids
}

// OnlineCount returns the number of connected users
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	n := len(h.conns)
	h.mu.RUnlock()
	return n
}
