package ws

import (
	"time"

	"modmarket/internal/model"
)

// Event types pushed over the live channel
const (
	EventUserStatus   = "user_status"
	EventNewDeal      = "new_deal"
	EventDealUpdate   = "deal_update"
	EventNewMessage   = "new_message"
	EventHeartbeat    = "heartbeat"
	EventHeartbeatAck = "heartbeat_ack"
)

// Event is a single frame pushed to a client
type Event map[string]interface{}

// UserStatusEvent announces a user going online or offline
func UserStatusEvent(userID uint64, isOnline bool) Event {
	return Event{
		"type":      EventUserStatus,
		"user_id":   userID,
		"is_online": isOnline,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
}

// NewDealEvent announces a freshly created deal
func NewDealEvent(deal *model.Deal) Event {
	return Event{
		"type":    EventNewDeal,
		"deal_id": deal.ID,
		"deal_no": deal.DealNo,
		"status":  deal.Status,
	}
}

// DealUpdateEvent announces a deal status change
func DealUpdateEvent(deal *model.Deal) Event {
	return Event{
		"type":    EventDealUpdate,
		"deal_id": deal.ID,
		"deal_no": deal.DealNo,
		"status":  deal.Status,
	}
}

// NewMessageEvent announces a new message in a deal thread
func NewMessageEvent(msg *model.DealMessage) Event {
	return Event{
		"type":      EventNewMessage,
		"deal_id":   msg.DealID,
		"sender_id": msg.SenderID,
		"message":   msg.Body,
		"is_system": msg.IsSystem,
	}
}

// HeartbeatAckEvent answers a client heartbeat, echoing the timestamp the
// client sent so it can measure round-trip time. Heartbeats without one get
// the server clock instead.
func HeartbeatAckEvent(timestamp interface{}) Event {
	if timestamp == nil {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return Event{
		"type":      EventHeartbeatAck,
		"timestamp": timestamp,
	}
}

// NotificationEvent pushes a stored notification to its recipient
func NotificationEvent(n *model.Notification) Event {
	e := Event{
		"type":            "notification",
		"notification_id": n.ID,
		"title":           n.Title,
		"message":         n.Body,
		"kind":            n.Type,
	}
	if n.DealID != nil {
		e["deal_id"] = *n.DealID
	}
	return e
}
