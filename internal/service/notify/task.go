package notify

import "encoding/json"

// TopicDelivery is the queue topic for side-channel delivery tasks
const TopicDelivery = "notify.delivery"

// DeliveryTask is the queued payload for one notification's side channels.
// The durable record already exists when the task is published; delivery
// failures never touch it.
type DeliveryTask struct {
	NotificationID uint64 `json:"notification_id"`
	UserID         uint64 `json:"user_id"`
	Title          string `json:"title"`
	Body           string `json:"body"`
}

// Encode serializes the task for the queue
func (t *DeliveryTask) Encode() ([]byte, error) {
	return json.Marshal(t)
}

// DecodeDeliveryTask deserializes a queued task
func DecodeDeliveryTask(data []byte) (*DeliveryTask, error) {
	var t DeliveryTask
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
