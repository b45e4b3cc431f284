package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"modmarket/internal/config"
	"modmarket/internal/model"
	"modmarket/pkg/log"
	"modmarket/pkg/utils"
)

// PushSender delivers browser push notifications. Delivery to the push
// service is not wired up yet; the sender validates the stored subscription
// and logs the attempt so breaker and metrics behavior is exercised.
// TODO: integrate a Web Push (VAPID) client once keys are provisioned.
type PushSender struct {
	enabled bool
}

// NewPushSender creates a push sender from config
func NewPushSender(cfg *config.NotifyConfig) *PushSender {
	return &PushSender{enabled: cfg.Push.Enabled}
}

// Name identifies the channel
func (s *PushSender) Name() string {
	return "push"
}

// Enabled reports opt-in plus a stored subscription
func (s *PushSender) Enabled(u *model.User) bool {
	return s.enabled && u.NotifyPush && u.PushSubscription != nil && *u.PushSubscription != ""
}

type pushSubscription struct {
	Endpoint string `json:"endpoint"`
}

// Send validates the subscription and records the attempt
func (s *PushSender) Send(ctx context.Context, u *model.User, title, body string) error {
	var sub pushSubscription
	if err := json.Unmarshal([]byte(*u.PushSubscription), &sub); err != nil {
		return fmt.Errorf("%w: malformed push subscription: %v", utils.ErrDeliveryFailed, err)
	}
	if sub.Endpoint == "" {
		return fmt.Errorf("%w: push subscription missing endpoint", utils.ErrDeliveryFailed)
	}

	log.Debugf("push notification for user %d queued to %s", u.ID, sub.Endpoint)
	return nil
}
