package notify

import (
	"context"

	oteltrace "go.opentelemetry.io/otel/trace"

	"modmarket/internal/model"
	"modmarket/internal/monitor"
	"modmarket/internal/repository"
	"modmarket/internal/ws"
	"modmarket/pkg/breaker"
	"modmarket/pkg/log"
	"modmarket/pkg/queue"
)

// Dispatcher fans a notification out to its recipient. The durable record is
// written first and is the only step allowed to fail the call; the live
// channel push and the queued side-channel deliveries are best effort.
type Dispatcher struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	hub              *ws.Hub
	mq               queue.MessageQueue
	breakers         *breaker.Manager
	senders          []Sender
}

// NewDispatcher creates a dispatcher
func NewDispatcher(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	hub *ws.Hub,
	mq queue.MessageQueue,
	breakers *breaker.Manager,
	senders ...Sender,
) *Dispatcher {
	return &Dispatcher{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		hub:              hub,
		mq:               mq,
		breakers:         breakers,
		senders:          senders,
	}
}

// Notify stores the notification, pushes it over the live channel if the
// recipient is online, and queues side-channel delivery. Only the store can
// fail the call.
func (d *Dispatcher) Notify(ctx context.Context, n *model.Notification) error {
	if err := d.notificationRepo.Create(ctx, n); err != nil {
		return err
	}

	if d.hub != nil {
		d.hub.SendTo(n.UserID, ws.NotificationEvent(n))
	}

	if d.mq != nil {
		task := &DeliveryTask{
			NotificationID: n.ID,
			UserID:         n.UserID,
			Title:          n.Title,
			Body:           n.Body,
		}
		data, err := task.Encode()
		if err != nil {
			log.Errorf("encode delivery task for notification %d: %v", n.ID, err)
			return nil
		}
		if err := d.mq.Publish(ctx, TopicDelivery, data); err != nil {
			log.Warnf("queue delivery task for notification %d: %v", n.ID, err)
		}
	}

	return nil
}

// Deliver runs the side channels for one queued task. Each channel is gated
// on the user's preferences and guarded by its own circuit breaker; failures
// are logged and dropped.
func (d *Dispatcher) Deliver(ctx context.Context, task *DeliveryTask) {
	user, err := d.userRepo.GetByID(ctx, task.UserID)
	if err != nil {
		log.Warnf("deliver notification %d: load user %d: %v", task.NotificationID, task.UserID, err)
		return
	}

	for _, sender := range d.senders {
		if !sender.Enabled(user) {
			continue
		}

		name := sender.Name()

		sendCtx := ctx
		var span oteltrace.Span
		tr := monitor.GlobalTracer()
		if tr != nil {
			sendCtx, span = tr.StartNotifySpan(ctx, name, task.UserID)
		}

		err := d.breakers.Execute(sendCtx, name, func() error {
			return sender.Send(sendCtx, user, task.Title, task.Body)
		})
		if span != nil {
			tr.RecordError(span, err)
			span.End()
		}
		if err != nil {
			monitor.RecordNotificationDelivery(name, false)
			log.Warnf("deliver notification %d via %s to user %d: %v",
				task.NotificationID, name, task.UserID, err)
			continue
		}
		monitor.RecordNotificationDelivery(name, true)
	}
}
