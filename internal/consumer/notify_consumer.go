package consumer

import (
	"context"
	"errors"
	"time"

	"modmarket/internal/monitor"
	"modmarket/internal/service/notify"
	"modmarket/pkg/log"
	"modmarket/pkg/queue"
)

// NotifyConsumer drains queued notification delivery tasks and runs their
// side channels through the dispatcher
type NotifyConsumer struct {
	dispatcher   *notify.Dispatcher
	messageQueue queue.MessageQueue
	workers      int
	stopCh       chan struct{}
}

// NewNotifyConsumer creates a notification delivery consumer
func NewNotifyConsumer(dispatcher *notify.Dispatcher, messageQueue queue.MessageQueue, workers int) *NotifyConsumer {
	if workers <= 0 {
		workers = 1
	}
	return &NotifyConsumer{
		dispatcher:   dispatcher,
		messageQueue: messageQueue,
		workers:      workers,
		stopCh:       make(chan struct{}),
	}
}

// Start starts the consumer workers
func (c *NotifyConsumer) Start(ctx context.Context) {
	log.Infof("Starting notify consumer with %d workers", c.workers)

	for i := 0; i < c.workers; i++ {
		go c.run(ctx)
	}
}

func (c *NotifyConsumer) run(ctx context.Context) {
	for {
		select {
		case <-c.stopCh:
			log.Info("Notify consumer stopped")
			return
		case <-ctx.Done():
			log.Info("Notify consumer context cancelled")
			return
		default:
			consumeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			data, err := c.messageQueue.Consume(consumeCtx, notify.TopicDelivery)
			cancel()

			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				if errors.Is(err, queue.ErrQueueClosed) {
					log.Info("Notify consumer queue closed")
					return
				}
				log.WithFields(map[string]interface{}{
					"error": err.Error(),
				}).Error("Failed to consume delivery task")
				time.Sleep(time.Second)
				continue
			}
			monitor.RecordQueueMessage(notify.TopicDelivery, "consume", true)

			task, err := notify.DecodeDeliveryTask(data)
			if err != nil {
				log.WithFields(map[string]interface{}{
					"error": err.Error(),
				}).Error("Failed to decode delivery task")
				continue
			}

			c.dispatcher.Deliver(ctx, task)
		}
	}
}

// Stop stops the consumer
func (c *NotifyConsumer) Stop() {
	close(c.stopCh)
}
