package queue

import (
	"context"
	"errors"
)

// MessageQueue message queue interface
type MessageQueue interface {
	// Publish publishes a message to a topic
	Publish(ctx context.Context, topic string, message []byte) error
	// Consume consumes a message from a topic, blocking until one arrives
	Consume(ctx context.Context, topic string) ([]byte, error)
	// Close closes the queue
	Close() error
}

// Common errors
var (
	ErrQueueClosed    = errors.New("queue is closed")
	ErrPublishTimeout = errors.New("publish timeout")
)
