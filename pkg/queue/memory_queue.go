package queue

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue in-memory message queue. Dispatch work that survives a process
// restart is not required here: pending notifications are already durable rows,
// only their delivery attempt rides through the queue.
type MemoryQueue struct {
	topics map[string]chan []byte
	config *Config
	mu     sync.RWMutex
	closed bool
}

// Config memory queue configuration
type Config struct {
	BufferSize     int           `json:"buffer_size"`
	PublishTimeout time.Duration `json:"publish_timeout"`
}

// NewMemoryQueue creates a new memory queue instance
func NewMemoryQueue(config *Config) *MemoryQueue {
	if config == nil {
		config = &Config{
			BufferSize:     1000,
			PublishTimeout: 5 * time.Second,
		}
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = 5 * time.Second
	}

	return &MemoryQueue{
		topics: make(map[string]chan []byte),
		config: config,
	}
}

// Publish publishes a message to a topic
func (mq *MemoryQueue) Publish(ctx context.Context, topic string, message []byte) error {
	mq.mu.Lock()
	if mq.closed {
		mq.mu.Unlock()
		return ErrQueueClosed
	}
	ch := mq.topic(topic)
	mq.mu.Unlock()

	select {
	case ch <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(mq.config.PublishTimeout):
		return ErrPublishTimeout
	}
}

// Consume consumes a message from a topic, blocking until one arrives
func (mq *MemoryQueue) Consume(ctx context.Context, topic string) ([]byte, error) {
	mq.mu.Lock()
	if mq.closed {
		mq.mu.Unlock()
		return nil, ErrQueueClosed
	}
	ch := mq.topic(topic)
	mq.mu.Unlock()

	select {
	case message, ok := <-ch:
		if !ok {
			return nil, ErrQueueClosed
		}
		return message, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close closes the queue
func (mq *MemoryQueue) Close() error {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	if mq.closed {
		return nil
	}
	mq.closed = true

	for _, ch := range mq.topics {
		close(ch)
	}
	mq.topics = make(map[string]chan []byte)

	return nil
}

// Health checks the health of the queue
func (mq *MemoryQueue) Health() error {
	mq.mu.RLock()
	defer mq.mu.RUnlock()

	if mq.closed {
		return ErrQueueClosed
	}
	return nil
}

// topic returns the channel for a topic, creating it if needed; callers hold mq.mu
func (mq *MemoryQueue) topic(name string) chan []byte {
	ch, ok := mq.topics[name]
	if !ok {
		ch = make(chan []byte, mq.config.BufferSize)
		mq.topics[name] = ch
	}
	return ch
}
