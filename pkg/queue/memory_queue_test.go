package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryQueue_PublishConsume(t *testing.T) {
	mq := NewMemoryQueue(nil)
	defer mq.Close()

	ctx := context.Background()

	err := mq.Publish(ctx, "notifications", []byte("hello"))
	assert.NoError(t, err)

	msg, err := mq.Consume(ctx, "notifications")
	assert.NoError(t, err)
	assert.Equal(t, []byte("hello"), msg)
}

func TestMemoryQueue_ConsumeOrdering(t *testing.T) {
	mq := NewMemoryQueue(nil)
	defer mq.Close()

	ctx := context.Background()

	for _, payload := range []string{"a", "b", "c"} {
		assert.NoError(t, mq.Publish(ctx, "t", []byte(payload)))
	}

	for _, want := range []string{"a", "b", "c"} {
		msg, err := mq.Consume(ctx, "t")
		assert.NoError(t, err)
		assert.Equal(t, want, string(msg))
	}
}

func TestMemoryQueue_ConsumeContextCancel(t *testing.T) {
	mq := NewMemoryQueue(nil)
	defer mq.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := mq.Consume(ctx, "empty")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryQueue_TopicsIsolated(t *testing.T) {
	mq := NewMemoryQueue(nil)
	defer mq.Close()

	ctx := context.Background()

	assert.NoError(t, mq.Publish(ctx, "t1", []byte("one")))
	assert.NoError(t, mq.Publish(ctx, "t2", []byte("two")))

	msg, err := mq.Consume(ctx, "t2")
	assert.NoError(t, err)
	assert.Equal(t, "two", string(msg))
}

func TestMemoryQueue_Closed(t *testing.T) {
	mq := NewMemoryQueue(nil)
	assert.NoError(t, mq.Close())
	assert.NoError(t, mq.Close()) // idempotent

	ctx := context.Background()

	err := mq.Publish(ctx, "t", []byte("x"))
	assert.Equal(t, ErrQueueClosed, err)

	_, err = mq.Consume(ctx, "t")
	assert.Equal(t, ErrQueueClosed, err)

	assert.Equal(t, ErrQueueClosed, mq.Health())
}

func TestMemoryQueue_PublishTimeout(t *testing.T) {
	mq := NewMemoryQueue(&Config{BufferSize: 1, PublishTimeout: 50 * time.Millisecond})
	defer mq.Close()

	ctx := context.Background()

	assert.NoError(t, mq.Publish(ctx, "t", []byte("fill")))

	err := mq.Publish(ctx, "t", []byte("overflow"))
	assert.Equal(t, ErrPublishTimeout, err)
}
