package kafka

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"slotkeeper/pkg/logger"

	"github.com/segmentio/kafka-go"
)

func runConsumer(t *testing.T, c *Consumer, reader *fakeReader) {
	t.Helper()
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	select {
	case <-reader.drained:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not process all messages")
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Start() error = %v", err)
	}
}

func TestConsumer_HandlesAndCommits(t *testing.T) {
	reader := newFakeReader(
		kafka.Message{Topic: "in", Key: []byte("a"), Value: []byte("1")},
		kafka.Message{Topic: "in", Key: []byte("b"), Value: []byte("2")},
	)
	var handled atomic.Int32
	c := NewConsumerWithReader(reader, nil, "in", "group", "", 3, func(ctx context.Context, msg Message) error {
		handled.Add(1)
		return nil
	}, logger.Discard())

	runConsumer(t, c, reader)

	if handled.Load() != 2 {
		t.Errorf("handled %d messages, want 2", handled.Load())
	}
	if len(reader.committed) != 2 {
		t.Errorf("committed %d messages, want 2", len(reader.committed))
	}
}

func TestConsumer_RetriesTransientThenDeadLetters(t *testing.T) {
	reader := newFakeReader(kafka.Message{Topic: "in", Key: []byte("a"), Value: []byte("1")})
	dlq := &fakeWriter{}
	var attempts atomic.Int32
	c := NewConsumerWithReader(reader, dlq, "in", "group", "in-dlq", 2, func(ctx context.Context, msg Message) error {
		attempts.Add(1)
		return NewTransientError("queue full", nil).WithDetail("outcome", "rejected")
	}, logger.Discard())

	runConsumer(t, c, reader)

	if attempts.Load() != 3 {
		t.Errorf("handler attempts = %d, want 3 (1 + 2 retries)", attempts.Load())
	}
	dead := dlq.messages()
	if len(dead) != 1 {
		t.Fatalf("DLQ received %d messages, want 1", len(dead))
	}
	if got := header(dead[0], HeaderRetryCount); got != "2" {
		t.Errorf("retry-count header = %q, want 2", got)
	}
	if got := header(dead[0], HeaderDLQGroup); got != "group" {
		t.Errorf("consumer group header = %q", got)
	}
	if got := header(dead[0], HeaderDLQErrorType); got != "transient" {
		t.Errorf("error type header = %q, want transient", got)
	}
	if got := header(dead[0], HeaderDLQDetailPrefix+"outcome"); got != "rejected" {
		t.Errorf("outcome detail header = %q, want rejected", got)
	}
	if len(reader.committed) != 1 {
		t.Errorf("dead-lettered message must still be committed")
	}
}

func TestConsumer_PermanentErrorIsNotRetried(t *testing.T) {
	reader := newFakeReader(kafka.Message{Topic: "in", Key: []byte("a"), Value: []byte("{")})
	var attempts atomic.Int32
	c := NewConsumerWithReader(reader, nil, "in", "group", "", 5, func(ctx context.Context, msg Message) error {
		attempts.Add(1)
		var v map[string]any
		return msg.DecodeValue(&v)
	}, logger.Discard())

	runConsumer(t, c, reader)

	if attempts.Load() != 1 {
		t.Errorf("handler attempts = %d, want 1", attempts.Load())
	}
}

func TestConsumer_MiddlewareWrapsHandler(t *testing.T) {
	reader := newFakeReader(kafka.Message{Topic: "in", Key: []byte("a"), Value: []byte("1")})
	var order []string
	c := NewConsumerWithReader(reader, nil, "in", "group", "", 0, func(ctx context.Context, msg Message) error {
		order = append(order, "handler")
		return nil
	}, logger.Discard())
	c.Use(func(ctx context.Context, msg Message, next MessageHandler) error {
		order = append(order, "outer")
		return next(ctx, msg)
	})

	runConsumer(t, c, reader)

	if len(order) != 2 || order[0] != "outer" || order[1] != "handler" {
		t.Errorf("call order = %v", order)
	}
}

func TestConsumer_StartAfterClose(t *testing.T) {
	c := NewConsumerWithReader(newFakeReader(), nil, "in", "group", "", 0, func(context.Context, Message) error { return nil }, logger.Discard())
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Start(t.Context()); !errors.Is(err, ErrConsumerClosed) {
		t.Errorf("Start() after close error = %v", err)
	}
}
