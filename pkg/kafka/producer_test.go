package kafka

import (
	"context"
	"errors"
	"testing"

	"slotkeeper/pkg/logger"
)

func TestProducer_Publish(t *testing.T) {
	writer := &fakeWriter{}
	p := NewProducerWithWriters(writer, nil, "slot-events", "", logger.Discard())

	var seen []string
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		seen = append(seen, msg.Topic)
		return next(ctx, msg)
	})

	msg, err := NewMessage().WithKey("hold-1").WithValue("payload").Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := p.Publish(t.Context(), msg); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	written := writer.messages()
	if len(written) != 1 || string(written[0].Key) != "hold-1" {
		t.Fatalf("written = %+v", written)
	}
	if len(seen) != 1 || seen[0] != "slot-events" {
		t.Errorf("middleware saw topics %v", seen)
	}
}

func TestProducer_RejectsInvalidMessages(t *testing.T) {
	p := NewProducerWithWriters(&fakeWriter{}, nil, "t", "", logger.Discard())

	if err := p.Publish(t.Context(), Message{Value: []byte("x")}); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("Publish() without key error = %v", err)
	}
	if err := p.Publish(t.Context(), Message{Key: "k"}); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("Publish() without value error = %v", err)
	}
}

func TestProducer_FailedWriteGoesToDLQ(t *testing.T) {
	writeErr := errors.New("connection refused")
	dlq := &fakeWriter{}
	p := NewProducerWithWriters(&fakeWriter{err: writeErr}, dlq, "slot-events", "slot-events-dlq", logger.Discard())

	msg := Message{Key: "k", Value: []byte("v")}
	if err := p.Publish(t.Context(), msg); !errors.Is(err, writeErr) {
		t.Fatalf("Publish() error = %v, want original error", err)
	}

	dead := dlq.messages()
	if len(dead) != 1 {
		t.Fatalf("DLQ received %d messages, want 1", len(dead))
	}
	if got := header(dead[0], HeaderOriginalTopic); got != "slot-events" {
		t.Errorf("original topic header = %q", got)
	}
	if got := header(dead[0], HeaderDLQError); got != writeErr.Error() {
		t.Errorf("dlq error header = %q", got)
	}
}

func TestProducer_Close(t *testing.T) {
	writer, dlq := &fakeWriter{}, &fakeWriter{}
	p := NewProducerWithWriters(writer, dlq, "t", "d", logger.Discard())

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if !writer.closed || !dlq.closed {
		t.Error("expected both writers to be closed")
	}
	if err := p.Publish(t.Context(), Message{Key: "k", Value: []byte("v")}); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("Publish() after close error = %v", err)
	}
}
