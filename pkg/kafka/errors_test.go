package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"explicit transient", NewTransientError("queue full", errors.New("busy")), ErrorTypeTransient},
		{"wrapped transient", fmt.Errorf("handler: %w", NewTransientError("queue full", nil)), ErrorTypeTransient},
		{"explicit permanent", NewPermanentError("bad payload", nil), ErrorTypePermanent},
		{"network message", errors.New("dial tcp: Connection Refused"), ErrorTypeTransient},
		{"deadline", context.DeadlineExceeded, ErrorTypeTransient},
		{"unrecognized", errors.New("unknown topic or partition"), ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	transient := NewTransientError("busy", nil)

	if !ShouldRetry(transient, 0, 3) {
		t.Error("expected transient error under the limit to be retried")
	}
	if ShouldRetry(transient, 3, 3) {
		t.Error("expected retries to stop at the limit")
	}
	if ShouldRetry(NewPermanentError("bad", nil), 0, 3) {
		t.Error("permanent errors must not be retried")
	}
	if ShouldRetry(nil, 0, 3) {
		t.Error("nil error must not be retried")
	}
}
