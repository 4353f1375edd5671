package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil", nil, OutcomeOK},
		{"out of range", fmt.Errorf("%w: slot 12", ErrSlotOutOfRange), OutcomeValidation},
		{"invalid", ErrInvalidRequest, OutcomeValidation},
		{"lock timeout", fmt.Errorf("%w: slot 3", ErrLockTimeout), OutcomeLockTimeout},
		{"unavailable", ErrSlotUnavailable, OutcomeConflict},
		{"not found", ErrHoldNotFound, OutcomeConflict},
		{"not owner", ErrNotHoldOwner, OutcomeConflict},
		{"expired", ErrHoldExpired, OutcomeConflict},
		{"stale", ErrHoldStale, OutcomeDrift},
		{"queue full", ErrQueueFull, OutcomeRejected},
		{"stopped", ErrEngineStopped, OutcomeRejected},
		{"other", errors.New("boom"), OutcomeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(fmt.Errorf("wrapped: %w", ErrLockTimeout)) {
		t.Error("lock timeout should be retryable")
	}
	if Retryable(ErrSlotUnavailable) {
		t.Error("conflict should not be retryable")
	}
}
