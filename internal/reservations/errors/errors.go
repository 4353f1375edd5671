package errors

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid request")

	ErrSlotOutOfRange = errors.New("slot index out of range")

	ErrLockTimeout = errors.New("lock acquisition timed out")

	ErrSlotUnavailable = errors.New("slot is not free")

	ErrHoldNotFound = errors.New("hold not found")

	ErrNotHoldOwner = errors.New("requester does not own hold")

	ErrHoldExpired = errors.New("hold lease expired")

	ErrHoldStale = errors.New("hold no longer matches slot state")

	ErrQueueFull = errors.New("request queue is full")

	ErrEngineStopped = errors.New("reservation engine is stopped")
)

// Outcome is the failure class of an engine operation. Every class other than
// OutcomeOK means the request was discarded with no state change.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeValidation  Outcome = "validation"
	OutcomeLockTimeout Outcome = "lock_timeout"
	OutcomeConflict    Outcome = "conflict"
	OutcomeDrift       Outcome = "drift"
	OutcomeRejected    Outcome = "rejected"
	OutcomeUnknown     Outcome = "unknown"
)

func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrSlotOutOfRange):
		return OutcomeValidation
	case errors.Is(err, ErrLockTimeout):
		return OutcomeLockTimeout
	case errors.Is(err, ErrHoldStale):
		return OutcomeDrift
	case errors.Is(err, ErrSlotUnavailable),
		errors.Is(err, ErrHoldNotFound),
		errors.Is(err, ErrNotHoldOwner),
		errors.Is(err, ErrHoldExpired):
		return OutcomeConflict
	case errors.Is(err, ErrQueueFull), errors.Is(err, ErrEngineStopped):
		return OutcomeRejected
	default:
		return OutcomeUnknown
	}
}

// Retryable reports whether resubmitting the same request may succeed.
func Retryable(err error) bool {
	return errors.Is(err, ErrLockTimeout) || errors.Is(err, ErrQueueFull)
}
