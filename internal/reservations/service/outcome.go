package service

import (
	"time"

	reserrors "slotkeeper/internal/reservations/errors"
	"slotkeeper/pkg/model"

	"github.com/google/uuid"
)

const (
	OperationReserve = "reserve"
	OperationConfirm = "confirm"
	OperationExpire  = "expire"
)

// EventPublisher receives the outcome of every engine operation. Publish is
// called only after the operation has released all of its locks and must not
// block.
type EventPublisher interface {
	Publish(ev model.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(model.Event) {}

// NopPublisher discards every event.
func NopPublisher() EventPublisher {
	return nopPublisher{}
}

func newEvent(typ model.EventType, operation string, at time.Time, err error) model.Event {
	ev := model.Event{
		ID:         uuid.NewString(),
		Type:       typ,
		Operation:  operation,
		Outcome:    string(reserrors.Classify(err)),
		OccurredAt: at,
	}
	if err != nil {
		ev.Type = model.EventRequestDropped
		ev.Reason = err.Error()
	}
	return ev
}
