package model

import "time"

type EventType string

const (
	EventHoldCreated    EventType = "hold.created"
	EventHoldConfirmed  EventType = "hold.confirmed"
	EventHoldExpired    EventType = "hold.expired"
	EventRequestDropped EventType = "request.dropped"
)

// Event describes the outcome of one engine operation. Events are emitted
// after every lock taken by the operation has been released.
type Event struct {
	ID         string    `json:"id" bson:"_id"`
	Type       EventType `json:"type" bson:"type"`
	Operation  string    `json:"operation" bson:"operation"`
	RequestID  string    `json:"request_id,omitempty" bson:"request_id,omitempty"`
	Requester  string    `json:"requester,omitempty" bson:"requester,omitempty"`
	HoldID     string    `json:"hold_id,omitempty" bson:"hold_id,omitempty"`
	Slots      []int     `json:"slots,omitempty" bson:"slots,omitempty"`
	Outcome    string    `json:"outcome" bson:"outcome"`
	Reason     string    `json:"reason,omitempty" bson:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at" bson:"occurred_at"`
}

// Key is the partition key used when the event leaves the process.
func (e Event) Key() string {
	if e.HoldID != "" {
		return e.HoldID
	}
	if e.Requester != "" {
		return e.Requester
	}
	return e.ID
}
