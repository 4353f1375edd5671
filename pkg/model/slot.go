package model

import "time"

type SlotState string

const (
	SlotFree   SlotState = "FREE"
	SlotHeld   SlotState = "HELD"
	SlotBooked SlotState = "BOOKED"
)

// Slot is the authoritative record of one reservable resource.
// Holder and HoldID are empty while the slot is FREE. LeaseDeadline is set
// only while the slot is HELD; a BOOKED slot keeps HoldID as provenance.
type Slot struct {
	Index         int       `json:"index" bson:"index"`
	State         SlotState `json:"state" bson:"state"`
	Holder        string    `json:"holder,omitempty" bson:"holder,omitempty"`
	HoldID        string    `json:"hold_id,omitempty" bson:"hold_id,omitempty"`
	LeaseDeadline time.Time `json:"lease_deadline,omitzero" bson:"lease_deadline,omitempty"`
}

func NewFreeSlot(index int) Slot {
	return Slot{Index: index, State: SlotFree}
}

func (s Slot) IsFree() bool {
	return s.State == SlotFree
}

// HeldBy reports whether the slot is currently HELD under holdID.
func (s Slot) HeldBy(holdID string) bool {
	return s.State == SlotHeld && s.HoldID == holdID
}

// LeaseExpired reports whether a HELD slot is past its own lease deadline.
func (s Slot) LeaseExpired(now time.Time) bool {
	return s.State == SlotHeld && !s.LeaseDeadline.IsZero() && s.LeaseDeadline.Before(now)
}
