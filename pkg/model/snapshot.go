package model

import "time"

// Snapshot is a consistent read of the slot table and hold registry.
type Snapshot struct {
	TakenAt time.Time     `json:"taken_at"`
	Slots   []Slot        `json:"slots"`
	Holds   []HoldSummary `json:"holds"`
}

type HoldSummary struct {
	ShortID       string    `json:"id"`
	Requester     string    `json:"requester"`
	Slots         []int     `json:"slots"`
	LeaseDeadline time.Time `json:"lease_deadline"`
}

func (s Snapshot) CountByState() map[SlotState]int {
	counts := map[SlotState]int{SlotFree: 0, SlotHeld: 0, SlotBooked: 0}
	for _, slot := range s.Slots {
		counts[slot.State]++
	}
	return counts
}
