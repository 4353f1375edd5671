package model

import "time"

// BookingRecord is the journal entry written when a hold is confirmed.
// The hold id is the document id, so replays of the same confirmation collapse.
type BookingRecord struct {
	HoldID      string    `json:"hold_id" bson:"_id"`
	Requester   string    `json:"requester" bson:"requester"`
	Slots       []int     `json:"slots" bson:"slots"`
	ConfirmedAt time.Time `json:"confirmed_at" bson:"confirmed_at"`
	RecordedAt  time.Time `json:"recorded_at" bson:"recorded_at"`
}
