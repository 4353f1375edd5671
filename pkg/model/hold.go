package model

import (
	"slices"
	"time"
)

const ShortIDLength = 8

// Hold is a lease-bounded reservation of one or more slots for one requester.
// Slots and LeaseDeadline are fixed at creation and never extended.
type Hold struct {
	ID            string    `json:"id" bson:"_id"`
	Requester     string    `json:"requester" bson:"requester"`
	Slots         []int     `json:"slots" bson:"slots"`
	LeaseDeadline time.Time `json:"lease_deadline" bson:"lease_deadline"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// Expired reports whether the lease has passed as of now.
func (h *Hold) Expired(now time.Time) bool {
	return h.LeaseDeadline.Before(now)
}

func (h *Hold) ShortID() string {
	return ShortID(h.ID)
}

func (h *Hold) Clone() *Hold {
	if h == nil {
		return nil
	}
	c := *h
	c.Slots = slices.Clone(h.Slots)
	return &c
}

// Covers reports whether the hold's slot set equals slots, ignoring order.
func (h *Hold) Covers(slots []int) bool {
	a := slices.Clone(h.Slots)
	b := slices.Clone(slots)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(slices.Compact(a), slices.Compact(b))
}

func (h *Hold) Summary() HoldSummary {
	return HoldSummary{
		ShortID:       h.ShortID(),
		Requester:     h.Requester,
		Slots:         slices.Clone(h.Slots),
		LeaseDeadline: h.LeaseDeadline,
	}
}

func ShortID(id string) string {
	if len(id) <= ShortIDLength {
		return id
	}
	return id[:ShortIDLength]
}
