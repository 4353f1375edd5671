package simulation

import (
	"context"
	"fmt"
	"io"
	"strings"

	"slotkeeper/pkg/model"
)

// FormatSnapshot renders the slot line and the active holds, e.g.
//
//	SLOTS: 0:F(-,-) | 1:H(user1,3f2a9c1e) | 2:B(user0,77aa01bc)
//	Active holds: {3f2a9c1e: user1 [1]}
func FormatSnapshot(snap model.Snapshot) string {
	var b strings.Builder

	cells := make([]string, len(snap.Slots))
	for i, slot := range snap.Slots {
		owner, hold := "-", "-"
		if slot.Holder != "" {
			owner = slot.Holder
		}
		if slot.HoldID != "" {
			hold = model.ShortID(slot.HoldID)
		}
		cells[i] = fmt.Sprintf("%d:%s(%s,%s)", slot.Index, string(slot.State)[:1], owner, hold)
	}
	b.WriteString("SLOTS: ")
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString("\n")

	holds := make([]string, len(snap.Holds))
	for i, h := range snap.Holds {
		holds[i] = fmt.Sprintf("%s: %s %v", h.ShortID, h.Requester, h.Slots)
	}
	fmt.Fprintf(&b, "Active holds: {%s}\n", strings.Join(holds, ", "))

	return b.String()
}

type Reporter struct {
	target Target
	out    io.Writer
}

func NewReporter(target Target, out io.Writer) *Reporter {
	return &Reporter{target: target, out: out}
}

// Report writes one snapshot.
func (r *Reporter) Report(ctx context.Context) error {
	snap, err := r.target.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to take snapshot: %w", err)
	}
	_, err = io.WriteString(r.out, FormatSnapshot(snap))
	return err
}
