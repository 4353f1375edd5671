package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	reserrors "slotkeeper/internal/reservations/errors"
	"slotkeeper/pkg/model"
)

func TestHoldCreator_Reserve(t *testing.T) {
	c := newComponents(t)

	hold, err := c.creator.Reserve(t.Context(), &model.ReservationRequest{
		RequestID: "r-1",
		Requester: "  alice ",
		SlotIDs:   []int{5, 2},
	})
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	if hold.ID == "" {
		t.Fatal("expected hold id to be generated")
	}
	if hold.Requester != "alice" {
		t.Errorf("Requester = %q, want normalized %q", hold.Requester, "alice")
	}
	wantDeadline := c.clock.Now().Add(c.cfg.HoldDuration)
	if !hold.LeaseDeadline.Equal(wantDeadline) {
		t.Errorf("LeaseDeadline = %v, want %v", hold.LeaseDeadline, wantDeadline)
	}
	if len(hold.Slots) != 2 || hold.Slots[0] != 2 || hold.Slots[1] != 5 {
		t.Errorf("Slots = %v, want [2 5]", hold.Slots)
	}

	snap := c.snapshot(t)
	for _, idx := range []int{2, 5} {
		slot := snap.Slots[idx]
		if !slot.HeldBy(hold.ID) || slot.Holder != "alice" || !slot.LeaseDeadline.Equal(wantDeadline) {
			t.Errorf("slot %d = %+v, want HELD by alice under %s", idx, slot, hold.ID)
		}
	}
	if counts := snap.CountByState(); counts[model.SlotHeld] != 2 || counts[model.SlotFree] != 8 {
		t.Errorf("CountByState() = %v", counts)
	}
	checkConsistency(t, snap, c.liveHolds(t))

	ev := c.events.last()
	if ev.Type != model.EventHoldCreated || ev.HoldID != hold.ID || ev.RequestID != "r-1" || ev.Outcome != string(reserrors.OutcomeOK) {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestHoldCreator_RejectsWithoutStateChange(t *testing.T) {
	tests := []struct {
		name    string
		req     *model.ReservationRequest
		wantErr error
		outcome reserrors.Outcome
	}{
		{
			name:    "nil request",
			req:     nil,
			wantErr: reserrors.ErrInvalidRequest,
			outcome: reserrors.OutcomeValidation,
		},
		{
			name:    "index past end",
			req:     &model.ReservationRequest{Requester: "alice", SlotIDs: []int{3, 10}},
			wantErr: reserrors.ErrSlotOutOfRange,
			outcome: reserrors.OutcomeValidation,
		},
		{
			name:    "negative index",
			req:     &model.ReservationRequest{Requester: "alice", SlotIDs: []int{-1}},
			wantErr: reserrors.ErrSlotOutOfRange,
			outcome: reserrors.OutcomeValidation,
		},
		{
			name:    "empty slot set",
			req:     &model.ReservationRequest{Requester: "alice", SlotIDs: []int{}},
			wantErr: reserrors.ErrInvalidRequest,
			outcome: reserrors.OutcomeValidation,
		},
		{
			name:    "blank requester",
			req:     &model.ReservationRequest{Requester: "   ", SlotIDs: []int{1}},
			wantErr: reserrors.ErrInvalidRequest,
			outcome: reserrors.OutcomeValidation,
		},
		{
			name:    "duplicate slots",
			req:     &model.ReservationRequest{Requester: "alice", SlotIDs: []int{1, 1}},
			wantErr: reserrors.ErrInvalidRequest,
			outcome: reserrors.OutcomeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newComponents(t)

			hold, err := c.creator.Reserve(t.Context(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Reserve() error = %v, want %v", err, tt.wantErr)
			}
			if hold != nil {
				t.Errorf("Reserve() returned hold %+v on error", hold)
			}
			if got := reserrors.Classify(err); got != tt.outcome {
				t.Errorf("Classify() = %s, want %s", got, tt.outcome)
			}
			if counts := c.snapshot(t).CountByState(); counts[model.SlotFree] != c.cfg.SlotCount {
				t.Errorf("state changed on rejected request: %v", counts)
			}
			if len(c.liveHolds(t)) != 0 {
				t.Error("hold registry changed on rejected request")
			}
		})
	}
}

func TestHoldCreator_OverlapIsAllOrNothing(t *testing.T) {
	c := newComponents(t)

	first, err := c.creator.Reserve(t.Context(), &model.ReservationRequest{Requester: "alice", SlotIDs: []int{3}})
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	_, err = c.creator.Reserve(t.Context(), &model.ReservationRequest{Requester: "bob", SlotIDs: []int{2, 3}})
	if !errors.Is(err, reserrors.ErrSlotUnavailable) {
		t.Fatalf("Reserve() error = %v, want ErrSlotUnavailable", err)
	}

	snap := c.snapshot(t)
	if !snap.Slots[2].IsFree() {
		t.Errorf("slot 2 = %+v, want FREE (no partial hold)", snap.Slots[2])
	}
	if !snap.Slots[3].HeldBy(first.ID) {
		t.Errorf("slot 3 = %+v, want still held by first hold", snap.Slots[3])
	}
	if ev := c.events.last(); ev.Type != model.EventRequestDropped || ev.Outcome != string(reserrors.OutcomeConflict) {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestHoldCreator_LockTimeoutReleasesPartialLocks(t *testing.T) {
	c := newComponents(t)
	c.cfg.LockTimeout = 30 * time.Millisecond

	blocker, err := c.locks.Acquire(t.Context(), []int{4}, time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	_, err = c.creator.Reserve(t.Context(), &model.ReservationRequest{Requester: "alice", SlotIDs: []int{1, 4}})
	if !errors.Is(err, reserrors.ErrLockTimeout) {
		t.Fatalf("Reserve() error = %v, want ErrLockTimeout", err)
	}
	blocker.Release()

	check, err := c.locks.Acquire(t.Context(), []int{1, 4}, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("locks left held after timeout: %v", err)
	}
	check.Release()

	if counts := c.snapshot(t).CountByState(); counts[model.SlotFree] != c.cfg.SlotCount {
		t.Errorf("state changed on timed-out request: %v", counts)
	}
}

func TestHoldCreator_ConcurrentOverlappingRequests(t *testing.T) {
	for round := 0; round < 20; round++ {
		c := newComponents(t)

		sets := [][]int{{1, 2, 3}, {4, 3, 2}}
		errs := make([]error, len(sets))
		var wg sync.WaitGroup
		for i, slots := range sets {
			wg.Add(1)
			go func(i int, slots []int) {
				defer wg.Done()
				_, errs[i] = c.creator.Reserve(context.Background(), &model.ReservationRequest{
					Requester: "requester",
					SlotIDs:   slots,
				})
			}(i, slots)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, reserrors.ErrSlotUnavailable):
			default:
				t.Fatalf("round %d: unexpected error %v", round, err)
			}
		}
		if succeeded != 1 {
			t.Fatalf("round %d: %d requests succeeded, want exactly 1", round, succeeded)
		}
		checkConsistency(t, c.snapshot(t), c.liveHolds(t))
	}
}
