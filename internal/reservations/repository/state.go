package repository

import (
	"context"
	"fmt"
	"slices"
	"time"

	reserrors "slotkeeper/internal/reservations/errors"
	"slotkeeper/pkg/model"

	"golang.org/x/sync/semaphore"
)

// TransactionFunc runs with the global serialization lock held. It must decide
// its whole outcome before calling any StateTx mutator.
type TransactionFunc func(tx StateTx) error

// StateTx is the view of the slot table and hold registry available inside
// ExecuteTransaction. It is invalid once the transaction function returns.
type StateTx interface {
	SlotCount() int
	Slot(index int) model.Slot
	Hold(id string) (*model.Hold, bool)
	Holds() []*model.Hold
	ExpiredHolds(now time.Time) []*model.Hold
	OrphanedSlots(now time.Time) []model.Slot
	FindHold(requester string, slots []int) (*model.Hold, bool)

	MarkHeld(hold *model.Hold)
	MarkBooked(holdID string, requester string)
	FreeSlot(index int)
	DeleteHold(id string)
}

// StateRepository owns the slot table and the hold registry. Lock nesting is
// always per-slot locks first, then ExecuteTransaction.
type StateRepository interface {
	SlotCount() int
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
	Snapshot(ctx context.Context, now time.Time) (model.Snapshot, error)
}

type memoryStateRepository struct {
	serial *semaphore.Weighted
	slots  []model.Slot
	holds  map[string]*model.Hold
}

func NewStateRepository(slotCount int) StateRepository {
	slots := make([]model.Slot, slotCount)
	for i := range slots {
		slots[i] = model.NewFreeSlot(i)
	}
	return &memoryStateRepository{
		serial: semaphore.NewWeighted(1),
		slots:  slots,
		holds:  make(map[string]*model.Hold),
	}
}

func (r *memoryStateRepository) SlotCount() int {
	return len(r.slots)
}

// ExecuteTransaction waits for the global lock until ctx is done; a context
// without a deadline waits indefinitely, so callers pass a bounded one.
func (r *memoryStateRepository) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	if err := r.serial.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: global state lock: %w", reserrors.ErrLockTimeout, err)
	}
	defer r.serial.Release(1)

	return fn(&memoryTx{repo: r})
}

func (r *memoryStateRepository) Snapshot(ctx context.Context, now time.Time) (model.Snapshot, error) {
	snap := model.Snapshot{TakenAt: now}
	err := r.ExecuteTransaction(ctx, func(tx StateTx) error {
		snap.Slots = make([]model.Slot, 0, tx.SlotCount())
		for i := 0; i < tx.SlotCount(); i++ {
			snap.Slots = append(snap.Slots, tx.Slot(i))
		}
		holds := tx.Holds()
		snap.Holds = make([]model.HoldSummary, 0, len(holds))
		for _, h := range holds {
			snap.Holds = append(snap.Holds, h.Summary())
		}
		return nil
	})
	return snap, err
}

type memoryTx struct {
	repo *memoryStateRepository
}

func (tx *memoryTx) SlotCount() int {
	return len(tx.repo.slots)
}

func (tx *memoryTx) Slot(index int) model.Slot {
	return tx.repo.slots[index]
}

func (tx *memoryTx) Hold(id string) (*model.Hold, bool) {
	h, ok := tx.repo.holds[id]
	if !ok {
		return nil, false
	}
	return h.Clone(), true
}

// Holds returns every live hold ordered by creation time, then id.
func (tx *memoryTx) Holds() []*model.Hold {
	holds := make([]*model.Hold, 0, len(tx.repo.holds))
	for _, h := range tx.repo.holds {
		holds = append(holds, h.Clone())
	}
	sortHolds(holds)
	return holds
}

func (tx *memoryTx) ExpiredHolds(now time.Time) []*model.Hold {
	var expired []*model.Hold
	for _, h := range tx.repo.holds {
		if h.Expired(now) {
			expired = append(expired, h.Clone())
		}
	}
	sortHolds(expired)
	return expired
}

// OrphanedSlots returns HELD slots past their own deadline whose hold record
// no longer exists.
func (tx *memoryTx) OrphanedSlots(now time.Time) []model.Slot {
	var orphans []model.Slot
	for _, s := range tx.repo.slots {
		if !s.LeaseExpired(now) {
			continue
		}
		if _, live := tx.repo.holds[s.HoldID]; !live {
			orphans = append(orphans, s)
		}
	}
	return orphans
}

func (tx *memoryTx) FindHold(requester string, slots []int) (*model.Hold, bool) {
	for _, h := range tx.Holds() {
		if h.Requester == requester && h.Covers(slots) {
			return h, true
		}
	}
	return nil, false
}

func (tx *memoryTx) MarkHeld(hold *model.Hold) {
	for _, idx := range hold.Slots {
		tx.repo.slots[idx] = model.Slot{
			Index:         idx,
			State:         model.SlotHeld,
			Holder:        hold.Requester,
			HoldID:        hold.ID,
			LeaseDeadline: hold.LeaseDeadline,
		}
	}
	tx.repo.holds[hold.ID] = hold.Clone()
}

// MarkBooked books every slot of the hold to requester and retires the hold.
func (tx *memoryTx) MarkBooked(holdID string, requester string) {
	hold, ok := tx.repo.holds[holdID]
	if !ok {
		return
	}
	for _, idx := range hold.Slots {
		tx.repo.slots[idx] = model.Slot{
			Index:  idx,
			State:  model.SlotBooked,
			Holder: requester,
			HoldID: holdID,
		}
	}
	delete(tx.repo.holds, holdID)
}

func (tx *memoryTx) FreeSlot(index int) {
	tx.repo.slots[index] = model.NewFreeSlot(index)
}

func (tx *memoryTx) DeleteHold(id string) {
	delete(tx.repo.holds, id)
}

func sortHolds(holds []*model.Hold) {
	slices.SortFunc(holds, func(a, b *model.Hold) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
}
