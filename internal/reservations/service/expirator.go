package service

import (
	"context"
	"errors"
	"time"

	"slotkeeper/internal/reservations/lockset"
	"slotkeeper/internal/reservations/repository"
	"slotkeeper/pkg/config"
	"slotkeeper/pkg/model"
)

// SweepResult counts what one expiry cycle did.
type SweepResult struct {
	ExpiredHolds  int
	FreedSlots    int
	SkippedSlots  int
	OrphanedSlots int
}

// Expirator returns the slots of lapsed holds to FREE. Expired hold records
// are retired during the scan; each slot is then cleaned under its own short
// lock, and a slot it cannot lock in time is left for a later cycle.
type Expirator struct {
	locks  *lockset.Set
	repo   repository.StateRepository
	clock  Clock
	events EventPublisher
	cfg    *config.Config
}

func NewExpirator(
	locks *lockset.Set,
	repo repository.StateRepository,
	clock Clock,
	events EventPublisher,
	cfg *config.Config,
) *Expirator {
	return &Expirator{
		locks:  locks,
		repo:   repo,
		clock:  clock,
		events: events,
		cfg:    cfg,
	}
}

// Run sweeps every SweepPeriod until ctx is cancelled.
func (e *Expirator) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.SweepPeriod)
	defer ticker.Stop()

	e.cfg.Log.Info("Expirator started", "sweep_period", e.cfg.SweepPeriod)
	for {
		select {
		case <-ctx.Done():
			e.cfg.Log.Info("Expirator stopped")
			return nil
		case <-ticker.C:
			e.Sweep(ctx)
		}
	}
}

// Sweep runs a single expiry cycle.
func (e *Expirator) Sweep(ctx context.Context) SweepResult {
	var result SweepResult

	expired, orphans, err := e.scan(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			e.cfg.Log.Warn("Expiry scan skipped", "error", err)
		}
		return result
	}

	for _, hold := range expired {
		freed, skipped := e.expireHold(ctx, hold)
		result.ExpiredHolds++
		result.FreedSlots += freed
		result.SkippedSlots += skipped
	}

	for _, slot := range orphans {
		if e.reclaimOrphan(ctx, slot) {
			result.OrphanedSlots++
			result.FreedSlots++
		} else {
			result.SkippedSlots++
		}
	}

	if result.ExpiredHolds > 0 || result.OrphanedSlots > 0 || result.SkippedSlots > 0 {
		e.cfg.Log.Debug("Expiry sweep finished",
			"expired_holds", result.ExpiredHolds,
			"freed_slots", result.FreedSlots,
			"skipped_slots", result.SkippedSlots,
			"orphaned_slots", result.OrphanedSlots,
		)
	}
	return result
}

func (e *Expirator) scan(ctx context.Context) ([]*model.Hold, []model.Slot, error) {
	txCtx, cancel := context.WithTimeout(ctx, e.cfg.SweepLockTimeout)
	defer cancel()

	var expired []*model.Hold
	var orphans []model.Slot
	err := e.repo.ExecuteTransaction(txCtx, func(tx repository.StateTx) error {
		now := e.clock.Now()
		expired = tx.ExpiredHolds(now)
		orphans = tx.OrphanedSlots(now)
		for _, hold := range expired {
			tx.DeleteHold(hold.ID)
		}
		return nil
	})
	return expired, orphans, err
}

// expireHold frees each slot still held under hold. The record is already
// gone, so a freed slot can be taken by a new hold at once.
func (e *Expirator) expireHold(ctx context.Context, hold *model.Hold) (freed, skipped int) {
	var cleaned []int
	for _, idx := range hold.Slots {
		ok, err := e.freeSlot(ctx, idx, func(slot model.Slot, _ repository.StateTx) bool {
			return slot.HeldBy(hold.ID)
		})
		if err != nil {
			skipped++
			e.cfg.Log.Debug("Expired slot skipped this cycle",
				"hold_id", hold.ID,
				"slot", idx,
				"error", err,
			)
			continue
		}
		if ok {
			freed++
			cleaned = append(cleaned, idx)
		}
	}

	e.cfg.Log.Info("Hold expired",
		"hold_id", hold.ID,
		"requester", hold.Requester,
		"slots", hold.Slots,
		"freed", cleaned,
	)

	ev := newEvent(model.EventHoldExpired, OperationExpire, e.clock.Now(), nil)
	ev.HoldID = hold.ID
	ev.Requester = hold.Requester
	ev.Slots = cleaned
	e.events.Publish(ev)
	return freed, skipped
}

// reclaimOrphan frees a slot left HELD past its deadline by a hold that no
// longer exists.
func (e *Expirator) reclaimOrphan(ctx context.Context, orphan model.Slot) bool {
	ok, err := e.freeSlot(ctx, orphan.Index, func(slot model.Slot, tx repository.StateTx) bool {
		if !slot.HeldBy(orphan.HoldID) || !slot.LeaseExpired(e.clock.Now()) {
			return false
		}
		_, live := tx.Hold(slot.HoldID)
		return !live
	})
	if err != nil {
		e.cfg.Log.Debug("Orphaned slot skipped this cycle", "slot", orphan.Index, "error", err)
		return false
	}
	if ok {
		e.cfg.Log.Info("Orphaned slot reclaimed", "slot", orphan.Index, "hold_id", orphan.HoldID)
	}
	return ok
}

// freeSlot locks idx with the sweep bound and resets it to FREE when stale
// reports true for its current state.
func (e *Expirator) freeSlot(ctx context.Context, idx int, stale func(model.Slot, repository.StateTx) bool) (bool, error) {
	held, err := e.locks.Acquire(ctx, []int{idx}, e.cfg.SweepLockTimeout)
	if err != nil {
		return false, err
	}
	defer held.Release()

	txCtx, cancel := context.WithTimeout(ctx, e.cfg.SweepLockTimeout)
	defer cancel()

	var freed bool
	err = e.repo.ExecuteTransaction(txCtx, func(tx repository.StateTx) error {
		if stale(tx.Slot(idx), tx) {
			tx.FreeSlot(idx)
			freed = true
		}
		return nil
	})
	return freed, err
}
