package service

import (
	"context"
	"fmt"

	reserrors "slotkeeper/internal/reservations/errors"
	"slotkeeper/internal/reservations/lockset"
	"slotkeeper/internal/reservations/repository"
	"slotkeeper/internal/reservations/validator"
	"slotkeeper/pkg/config"
	"slotkeeper/pkg/model"
	"slotkeeper/pkg/sanitizer"
)

// HoldConfirmer books the slots of a live hold for its owner.
type HoldConfirmer struct {
	locks     *lockset.Set
	repo      repository.StateRepository
	validator *validator.RequestValidator
	clock     Clock
	events    EventPublisher
	cfg       *config.Config
}

func NewHoldConfirmer(
	locks *lockset.Set,
	repo repository.StateRepository,
	validator *validator.RequestValidator,
	clock Clock,
	events EventPublisher,
	cfg *config.Config,
) *HoldConfirmer {
	return &HoldConfirmer{
		locks:     locks,
		repo:      repo,
		validator: validator,
		clock:     clock,
		events:    events,
		cfg:       cfg,
	}
}

// Confirm books every slot of req.HoldID and returns them. Any error means
// the request was dropped with no state change.
func (c *HoldConfirmer) Confirm(ctx context.Context, req *model.ConfirmationRequest) ([]int, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty confirmation request", reserrors.ErrInvalidRequest)
	}
	normalized := *req
	normalized.Requester = sanitizer.NormalizeIdentity(req.Requester)

	slots, err := c.confirm(ctx, &normalized)
	c.observe(&normalized, slots, err)
	return slots, err
}

func (c *HoldConfirmer) confirm(ctx context.Context, req *model.ConfirmationRequest) ([]int, error) {
	if err := c.validator.ValidateConfirmation(req); err != nil {
		return nil, err
	}

	hold, err := c.lookup(ctx, req)
	if err != nil {
		return nil, err
	}

	held, err := c.locks.Acquire(ctx, hold.Slots, c.cfg.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer held.Release()

	txCtx, cancel := context.WithTimeout(ctx, c.cfg.LockTimeout)
	defer cancel()

	err = c.repo.ExecuteTransaction(txCtx, func(tx repository.StateTx) error {
		if hold.Expired(c.clock.Now()) {
			return fmt.Errorf("%w: hold %s", reserrors.ErrHoldExpired, hold.ShortID())
		}
		if _, live := tx.Hold(hold.ID); !live {
			return fmt.Errorf("%w: hold %s was resolved concurrently", reserrors.ErrHoldStale, hold.ShortID())
		}
		for _, idx := range hold.Slots {
			if slot := tx.Slot(idx); !slot.HeldBy(hold.ID) {
				return fmt.Errorf("%w: slot %d is %s under %q", reserrors.ErrHoldStale, idx, slot.State, model.ShortID(slot.HoldID))
			}
		}
		tx.MarkBooked(hold.ID, req.Requester)
		return nil
	})
	if err != nil {
		if reserrors.Classify(err) == reserrors.OutcomeDrift {
			c.cfg.Log.Warn("Hold no longer matches slot table",
				"hold_id", hold.ID,
				"slots", hold.Slots,
				"error", err,
			)
		}
		return nil, err
	}
	return hold.Slots, nil
}

// lookup finds the hold and checks ownership and lease before any slot lock
// is taken. The checks that matter are repeated under the locks.
func (c *HoldConfirmer) lookup(ctx context.Context, req *model.ConfirmationRequest) (*model.Hold, error) {
	txCtx, cancel := context.WithTimeout(ctx, c.cfg.LockTimeout)
	defer cancel()

	var hold *model.Hold
	err := c.repo.ExecuteTransaction(txCtx, func(tx repository.StateTx) error {
		h, ok := tx.Hold(req.HoldID)
		if !ok {
			return fmt.Errorf("%w: %s", reserrors.ErrHoldNotFound, model.ShortID(req.HoldID))
		}
		if h.Requester != req.Requester {
			return fmt.Errorf("%w: hold %s", reserrors.ErrNotHoldOwner, h.ShortID())
		}
		if h.Expired(c.clock.Now()) {
			return fmt.Errorf("%w: hold %s", reserrors.ErrHoldExpired, h.ShortID())
		}
		hold = h
		return nil
	})
	return hold, err
}

func (c *HoldConfirmer) observe(req *model.ConfirmationRequest, slots []int, err error) {
	ev := newEvent(model.EventHoldConfirmed, OperationConfirm, c.clock.Now(), err)
	ev.RequestID = req.RequestID
	ev.Requester = req.Requester
	ev.HoldID = req.HoldID
	ev.Slots = slots

	if err != nil {
		c.cfg.Log.Debug("Confirmation dropped",
			"request_id", req.RequestID,
			"requester", req.Requester,
			"hold_id", req.HoldID,
			"outcome", ev.Outcome,
			"error", err,
		)
	} else {
		c.cfg.Log.Info("Hold confirmed",
			"request_id", req.RequestID,
			"hold_id", req.HoldID,
			"requester", req.Requester,
			"slots", slots,
		)
	}
	c.events.Publish(ev)
}
