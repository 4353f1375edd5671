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

	"github.com/google/uuid"
)

// HoldCreator turns reservation requests into holds. A request either holds
// every slot it names or changes nothing.
type HoldCreator struct {
	locks     *lockset.Set
	repo      repository.StateRepository
	validator *validator.RequestValidator
	clock     Clock
	events    EventPublisher
	cfg       *config.Config
}

func NewHoldCreator(
	locks *lockset.Set,
	repo repository.StateRepository,
	validator *validator.RequestValidator,
	clock Clock,
	events EventPublisher,
	cfg *config.Config,
) *HoldCreator {
	return &HoldCreator{
		locks:     locks,
		repo:      repo,
		validator: validator,
		clock:     clock,
		events:    events,
		cfg:       cfg,
	}
}

// Reserve creates a hold over req.SlotIDs for req.Requester. Any error means
// the request was dropped with no state change.
func (c *HoldCreator) Reserve(ctx context.Context, req *model.ReservationRequest) (*model.Hold, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty reservation request", reserrors.ErrInvalidRequest)
	}
	normalized := *req
	normalized.Requester = sanitizer.NormalizeIdentity(req.Requester)

	hold, err := c.reserve(ctx, &normalized)
	c.observe(&normalized, hold, err)
	return hold, err
}

func (c *HoldCreator) reserve(ctx context.Context, req *model.ReservationRequest) (*model.Hold, error) {
	if err := c.validator.ValidateReservation(req); err != nil {
		return nil, err
	}

	held, err := c.locks.Acquire(ctx, req.SlotIDs, c.cfg.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer held.Release()

	txCtx, cancel := context.WithTimeout(ctx, c.cfg.LockTimeout)
	defer cancel()

	var hold *model.Hold
	err = c.repo.ExecuteTransaction(txCtx, func(tx repository.StateTx) error {
		for _, idx := range held.Slots() {
			if slot := tx.Slot(idx); !slot.IsFree() {
				return fmt.Errorf("%w: slot %d is %s", reserrors.ErrSlotUnavailable, idx, slot.State)
			}
		}

		now := c.clock.Now()
		hold = &model.Hold{
			ID:            uuid.NewString(),
			Requester:     req.Requester,
			Slots:         held.Slots(),
			LeaseDeadline: now.Add(c.cfg.HoldDuration),
			CreatedAt:     now,
		}
		tx.MarkHeld(hold)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hold, nil
}

func (c *HoldCreator) observe(req *model.ReservationRequest, hold *model.Hold, err error) {
	ev := newEvent(model.EventHoldCreated, OperationReserve, c.clock.Now(), err)
	ev.RequestID = req.RequestID
	ev.Requester = req.Requester
	ev.Slots = req.SlotIDs

	if err != nil {
		c.cfg.Log.Debug("Reservation dropped",
			"request_id", req.RequestID,
			"requester", req.Requester,
			"slots", req.SlotIDs,
			"outcome", ev.Outcome,
			"error", err,
		)
	} else {
		ev.HoldID = hold.ID
		ev.Slots = hold.Slots
		c.cfg.Log.Info("Hold created",
			"request_id", req.RequestID,
			"hold_id", hold.ID,
			"requester", hold.Requester,
			"slots", hold.Slots,
			"lease_deadline", hold.LeaseDeadline,
		)
	}
	c.events.Publish(ev)
}
