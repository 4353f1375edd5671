package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	reserrors "slotkeeper/internal/reservations/errors"
	"slotkeeper/internal/reservations/lockset"
	"slotkeeper/internal/reservations/repository"
	"slotkeeper/internal/reservations/validator"
	"slotkeeper/pkg/config"
	"slotkeeper/pkg/model"
	"slotkeeper/pkg/sanitizer"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type ReservationService interface {
	SubmitReservation(req *model.ReservationRequest) (string, error)
	SubmitConfirmation(req *model.ConfirmationRequest) (string, error)
	Reserve(ctx context.Context, req *model.ReservationRequest) (*model.Hold, error)
	Confirm(ctx context.Context, req *model.ConfirmationRequest) ([]int, error)
	FindHold(ctx context.Context, requester string, slots []int) (*model.Hold, error)
	Snapshot(ctx context.Context) (model.Snapshot, error)
}

type engineState int

const (
	engineIdle engineState = iota
	engineRunning
	engineStopped
)

// Engine owns the two inbound queues and the workers that drain them. Queued
// requests carry no reply; their outcome is only logged and published.
type Engine struct {
	creator   *HoldCreator
	confirmer *HoldConfirmer
	expirator *Expirator
	repo      repository.StateRepository
	clock     Clock
	cfg       *config.Config

	mu            sync.RWMutex
	state         engineState
	reservations  chan *model.ReservationRequest
	confirmations chan *model.ConfirmationRequest
}

// NewEngine builds the slot table, lock array and workers for cfg.SlotCount
// slots.
func NewEngine(cfg *config.Config, clock Clock, events EventPublisher) *Engine {
	if clock == nil {
		clock = SystemClock()
	}
	if events == nil {
		events = NopPublisher()
	}

	locks := lockset.New(cfg.SlotCount)
	repo := repository.NewStateRepository(cfg.SlotCount)
	requests := validator.NewRequestValidator(cfg.SlotCount, cfg.Log)

	return &Engine{
		creator:       NewHoldCreator(locks, repo, requests, clock, events, cfg),
		confirmer:     NewHoldConfirmer(locks, repo, requests, clock, events, cfg),
		expirator:     NewExpirator(locks, repo, clock, events, cfg),
		repo:          repo,
		clock:         clock,
		cfg:           cfg,
		reservations:  make(chan *model.ReservationRequest, cfg.QueueSize),
		confirmations: make(chan *model.ConfirmationRequest, cfg.QueueSize),
	}
}

func (e *Engine) Expirator() *Expirator {
	return e.expirator
}

// SubmitReservation enqueues req without blocking and returns its request id.
func (e *Engine) SubmitReservation(req *model.ReservationRequest) (string, error) {
	if req == nil {
		return "", fmt.Errorf("%w: empty reservation request", reserrors.ErrInvalidRequest)
	}
	queued := *req
	queued.SlotIDs = slices.Clone(req.SlotIDs)
	if queued.RequestID == "" {
		queued.RequestID = uuid.NewString()
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state == engineStopped {
		return "", reserrors.ErrEngineStopped
	}
	select {
	case e.reservations <- &queued:
		return queued.RequestID, nil
	default:
		return "", reserrors.ErrQueueFull
	}
}

// SubmitConfirmation enqueues req without blocking and returns its request id.
func (e *Engine) SubmitConfirmation(req *model.ConfirmationRequest) (string, error) {
	if req == nil {
		return "", fmt.Errorf("%w: empty confirmation request", reserrors.ErrInvalidRequest)
	}
	queued := *req
	if queued.RequestID == "" {
		queued.RequestID = uuid.NewString()
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state == engineStopped {
		return "", reserrors.ErrEngineStopped
	}
	select {
	case e.confirmations <- &queued:
		return queued.RequestID, nil
	default:
		return "", reserrors.ErrQueueFull
	}
}

func (e *Engine) Reserve(ctx context.Context, req *model.ReservationRequest) (*model.Hold, error) {
	if err := e.accepting(); err != nil {
		return nil, err
	}
	if req != nil && req.RequestID == "" {
		withID := *req
		withID.RequestID = uuid.NewString()
		req = &withID
	}
	return e.creator.Reserve(ctx, req)
}

func (e *Engine) Confirm(ctx context.Context, req *model.ConfirmationRequest) ([]int, error) {
	if err := e.accepting(); err != nil {
		return nil, err
	}
	if req != nil && req.RequestID == "" {
		withID := *req
		withID.RequestID = uuid.NewString()
		req = &withID
	}
	return e.confirmer.Confirm(ctx, req)
}

// FindHold returns the oldest live hold of requester covering exactly slots.
// It is a read-only convenience; the hold may be resolved by the time the
// caller acts on it.
func (e *Engine) FindHold(ctx context.Context, requester string, slots []int) (*model.Hold, error) {
	requester = sanitizer.NormalizeIdentity(requester)
	if requester == "" || len(slots) == 0 {
		return nil, fmt.Errorf("%w: requester and slots are required", reserrors.ErrInvalidRequest)
	}

	txCtx, cancel := context.WithTimeout(ctx, e.cfg.LockTimeout)
	defer cancel()

	var hold *model.Hold
	err := e.repo.ExecuteTransaction(txCtx, func(tx repository.StateTx) error {
		h, ok := tx.FindHold(requester, slots)
		if !ok {
			return reserrors.ErrHoldNotFound
		}
		hold = h
		return nil
	})
	return hold, err
}

func (e *Engine) Snapshot(ctx context.Context) (model.Snapshot, error) {
	txCtx, cancel := context.WithTimeout(ctx, e.cfg.LockTimeout)
	defer cancel()
	return e.repo.Snapshot(txCtx, e.clock.Now())
}

// Run starts the validator and processor workers and the expirator. When ctx
// is cancelled the engine stops accepting requests, drains what is already
// queued and returns.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.state != engineIdle {
		e.mu.Unlock()
		return errors.New("reservation engine already started")
	}
	e.state = engineRunning
	e.mu.Unlock()

	e.cfg.Log.Info("Reservation engine started",
		"slot_count", e.cfg.SlotCount,
		"validator_workers", e.cfg.ValidatorWorkers,
		"processor_workers", e.cfg.ProcessorWorkers,
		"queue_size", e.cfg.QueueSize,
	)

	drainCtx := context.WithoutCancel(ctx)
	g := new(errgroup.Group)

	for i := 0; i < e.cfg.ValidatorWorkers; i++ {
		worker := i
		g.Go(func() error {
			e.reservationWorker(drainCtx, worker)
			return nil
		})
	}
	for i := 0; i < e.cfg.ProcessorWorkers; i++ {
		worker := i
		g.Go(func() error {
			e.confirmationWorker(drainCtx, worker)
			return nil
		})
	}
	g.Go(func() error {
		return e.expirator.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		e.stop()
		return nil
	})

	err := g.Wait()
	e.cfg.Log.Info("Reservation engine stopped")
	return err
}

func (e *Engine) stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == engineStopped {
		return
	}
	e.state = engineStopped
	close(e.reservations)
	close(e.confirmations)
}

func (e *Engine) accepting() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state == engineStopped {
		return reserrors.ErrEngineStopped
	}
	return nil
}

func (e *Engine) reservationWorker(ctx context.Context, worker int) {
	for req := range e.reservations {
		if _, err := e.creator.Reserve(ctx, req); err != nil && reserrors.Classify(err) == reserrors.OutcomeUnknown {
			e.cfg.Log.Error("Reservation failed unexpectedly",
				"worker", worker,
				"request_id", req.RequestID,
				"error", err,
			)
		}
	}
}

func (e *Engine) confirmationWorker(ctx context.Context, worker int) {
	for req := range e.confirmations {
		if _, err := e.confirmer.Confirm(ctx, req); err != nil && reserrors.Classify(err) == reserrors.OutcomeUnknown {
			e.cfg.Log.Error("Confirmation failed unexpectedly",
				"worker", worker,
				"request_id", req.RequestID,
				"error", err,
			)
		}
	}
}
