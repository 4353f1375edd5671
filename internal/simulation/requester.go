package simulation

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	reserrors "slotkeeper/internal/reservations/errors"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"

	"github.com/google/uuid"
)

// slotCountWeights picks one slot twice as often as two.
var slotCountWeights = []int{1, 1, 2}

type Pacing struct {
	ThinkMin, ThinkMax     time.Duration
	ConfirmMin, ConfirmMax time.Duration
}

var DefaultPacing = Pacing{
	ThinkMin:   100 * time.Millisecond,
	ThinkMax:   time.Second,
	ConfirmMin: 100 * time.Millisecond,
	ConfirmMax: 2 * time.Second,
}

// Requester repeatedly reserves random slots and, with probability
// confirmRatio, confirms the resulting hold after a short delay.
type Requester struct {
	Name         string
	target       Target
	slotCount    int
	confirmRatio float64
	pacing       Pacing
	rng          *rand.Rand
	log          *logger.Logger
}

func NewRequester(name string, target Target, slotCount int, confirmRatio float64, pacing Pacing, seed uint64, log *logger.Logger) *Requester {
	return &Requester{
		Name:         name,
		target:       target,
		slotCount:    slotCount,
		confirmRatio: confirmRatio,
		pacing:       pacing,
		rng:          rand.New(rand.NewPCG(seed, uint64(len(name)))),
		log:          &logger.Logger{Logger: log.Component("requester").With("requester", name)},
	}
}

// Run loops until ctx is cancelled.
func (r *Requester) Run(ctx context.Context) error {
	for {
		if err := r.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// Step performs one think-reserve-maybe-confirm cycle. Engine rejections are
// expected under contention and are not returned.
func (r *Requester) Step(ctx context.Context) error {
	if err := sleep(ctx, r.between(r.pacing.ThinkMin, r.pacing.ThinkMax)); err != nil {
		return err
	}

	slots := r.pickSlots()
	req := &model.ReservationRequest{
		RequestID: uuid.NewString(),
		Requester: r.Name,
		SlotIDs:   slots,
	}
	if _, err := r.target.SubmitReservation(ctx, req); err != nil {
		return r.tolerate("reservation", err)
	}
	r.log.Debug("Reservation submitted", "request_id", req.RequestID, "slots", slots)

	if r.rng.Float64() >= r.confirmRatio {
		return nil
	}
	if err := sleep(ctx, r.between(r.pacing.ConfirmMin, r.pacing.ConfirmMax)); err != nil {
		return err
	}

	hold, err := r.target.FindHold(ctx, r.Name, slots)
	if err != nil {
		return r.tolerate("lookup", err)
	}
	confirm := &model.ConfirmationRequest{
		RequestID: uuid.NewString(),
		Requester: r.Name,
		HoldID:    hold.ID,
	}
	if _, err := r.target.SubmitConfirmation(ctx, confirm); err != nil {
		return r.tolerate("confirmation", err)
	}
	r.log.Debug("Confirmation submitted", "request_id", confirm.RequestID, "hold_id", hold.ShortID())
	return nil
}

func (r *Requester) pickSlots() []int {
	k := min(slotCountWeights[r.rng.IntN(len(slotCountWeights))], r.slotCount)
	return r.rng.Perm(r.slotCount)[:k]
}

func (r *Requester) between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(r.rng.Int64N(int64(hi-lo)))
}

func (r *Requester) tolerate(stage string, err error) error {
	switch {
	case errors.Is(err, reserrors.ErrEngineStopped):
		return err
	case errors.Is(err, reserrors.ErrHoldNotFound), errors.Is(err, reserrors.ErrQueueFull):
		r.log.Debug("Skipped", "stage", stage, "reason", err)
		return nil
	default:
		r.log.Warn("Request failed", "stage", stage, "error", err)
		return nil
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
