// Package simulation drives a reservation engine with synthetic requesters and
// prints its state periodically.
package simulation

import (
	"context"

	"slotkeeper/pkg/model"
)

// Target is the surface requesters and the reporter drive.
// client.ReservationClient satisfies it directly; use EngineTarget for an
// in-process engine.
type Target interface {
	SubmitReservation(ctx context.Context, req *model.ReservationRequest) (string, error)
	SubmitConfirmation(ctx context.Context, req *model.ConfirmationRequest) (string, error)
	FindHold(ctx context.Context, requester string, slots []int) (*model.Hold, error)
	Snapshot(ctx context.Context) (model.Snapshot, error)
}

// Engine is the in-process reservation service as seen by the simulation.
type Engine interface {
	SubmitReservation(req *model.ReservationRequest) (string, error)
	SubmitConfirmation(req *model.ConfirmationRequest) (string, error)
	FindHold(ctx context.Context, requester string, slots []int) (*model.Hold, error)
	Snapshot(ctx context.Context) (model.Snapshot, error)
}

type engineTarget struct {
	engine Engine
}

func EngineTarget(engine Engine) Target {
	return &engineTarget{engine: engine}
}

func (t *engineTarget) SubmitReservation(_ context.Context, req *model.ReservationRequest) (string, error) {
	return t.engine.SubmitReservation(req)
}

func (t *engineTarget) SubmitConfirmation(_ context.Context, req *model.ConfirmationRequest) (string, error) {
	return t.engine.SubmitConfirmation(req)
}

func (t *engineTarget) FindHold(ctx context.Context, requester string, slots []int) (*model.Hold, error) {
	return t.engine.FindHold(ctx, requester, slots)
}

func (t *engineTarget) Snapshot(ctx context.Context) (model.Snapshot, error) {
	return t.engine.Snapshot(ctx)
}
