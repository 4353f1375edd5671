// Package ingest feeds reservation and confirmation requests read from Kafka
// into the engine queues.
package ingest

import (
	"context"
	"errors"

	reserrors "slotkeeper/internal/reservations/errors"
	"slotkeeper/pkg/kafka"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"

	"golang.org/x/sync/errgroup"
)

// Submitter is the enqueue side of the reservation engine.
type Submitter interface {
	SubmitReservation(req *model.ReservationRequest) (string, error)
	SubmitConfirmation(req *model.ConfirmationRequest) (string, error)
}

// ReservationHandler decodes a ReservationRequest and enqueues it. Only a
// full queue or a stopped engine is worth retrying; the message is otherwise
// handed off or dead-lettered.
func ReservationHandler(svc Submitter, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var req model.ReservationRequest
		if err := msg.DecodeValue(&req); err != nil {
			return err
		}
		if req.RequestID == "" {
			req.RequestID = requestID(msg)
		}

		id, err := svc.SubmitReservation(&req)
		if err != nil {
			return classify("reservation not enqueued", err)
		}
		log.Debug("Reservation enqueued from Kafka", "request_id", id, "requester", req.Requester, "offset", msg.Offset)
		return nil
	}
}

// ConfirmationHandler decodes a ConfirmationRequest and enqueues it.
func ConfirmationHandler(svc Submitter, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var req model.ConfirmationRequest
		if err := msg.DecodeValue(&req); err != nil {
			return err
		}
		if req.RequestID == "" {
			req.RequestID = requestID(msg)
		}

		id, err := svc.SubmitConfirmation(&req)
		if err != nil {
			return classify("confirmation not enqueued", err)
		}
		log.Debug("Confirmation enqueued from Kafka", "request_id", id, "hold_id", req.HoldID, "offset", msg.Offset)
		return nil
	}
}

func requestID(msg kafka.Message) string {
	if id := msg.GetRequestID(); id != "" {
		return id
	}
	return msg.GetEventID()
}

func classify(message string, err error) error {
	outcome := string(reserrors.Classify(err))
	if errors.Is(err, reserrors.ErrQueueFull) || errors.Is(err, reserrors.ErrEngineStopped) {
		return kafka.NewTransientError(message, err).WithDetail("outcome", outcome)
	}
	return kafka.NewPermanentError(message, err).WithDetail("outcome", outcome)
}

// Ingestor runs a set of consumers together.
type Ingestor struct {
	consumers []*kafka.Consumer
	log       *logger.Logger
}

func NewIngestor(log *logger.Logger, consumers ...*kafka.Consumer) *Ingestor {
	return &Ingestor{consumers: consumers, log: log}
}

// Run consumes until ctx is cancelled and then closes every consumer.
func (i *Ingestor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range i.consumers {
		g.Go(func() error {
			return c.Start(gctx)
		})
	}
	err := g.Wait()

	for _, c := range i.consumers {
		if closeErr := c.Close(); closeErr != nil {
			i.log.Warn("Failed to close Kafka consumer", "topic", c.Topic(), "error", closeErr)
		}
	}
	return err
}
