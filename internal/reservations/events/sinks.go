package events

import (
	"context"

	"slotkeeper/internal/reservations/repository"
	"slotkeeper/internal/reservations/stats"
	"slotkeeper/pkg/kafka"
	"slotkeeper/pkg/model"
)

const (
	eventSchemaVersion = "1"
	eventSource        = "slotkeeper"

	// OutcomeHeader carries the event outcome so consumers can filter without
	// decoding the payload.
	OutcomeHeader = "outcome"
)

type statsSink struct {
	recorder stats.Recorder
}

// NewStatsSink counts every event by operation and outcome.
func NewStatsSink(recorder stats.Recorder) Sink {
	return &statsSink{recorder: recorder}
}

func (s *statsSink) Name() string {
	return "stats"
}

func (s *statsSink) Handle(ctx context.Context, ev model.Event) error {
	return s.recorder.Record(ctx, stats.Entry{
		Operation: ev.Operation,
		Outcome:   ev.Outcome,
		At:        ev.OccurredAt,
	})
}

// MessagePublisher is the part of *kafka.Producer the Kafka sink uses.
type MessagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type kafkaSink struct {
	producer MessagePublisher
}

// NewKafkaSink publishes every event as JSON keyed by hold id, so events
// for one hold stay ordered within a partition.
func NewKafkaSink(producer MessagePublisher) Sink {
	return &kafkaSink{producer: producer}
}

func (s *kafkaSink) Name() string {
	return "kafka"
}

func (s *kafkaSink) Handle(ctx context.Context, ev model.Event) error {
	msg, err := kafka.NewMessage().
		WithKey(ev.Key()).
		WithValue(ev).
		WithEventID(ev.ID).
		WithEventType(string(ev.Type)).
		WithRequestID(ev.RequestID).
		WithSchemaVersion(eventSchemaVersion).
		WithSource(eventSource).
		WithTimestamp(ev.OccurredAt).
		WithHeader(OutcomeHeader, ev.Outcome).
		Build()
	if err != nil {
		return err
	}
	return s.producer.Publish(ctx, msg)
}

type journalSink struct {
	journal repository.BookingJournal
}

// NewJournalSink appends a booking record for every confirmed hold and
// ignores all other events.
func NewJournalSink(journal repository.BookingJournal) Sink {
	return &journalSink{journal: journal}
}

func (s *journalSink) Name() string {
	return "journal"
}

func (s *journalSink) Handle(ctx context.Context, ev model.Event) error {
	if ev.Type != model.EventHoldConfirmed {
		return nil
	}
	return s.journal.Append(ctx, &model.BookingRecord{
		HoldID:      ev.HoldID,
		Requester:   ev.Requester,
		Slots:       ev.Slots,
		ConfirmedAt: ev.OccurredAt,
	})
}
