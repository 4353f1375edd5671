package repository

import (
	"context"
	"fmt"
	"time"

	"slotkeeper/pkg/config"
	"slotkeeper/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	JournalCollectionName = "Booking_journal"
)

// BookingJournal is an append-only audit trail of confirmed bookings. The
// engine never reads it back.
type BookingJournal interface {
	Append(ctx context.Context, record *model.BookingRecord) error
}

type mongoBookingJournal struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingJournal(cfg *config.Config) BookingJournal {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingJournal{
		cfg:        cfg,
		collection: db.Collection(JournalCollectionName),
	}
}

// Append inserts the record keyed by hold id. A duplicate key means the same
// confirmation was already journaled and is not an error.
func (j *mongoBookingJournal) Append(ctx context.Context, record *model.BookingRecord) error {
	ctx, cancel := withTimeout(ctx, j.cfg.WriteTimeout)
	defer cancel()

	record.RecordedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := j.collection.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			j.cfg.Log.Debug("Booking already journaled", "hold_id", record.HoldID)
			return nil
		}
		return fmt.Errorf("failed to journal booking: %w", err)
	}
	return nil
}

// withTimeout bounds ctx by timeout unless it already has an earlier deadline.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}
