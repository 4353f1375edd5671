// Package stats counts engine outcomes per operation.
package stats

import (
	"context"
	"time"
)

// Entry is one recorded outcome.
type Entry struct {
	Operation string
	Outcome   string
	At        time.Time
}

// Summary holds cumulative counts keyed by outcome, in total and per
// operation.
type Summary struct {
	Total       map[string]int64            `json:"total"`
	ByOperation map[string]map[string]int64 `json:"by_operation"`
}

func newSummary() Summary {
	return Summary{
		Total:       make(map[string]int64),
		ByOperation: make(map[string]map[string]int64),
	}
}

func (s Summary) add(operation, outcome string, n int64) {
	s.Total[outcome] += n
	byOutcome, ok := s.ByOperation[operation]
	if !ok {
		byOutcome = make(map[string]int64)
		s.ByOperation[operation] = byOutcome
	}
	byOutcome[outcome] += n
}

// Recorder persists outcome counts. Callers treat Record failures as
// best-effort.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
	Summary(ctx context.Context) (Summary, error)
}
