package stats

import (
	"context"
	"sync"
)

// MemoryStore keeps counts in process. It never expires anything.
type MemoryStore struct {
	mu      sync.Mutex
	summary Summary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{summary: newSummary()}
}

func (s *MemoryStore) Record(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary.add(entry.Operation, entry.Outcome, 1)
	return nil
}

func (s *MemoryStore) Summary(_ context.Context) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := newSummary()
	for op, byOutcome := range s.summary.ByOperation {
		for outcome, n := range byOutcome {
			out.add(op, outcome, n)
		}
	}
	return out, nil
}
