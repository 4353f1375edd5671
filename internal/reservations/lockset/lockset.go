// Package lockset implements ordered, time-bounded locking over a fixed
// array of per-slot locks.
//
// Every caller locks its slots in ascending index order, so no two callers
// can wait on each other in a cycle. A single timeout budget covers the whole
// acquisition: each individual wait gets only what is left of it. On any
// failure the locks taken so far are released before Acquire returns.
package lockset

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	reserrors "slotkeeper/internal/reservations/errors"

	"golang.org/x/sync/semaphore"
)

// Set holds one lock per slot, indexed directly by slot number.
type Set struct {
	locks []*semaphore.Weighted
}

func New(size int) *Set {
	locks := make([]*semaphore.Weighted, size)
	for i := range locks {
		locks[i] = semaphore.NewWeighted(1)
	}
	return &Set{locks: locks}
}

// Canonical returns ids sorted ascending with duplicates removed.
func Canonical(ids []int) []int {
	ordered := slices.Clone(ids)
	slices.Sort(ordered)
	return slices.Compact(ordered)
}

// Acquire locks every slot in ids within timeout. It returns a Held that the
// caller must Release, or an error wrapping ErrLockTimeout (or
// ErrSlotOutOfRange) with no lock left held.
func (s *Set) Acquire(ctx context.Context, ids []int, timeout time.Duration) (*Held, error) {
	ordered := Canonical(ids)
	for _, id := range ordered {
		if id < 0 || id >= len(s.locks) {
			return nil, fmt.Errorf("%w: %d", reserrors.ErrSlotOutOfRange, id)
		}
	}

	deadline := time.Now().Add(timeout)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	held := &Held{set: s, ids: make([]int, 0, len(ordered))}
	for _, id := range ordered {
		if time.Until(deadline) <= 0 {
			held.Release()
			return nil, fmt.Errorf("%w: budget exhausted before slot %d", reserrors.ErrLockTimeout, id)
		}
		if err := s.locks[id].Acquire(ctx, 1); err != nil {
			held.Release()
			return nil, fmt.Errorf("%w: slot %d: %w", reserrors.ErrLockTimeout, id, err)
		}
		held.ids = append(held.ids, id)
	}
	return held, nil
}

// Held is the set of locks owned by one successful Acquire.
type Held struct {
	set *Set
	mu  sync.Mutex
	ids []int
}

// Slots returns the held slot indices in canonical order.
func (h *Held) Slots() []int {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.ids)
}

// Release unlocks the held slots in reverse canonical order. Calling it again,
// or on a nil Held, does nothing.
func (h *Held) Release() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.ids) - 1; i >= 0; i-- {
		h.set.locks[h.ids[i]].Release(1)
	}
	h.ids = nil
}
