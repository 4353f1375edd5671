package service

import (
	"sync"
	"testing"
	"time"

	"slotkeeper/internal/reservations/lockset"
	"slotkeeper/internal/reservations/repository"
	"slotkeeper/internal/reservations/validator"
	"slotkeeper/pkg/config"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.Event
}

func (p *recordingPublisher) Publish(ev model.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) last() model.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return model.Event{}
	}
	return p.events[len(p.events)-1]
}

func (p *recordingPublisher) count(typ model.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func testConfig() *config.Config {
	return &config.Config{
		SlotCount:        10,
		HoldDuration:     5 * time.Second,
		ValidatorWorkers: 2,
		ProcessorWorkers: 1,
		LockTimeout:      time.Second,
		SweepPeriod:      20 * time.Millisecond,
		SweepLockTimeout: 20 * time.Millisecond,
		QueueSize:        16,
		Log:              logger.Discard(),
	}
}

type components struct {
	cfg       *config.Config
	clock     *fakeClock
	events    *recordingPublisher
	locks     *lockset.Set
	repo      repository.StateRepository
	creator   *HoldCreator
	confirmer *HoldConfirmer
	expirator *Expirator
}

func newComponents(t *testing.T) *components {
	t.Helper()
	cfg := testConfig()
	clock := newFakeClock()
	events := &recordingPublisher{}
	locks := lockset.New(cfg.SlotCount)
	repo := repository.NewStateRepository(cfg.SlotCount)
	requests := validator.NewRequestValidator(cfg.SlotCount, cfg.Log)

	return &components{
		cfg:       cfg,
		clock:     clock,
		events:    events,
		locks:     locks,
		repo:      repo,
		creator:   NewHoldCreator(locks, repo, requests, clock, events, cfg),
		confirmer: NewHoldConfirmer(locks, repo, requests, clock, events, cfg),
		expirator: NewExpirator(locks, repo, clock, events, cfg),
	}
}

func (c *components) snapshot(t *testing.T) model.Snapshot {
	t.Helper()
	snap, err := c.repo.Snapshot(t.Context(), c.clock.Now())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	return snap
}

// checkConsistency verifies that slot table and hold registry agree: every
// HELD slot belongs to exactly one live hold that lists it, and every live
// hold's slots are HELD under its id.
func checkConsistency(t *testing.T, snap model.Snapshot, holds []*model.Hold) {
	t.Helper()
	owner := make(map[int]string)
	for _, h := range holds {
		for _, idx := range h.Slots {
			if prev, dup := owner[idx]; dup {
				t.Errorf("slot %d claimed by holds %s and %s", idx, prev, h.ID)
			}
			owner[idx] = h.ID
			if !snap.Slots[idx].HeldBy(h.ID) {
				t.Errorf("hold %s lists slot %d but slot is %+v", h.ID, idx, snap.Slots[idx])
			}
		}
	}
	for _, slot := range snap.Slots {
		if slot.State == model.SlotHeld && owner[slot.Index] != slot.HoldID {
			t.Errorf("slot %d HELD by %s with no matching live hold", slot.Index, slot.HoldID)
		}
		if slot.State == model.SlotFree && (slot.Holder != "" || slot.HoldID != "" || !slot.LeaseDeadline.IsZero()) {
			t.Errorf("free slot %d carries stale fields: %+v", slot.Index, slot)
		}
	}
}

func (c *components) liveHolds(t *testing.T) []*model.Hold {
	t.Helper()
	var holds []*model.Hold
	err := c.repo.ExecuteTransaction(t.Context(), func(tx repository.StateTx) error {
		holds = tx.Holds()
		return nil
	})
	if err != nil {
		t.Fatalf("ExecuteTransaction() error = %v", err)
	}
	return holds
}
