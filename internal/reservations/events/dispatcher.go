// Package events delivers engine outcome events to their sinks off the
// request path.
package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"slotkeeper/pkg/config"
	"slotkeeper/pkg/model"

	"golang.org/x/sync/errgroup"
)

// Sink consumes outcome events. A Sink error is logged and never retried.
type Sink interface {
	Name() string
	Handle(ctx context.Context, ev model.Event) error
}

// Dispatcher buffers events and hands each one to every sink in order.
// Publish never blocks: when the buffer is full the event is dropped and
// counted.
type Dispatcher struct {
	events  chan model.Event
	sinks   []Sink
	cfg     *config.Config
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

func NewDispatcher(cfg *config.Config, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		events: make(chan model.Event, cfg.EventBufferSize),
		sinks:  sinks,
		cfg:    cfg,
	}
}

func (d *Dispatcher) Publish(ev model.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped.Add(1)
		return
	}

	select {
	case d.events <- ev:
	default:
		if d.dropped.Add(1)%100 == 1 {
			d.cfg.Log.Warn("Event buffer full, dropping events",
				"event_type", ev.Type,
				"dropped_total", d.dropped.Load(),
			)
		}
	}
}

// Dropped reports how many events never reached the sinks.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// Run delivers events until ctx is cancelled, then delivers whatever is
// still buffered, each sink call bounded by WriteTimeout.
func (d *Dispatcher) Run(ctx context.Context) error {
	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		names = append(names, s.Name())
	}
	d.cfg.Log.Info("Event dispatcher started", "sinks", names, "buffer_size", cap(d.events))

	for {
		select {
		case ev := <-d.events:
			d.deliver(ctx, ev)
		case <-ctx.Done():
			d.close()
			drainCtx := context.WithoutCancel(ctx)
			for ev := range d.events {
				d.deliver(drainCtx, ev)
			}
			d.cfg.Log.Info("Event dispatcher stopped", "dropped_total", d.Dropped())
			return nil
		}
	}
}

// RunWith runs source next to the dispatcher. The dispatcher keeps delivering
// until source has returned, so events published while source drains after
// ctx is cancelled still reach the sinks.
func (d *Dispatcher) RunWith(ctx context.Context, source func(context.Context) error) error {
	dispatchCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	defer stop()

	g := new(errgroup.Group)
	g.Go(func() error {
		return d.Run(dispatchCtx)
	})
	g.Go(func() error {
		defer stop()
		return source(ctx)
	})
	return g.Wait()
}

func (d *Dispatcher) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev model.Event) {
	for _, sink := range d.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, d.sinkTimeout())
		err := sink.Handle(sinkCtx, ev)
		cancel()
		if err != nil {
			d.cfg.Log.Error("Event sink failed",
				"sink", sink.Name(),
				"event_id", ev.ID,
				"event_type", ev.Type,
				"hold_id", ev.HoldID,
				"error", err,
			)
		}
	}
}

func (d *Dispatcher) sinkTimeout() time.Duration {
	if d.cfg.WriteTimeout > 0 {
		return d.cfg.WriteTimeout
	}
	return 5 * time.Second
}
