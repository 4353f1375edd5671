package simulation

import (
	"context"
	"fmt"
	"io"
	"time"

	"slotkeeper/pkg/logger"

	"golang.org/x/sync/errgroup"
)

type Options struct {
	Requesters     int
	SlotCount      int
	ConfirmRatio   float64
	Duration       time.Duration
	ReportInterval time.Duration
	Pacing         Pacing
	Seed           uint64
}

type Simulation struct {
	target   Target
	opts     Options
	reporter *Reporter
	out      io.Writer
	root     *logger.Logger
	log      *logger.Logger
}

func New(target Target, opts Options, out io.Writer, log *logger.Logger) *Simulation {
	return &Simulation{
		target:   target,
		opts:     opts,
		reporter: NewReporter(target, out),
		out:      out,
		root:     log,
		log:      log.Component("simulation"),
	}
}

// Run drives the requesters for the configured duration, reporting state
// every interval, then prints the final state.
func (s *Simulation) Run(ctx context.Context) error {
	runCtx := ctx
	if s.opts.Duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.opts.Duration)
		defer cancel()
	}

	s.log.Info("Simulation started",
		"requesters", s.opts.Requesters,
		"slots", s.opts.SlotCount,
		"duration", s.opts.Duration,
	)

	g, gctx := errgroup.WithContext(runCtx)
	for i := range s.opts.Requesters {
		r := NewRequester(fmt.Sprintf("user%d", i), s.target, s.opts.SlotCount, s.opts.ConfirmRatio,
			s.opts.Pacing, s.opts.Seed+uint64(i), s.root)
		g.Go(func() error {
			return r.Run(gctx)
		})
	}
	g.Go(func() error {
		return s.reportEvery(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintln(s.out, "\nSimulation finished. Final state:")
	return s.reporter.Report(context.WithoutCancel(ctx))
}

func (s *Simulation) reportEvery(ctx context.Context) error {
	if s.opts.ReportInterval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.opts.ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.reporter.Report(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.log.Warn("Report failed", "error", err)
			}
		}
	}
}
