package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slotkeeper/internal/reservations/events"
	"slotkeeper/internal/reservations/service"
	"slotkeeper/internal/reservations/stats"
	"slotkeeper/internal/simulation"
	"slotkeeper/pkg/client"
	"slotkeeper/pkg/config"

	"golang.org/x/sync/errgroup"
)

const ServiceName = "simulator"

func main() {
	cfg := config.Load(ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := simulation.Options{
		Requesters:     cfg.SimRequesters,
		SlotCount:      cfg.SlotCount,
		ConfirmRatio:   cfg.SimConfirmRatio,
		Duration:       cfg.SimDuration,
		ReportInterval: cfg.SimReportInterval,
		Pacing:         simulation.DefaultPacing,
		Seed:           uint64(time.Now().UnixNano()),
	}

	if cfg.SimTargetURL != "" {
		cfg.Log.Info("Simulating against remote service", "url", cfg.SimTargetURL)
		target := client.NewReservationClient(cfg.SimTargetURL)
		if err := target.WaitForHealthy(ctx, cfg.SimTargetWait); err != nil {
			cfg.Log.Fatal("Remote service not reachable", "url", cfg.SimTargetURL, "error", err)
		}
		if err := simulation.New(target, opts, os.Stdout, cfg.Log).Run(ctx); err != nil {
			cfg.Log.Fatal("Simulation failed", "error", err)
		}
		return
	}

	runInProcess(ctx, cfg, opts)
}

// runInProcess starts an engine in this process, drives it for the configured
// duration and prints the outcome counts once the engine has drained.
func runInProcess(ctx context.Context, cfg *config.Config, opts simulation.Options) {
	recorder := stats.NewMemoryStore()
	dispatcher := events.NewDispatcher(cfg, events.NewStatsSink(recorder))
	engine := service.NewEngine(cfg, service.SystemClock(), dispatcher)

	engineCtx, stopEngine := context.WithCancel(context.Background())
	g := new(errgroup.Group)
	g.Go(func() error { return dispatcher.RunWith(engineCtx, engine.Run) })

	simErr := simulation.New(simulation.EngineTarget(engine), opts, os.Stdout, cfg.Log).Run(ctx)

	stopEngine()
	if err := g.Wait(); err != nil {
		cfg.Log.Error("Engine stopped with error", "error", err)
	}
	if simErr != nil {
		cfg.Log.Fatal("Simulation failed", "error", simErr)
	}

	summary, err := recorder.Summary(context.Background())
	if err != nil {
		cfg.Log.Error("Failed to read stats", "error", err)
		return
	}
	cfg.Log.Info("Simulation outcomes", "total", summary.Total, "by_operation", summary.ByOperation)
}
