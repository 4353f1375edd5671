package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/sync/errgroup"

	"slotkeeper/internal/reservations/handler"
	"slotkeeper/pkg/config"
	"slotkeeper/pkg/contracts"
	"slotkeeper/pkg/middleware"
)

// Worker is a background loop that runs until its context is cancelled.
type Worker struct {
	Name string
	Run  func(ctx context.Context) error
}

type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore *middleware.InMemoryIdempotencyStore
	rateLimiter      *middleware.RequesterRateLimiter
	healthHandler    http.Handler
	appHttpHandler   http.Handler
	workers          []Worker
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

// SetApp wires the HTTP surface. pinger backs the readiness probe and may be
// nil.
func (a *Application) SetApp(appHandler contracts.Handler, pinger handler.Pinger) {
	a.setHealthHandler(pinger)
	a.setAppHandler(appHandler)
	a.setAppServer()
}

// AddWorker registers a loop started alongside the HTTP server by Run.
func (a *Application) AddWorker(name string, run func(ctx context.Context) error) {
	a.workers = append(a.workers, Worker{Name: name, Run: run})
}

func (a *Application) setHealthHandler(pinger handler.Pinger) {
	healthRouter := httprouter.New()
	handler.NewHealthHandler(pinger, a.cfg.Log).RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(appHandler contracts.Handler) {
	appRouter := httprouter.New()
	appHandler.RegisterRoutes(appRouter)

	a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(a.cfg.IdempotencyTTL)
	a.rateLimiter = middleware.NewRequesterRateLimiter(
		a.cfg.RateLimitRPS,
		a.cfg.RateLimitBurst,
		middleware.DefaultRequesterExtractor,
		a.cfg.Log,
	)

	// Recovery → Logging → MaxSize → ContentType → RateLimit → Timeout → Idempotency → Router
	var appHttpHandler http.Handler = appRouter
	appHttpHandler = middleware.Idempotency(a.idempotencyStore, "Idempotency-Key")(appHttpHandler)
	appHttpHandler = middleware.RequestTimeout(a.cfg.RequestTimeout)(appHttpHandler)
	appHttpHandler = middleware.RequesterRateLimit(a.rateLimiter)(appHttpHandler)
	appHttpHandler = middleware.ContentTypeValidation(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(appHttpHandler)
	appHttpHandler = middleware.RequestLogging(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.Recovery(a.cfg.Log)(appHttpHandler)
	a.appHttpHandler = appHttpHandler
	a.cfg.Log.Info("Application endpoints configured with full middleware stack")
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/", a.appHttpHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

// Handler returns the composed HTTP handler. SetApp must have been called.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

// Run blocks until SIGINT/SIGTERM or until a worker or the server fails.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the workers and, when SetApp was called, the HTTP
// server. Cancelling ctx stops the server first so no new requests reach the
// workers while they drain.
func (a *Application) RunContext(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, w := range a.workers {
		g.Go(func() error {
			a.cfg.Log.Info("Starting worker", "worker", w.Name)
			if err := w.Run(gctx); err != nil {
				a.cfg.Log.Error("Worker failed", "worker", w.Name, "error", err)
				return err
			}
			a.cfg.Log.Info("Worker stopped", "worker", w.Name)
			return nil
		})
	}

	if a.server != nil {
		g.Go(func() error {
			a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.cfg.Log.Error("HTTP server failed", "error", err)
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			a.gracefulShutdown()
			return nil
		})
	}

	return g.Wait()
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	a.idempotencyStore.Stop()
	a.rateLimiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Error("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Server stopped gracefully")
}
