package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"slotkeeper/pkg/config"
	"slotkeeper/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:            "0",
		RateLimitRPS:    100,
		RateLimitBurst:  100,
		RequestTimeout:  time.Second,
		IdempotencyTTL:  time.Minute,
		MaxRequestSize:  1024,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		IdleTimeout:     time.Second,
		ShutdownTimeout: time.Second,
		Log:             logger.Discard(),
	}
}

type echoHandler struct{}

func (echoHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/echo", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusAccepted)
	})
}

func TestApplication_Handler(t *testing.T) {
	a := NewApplication(testConfig())
	a.SetApp(echoHandler{}, nil)
	defer a.idempotencyStore.Stop()
	defer a.rateLimiter.Stop()

	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		want        int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"ready without dependencies", http.MethodGet, "/ready", "", http.StatusOK},
		{"app route", http.MethodPost, "/api/v1/echo", "application/json", http.StatusAccepted},
		{"wrong content type", http.MethodPost, "/api/v1/echo", "text/plain", http.StatusUnsupportedMediaType},
		{"unknown route", http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			a.Handler().ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestApplication_RunContextStopsWorkers(t *testing.T) {
	a := NewApplication(testConfig())

	stopped := make(chan struct{})
	a.AddWorker("loop", func(ctx context.Context) error {
		<-ctx.Done()
		close(stopped)
		return nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- a.RunContext(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunContext() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunContext did not return after cancel")
	}
	select {
	case <-stopped:
	default:
		t.Error("worker did not observe cancellation")
	}
}

func TestApplication_WorkerFailureCancelsOthers(t *testing.T) {
	a := NewApplication(testConfig())
	boom := errors.New("boom")

	a.AddWorker("failing", func(ctx context.Context) error { return boom })
	a.AddWorker("waiting", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})

	if err := a.RunContext(t.Context()); !errors.Is(err, boom) {
		t.Errorf("RunContext() error = %v, want %v", err, boom)
	}
}
