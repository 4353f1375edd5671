package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	httputil "slotkeeper/pkg/http"
	"slotkeeper/pkg/logger"
)

type HealthResponse struct {
	Status       string `json:"status"`
	Dependencies string `json:"dependencies,omitempty"`
}

// Pinger checks the backing stores. client.Client satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	pinger Pinger
	log    *logger.Logger
}

// NewHealthHandler builds the probe handler. A nil pinger means the service
// has no external dependencies and is ready as soon as it serves.
func NewHealthHandler(pinger Pinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		pinger: pinger,
		log:    log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	status, body := http.StatusOK, HealthResponse{Status: "ready", Dependencies: "ok"}

	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.pinger.Ping(ctx); err != nil {
			h.log.Error("Dependency health check failed",
				"error", err,
				"path", r.URL.Path,
			)
			status, body = http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Dependencies: "error"}
		}
	}

	if err := httputil.WriteJSON(w, status, body); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
