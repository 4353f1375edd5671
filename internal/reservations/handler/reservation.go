package handler

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	reserrors "slotkeeper/internal/reservations/errors"
	"slotkeeper/internal/reservations/service"
	"slotkeeper/internal/reservations/stats"
	apperrors "slotkeeper/pkg/errors"
	httputil "slotkeeper/pkg/http"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/middleware"
	"slotkeeper/pkg/model"
)

type AcceptedResponse struct {
	RequestID string `json:"request_id"`
}

type ConfirmResponse struct {
	HoldID string `json:"hold_id"`
	Slots  []int  `json:"slots"`
}

type confirmBody struct {
	RequestID string `json:"request_id,omitempty"`
	Requester string `json:"requester"`
}

type ReservationHandler struct {
	service service.ReservationService
	stats   stats.Recorder
	log     *logger.Logger
}

// NewReservationHandler exposes svc over HTTP. recorder may be nil, in which
// case the stats endpoint reports the service as unavailable.
func NewReservationHandler(svc service.ReservationService, recorder stats.Recorder, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: svc,
		stats:   recorder,
		log:     log,
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reservations", h.SubmitReservation)
	router.POST("/api/v1/confirmations", h.SubmitConfirmation)
	router.POST("/api/v1/holds", h.Reserve)
	router.POST("/api/v1/holds/:id/confirm", h.Confirm)
	router.GET("/api/v1/holds/lookup", h.FindHold)
	router.GET("/api/v1/snapshot", h.Snapshot)
	router.GET("/api/v1/stats", h.Stats)
}

// SubmitReservation queues a reservation and answers before it is processed.
func (h *ReservationHandler) SubmitReservation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ReservationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "SubmitReservation", err)
		return
	}
	h.defaultRequestID(r, &req.RequestID)

	requestID, err := h.service.SubmitReservation(&req)
	if err != nil {
		h.writeError(w, r, "SubmitReservation", err)
		return
	}
	h.write("SubmitReservation", httputil.WriteAccepted(w, AcceptedResponse{RequestID: requestID}))
}

func (h *ReservationHandler) SubmitConfirmation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ConfirmationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "SubmitConfirmation", err)
		return
	}
	h.defaultRequestID(r, &req.RequestID)

	requestID, err := h.service.SubmitConfirmation(&req)
	if err != nil {
		h.writeError(w, r, "SubmitConfirmation", err)
		return
	}
	h.write("SubmitConfirmation", httputil.WriteAccepted(w, AcceptedResponse{RequestID: requestID}))
}

// Reserve processes a reservation synchronously and returns the new hold.
func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ReservationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "Reserve", err)
		return
	}
	h.defaultRequestID(r, &req.RequestID)

	hold, err := h.service.Reserve(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, "Reserve", err)
		return
	}
	h.write("Reserve", httputil.WriteCreated(w, hold))
}

func (h *ReservationHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body confirmBody
	if err := httputil.DecodeJSON(r, &body); err != nil {
		h.writeError(w, r, "Confirm", err)
		return
	}
	if body.Requester == "" {
		body.Requester = r.Header.Get(middleware.RequesterHeader)
	}

	req := &model.ConfirmationRequest{
		RequestID: body.RequestID,
		Requester: body.Requester,
		HoldID:    ps.ByName("id"),
	}
	h.defaultRequestID(r, &req.RequestID)

	slots, err := h.service.Confirm(r.Context(), req)
	if errors.Is(err, reserrors.ErrHoldNotFound) {
		err = apperrors.NotFoundWithID("Hold", req.HoldID)
	}
	if err != nil {
		h.writeError(w, r, "Confirm", err)
		return
	}
	h.write("Confirm", httputil.WriteSuccess(w, ConfirmResponse{HoldID: req.HoldID, Slots: slots}))
}

func (h *ReservationHandler) FindHold(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	slots, err := httputil.ParseIntList(query.Get("slots"))
	if err != nil {
		h.writeError(w, r, "FindHold", err)
		return
	}

	hold, err := h.service.FindHold(r.Context(), query.Get("requester"), slots)
	if err != nil {
		h.writeError(w, r, "FindHold", err)
		return
	}
	h.write("FindHold", httputil.WriteSuccess(w, hold))
}

func (h *ReservationHandler) Snapshot(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	snap, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.writeError(w, r, "Snapshot", err)
		return
	}
	h.write("Snapshot", httputil.WriteSuccess(w, snap))
}

func (h *ReservationHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.stats == nil {
		h.writeError(w, r, "Stats", apperrors.Unavailable("Stats store"))
		return
	}

	summary, err := h.stats.Summary(r.Context())
	if err != nil {
		h.writeError(w, r, "Stats", apperrors.Wrap(err, apperrors.CodeUnavailable, "Stats store is temporarily unavailable", http.StatusServiceUnavailable))
		return
	}
	h.write("Stats", httputil.WriteSuccess(w, summary))
}

// defaultRequestID falls back to the HTTP request id so that log lines from
// the handler and the engine correlate.
func (h *ReservationHandler) defaultRequestID(r *http.Request, id *string) {
	if *id == "" {
		*id = middleware.RequestIDFromContext(r.Context())
	}
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, r *http.Request, handler string, err error) {
	appErr := toAppError(err)
	if appErr.StatusCode() == http.StatusInternalServerError {
		h.log.Error("request failed",
			"handler", handler,
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"error", err,
		)
	}
	h.write(handler, httputil.WriteError(w, appErr))
}

func (h *ReservationHandler) write(handler string, err error) {
	if err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}
