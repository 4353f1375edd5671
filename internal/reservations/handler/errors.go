package handler

import (
	"errors"
	"net/http"

	reserrors "slotkeeper/internal/reservations/errors"
	apperrors "slotkeeper/pkg/errors"
)

// toAppError maps engine sentinels onto HTTP-facing errors.
func toAppError(err error) *apperrors.AppError {
	if apperrors.IsAppError(err) {
		return apperrors.AsAppError(err)
	}

	switch {
	case errors.Is(err, reserrors.ErrInvalidRequest), errors.Is(err, reserrors.ErrSlotOutOfRange):
		return apperrors.Validation(err.Error(), nil)
	case errors.Is(err, reserrors.ErrHoldNotFound):
		return apperrors.NotFound("Hold")
	case errors.Is(err, reserrors.ErrSlotUnavailable),
		errors.Is(err, reserrors.ErrNotHoldOwner),
		errors.Is(err, reserrors.ErrHoldExpired),
		errors.Is(err, reserrors.ErrHoldStale):
		return apperrors.Conflict(err.Error()).WithDetails(map[string]any{
			"outcome": string(reserrors.Classify(err)),
		})
	case errors.Is(err, reserrors.ErrLockTimeout):
		return apperrors.Wrap(err, apperrors.CodeUnavailable, "Slots are busy, retry later", http.StatusServiceUnavailable)
	case errors.Is(err, reserrors.ErrQueueFull):
		return apperrors.TooManyRequests("Request queue is full, retry later")
	case errors.Is(err, reserrors.ErrEngineStopped):
		return apperrors.Unavailable("Reservation engine")
	default:
		return apperrors.Internal("An unexpected error occurred", err)
	}
}
