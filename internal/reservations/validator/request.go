package validator

import (
	"errors"
	"fmt"
	"strings"

	reserrors "slotkeeper/internal/reservations/errors"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"

	"github.com/go-playground/validator/v10"
)

const slotIndexTag = "slot_index"

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"-"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

func (v ValidationErrors) hasTag(tag string) bool {
	for _, err := range v {
		if err.Tag == tag {
			return true
		}
	}
	return false
}

// RequestValidator checks the shape of inbound requests. Slot indices are
// bounded by the table size fixed at construction.
type RequestValidator struct {
	validate  *validator.Validate
	slotCount int
	logger    *logger.Logger
}

func NewRequestValidator(slotCount int, log *logger.Logger) *RequestValidator {
	v := validator.New()

	if err := v.RegisterValidation(slotIndexTag, func(fl validator.FieldLevel) bool {
		idx := fl.Field().Int()
		return idx >= 0 && idx < int64(slotCount)
	}); err != nil {
		log.Fatal("Failed to register 'slot_index' validator",
			"error", err,
		)
	}

	log.Debug("Request validator initialized", "slot_count", slotCount)

	return &RequestValidator{
		validate:  v,
		slotCount: slotCount,
		logger:    log,
	}
}

// ValidateReservation returns an error wrapping ErrSlotOutOfRange when any
// index falls outside the table, or ErrInvalidRequest for any other defect.
func (v *RequestValidator) ValidateReservation(req *model.ReservationRequest) error {
	if req == nil {
		return fmt.Errorf("%w: empty reservation request", reserrors.ErrInvalidRequest)
	}
	return v.check(req)
}

func (v *RequestValidator) ValidateConfirmation(req *model.ConfirmationRequest) error {
	if req == nil {
		return fmt.Errorf("%w: empty confirmation request", reserrors.ErrInvalidRequest)
	}
	return v.check(req)
}

func (v *RequestValidator) check(req any) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("%w: %w", reserrors.ErrInvalidRequest, err)
	}

	translated := v.translateValidationErrors(validationErrs)
	if translated.hasTag(slotIndexTag) {
		return fmt.Errorf("%w: %w", reserrors.ErrSlotOutOfRange, translated)
	}
	return fmt.Errorf("%w: %w", reserrors.ErrInvalidRequest, translated)
}

func (v *RequestValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must have at least %s item(s)", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "unique":
			message = fmt.Sprintf("%s must not repeat a slot", err.Field())
		case slotIndexTag:
			message = fmt.Sprintf("%s must be between 0 and %d, got %v", err.Field(), v.slotCount-1, err.Value())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Tag:     err.Tag(),
			Message: message,
		})
	}

	return validationErrors
}
