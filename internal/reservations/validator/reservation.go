package validator

import (
	"errors"
	"fmt"
	"strings"

	"bondfleet/pkg/logger"
	"bondfleet/pkg/model"
	"bondfleet/pkg/timegrid"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
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

type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	v := validator.New()

	if err := v.RegisterValidation("clock", validateClock); err != nil {
		log.Fatal("Failed to register 'clock' validator", "error", err)
	}

	log.Info("Reservation validator initialized successfully")

	return &ReservationValidator{
		validate: v,
		logger:   log,
	}
}

// validateClock accepts zero-padded 24h wall-clock times ("08:00", "19:30").
func validateClock(fl validator.FieldLevel) bool {
	_, err := timegrid.ParseClock(fl.Field().String())
	return err == nil
}

func (rv *ReservationValidator) Validate(res *model.Reservation) error {
	if err := rv.validate.Struct(res); err != nil {
		return rv.translate(err)
	}
	return nil
}

func (rv *ReservationValidator) ValidateUpdate(u *model.ReservationUpdate) error {
	if err := rv.validate.Struct(u); err != nil {
		return rv.translate(err)
	}
	return nil
}

func (rv *ReservationValidator) translate(err error) error {
	var invalidErr *validator.InvalidValidationError
	if errors.As(err, &invalidErr) {
		return fmt.Errorf("invalid validation target: %w", err)
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	var result ValidationErrors
	for _, fe := range fieldErrs {
		result = append(result, ValidationError{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return result
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "clock":
		return "must be a time in HH:MM format"
	case "email":
		return "must be a valid email address"
	case "e164":
		return "must be a phone number in E.164 format"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "mongodb":
		return "must be a valid object ID"
	default:
		return fmt.Sprintf("failed validation '%s'", fe.Tag())
	}
}
