package validator

import (
	"errors"
	"fmt"
	"strings"

	"bondfleet/pkg/logger"
	"bondfleet/pkg/model"

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

type VehicleValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewVehicleValidator(log *logger.Logger) *VehicleValidator {
	return &VehicleValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (vv *VehicleValidator) Validate(v *model.Vehicle) error {
	if err := vv.validate.Struct(v); err != nil {
		return vv.translate(err)
	}
	return nil
}

func (vv *VehicleValidator) ValidateUpdate(u *model.VehicleUpdate) error {
	if err := vv.validate.Struct(u); err != nil {
		return vv.translate(err)
	}
	return nil
}

func (vv *VehicleValidator) translate(err error) error {
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
	case "mongodb":
		return "must be a valid object ID"
	default:
		return fmt.Sprintf("failed validation '%s'", fe.Tag())
	}
}
