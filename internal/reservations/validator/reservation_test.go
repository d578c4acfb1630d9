package validator

import (
	"strings"
	"testing"

	"bondfleet/pkg/logger"
	"bondfleet/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator() *ReservationValidator {
	return NewReservationValidator(logger.New(logger.Config{
		Level:   logger.ERROR,
		Format:  logger.JSON,
		Service: "test",
	}))
}

func validReservation() *model.Reservation {
	return &model.Reservation{
		Date:          "2026-10-05",
		StartTime:     "10:00",
		DurationMin:   150,
		PartySize:     2,
		Status:        model.StatusConfirmed,
		ServiceType:   model.ServiceAirportTransfer,
		CustomerName:  "Kanan Stark",
		CustomerEmail: "kanan@example.com",
		CustomerPhone: "+442079460958",
	}
}

func TestValidate_AcceptsCompleteReservation(t *testing.T) {
	require.NoError(t, newValidator().Validate(validReservation()))
}

func TestValidate_FieldErrors(t *testing.T) {
	v := newValidator()

	tests := []struct {
		name   string
		mutate func(r *model.Reservation)
		field  string
	}{
		{"bad date format", func(r *model.Reservation) { r.Date = "05-10-2026" }, "Date"},
		{"bad clock value", func(r *model.Reservation) { r.StartTime = "25:00" }, "StartTime"},
		{"unpadded clock value", func(r *model.Reservation) { r.StartTime = "9:00" }, "StartTime"},
		{"zero duration", func(r *model.Reservation) { r.DurationMin = 0 }, "DurationMin"},
		{"excessive duration", func(r *model.Reservation) { r.DurationMin = 721 }, "DurationMin"},
		{"zero party", func(r *model.Reservation) { r.PartySize = 0 }, "PartySize"},
		{"unknown status", func(r *model.Reservation) { r.Status = "maybe" }, "Status"},
		{"unknown service type", func(r *model.Reservation) { r.ServiceType = "submarine" }, "ServiceType"},
		{"missing customer name", func(r *model.Reservation) { r.CustomerName = "" }, "CustomerName"},
		{"bad email", func(r *model.Reservation) { r.CustomerEmail = "nope" }, "CustomerEmail"},
		{"non-E164 phone", func(r *model.Reservation) { r.CustomerPhone = "020 7946 0958" }, "CustomerPhone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validReservation()
			tt.mutate(r)

			err := v.Validate(r)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.field),
				"expected error to mention %s, got: %v", tt.field, err)
		})
	}
}

func TestValidateUpdate_EmptyUpdateIsValid(t *testing.T) {
	require.NoError(t, newValidator().ValidateUpdate(&model.ReservationUpdate{}))
}

func TestValidateUpdate_ChecksProvidedFieldsOnly(t *testing.T) {
	v := newValidator()

	err := v.ValidateUpdate(&model.ReservationUpdate{StartTime: "half past nine"})
	require.Error(t, err)

	require.NoError(t, v.ValidateUpdate(&model.ReservationUpdate{StartTime: "09:30"}))
}
