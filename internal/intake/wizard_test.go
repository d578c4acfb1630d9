package intake

import (
	"context"
	"testing"
	"time"

	fleetrepository "bondfleet/internal/fleet/repository"
	fleetservice "bondfleet/internal/fleet/service"
	fleetvalidator "bondfleet/internal/fleet/validator"
	"bondfleet/internal/notify"
	"bondfleet/internal/reservations/repository"
	"bondfleet/internal/reservations/service"
	"bondfleet/internal/reservations/validator"
	"bondfleet/pkg/config"
	apperrors "bondfleet/pkg/errors"
	"bondfleet/pkg/logger"
	"bondfleet/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWizard(t *testing.T) *Wizard {
	t.Helper()

	cfg := &config.Config{
		Log: logger.New(logger.Config{
			Level:   logger.ERROR,
			Format:  logger.JSON,
			Service: "test",
		}),
		OpenOfDay:          "08:00",
		CloseOfDay:         "20:00",
		SlotGranularityMin: 30,
		DefaultDurationMin: 150,
		MaxPartySize:       16,
		SlotLockTTL:        10 * time.Second,
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       5 * time.Second,
	}

	vehicleRepo := fleetrepository.NewMemoryVehicleRepository()
	require.NoError(t, vehicleRepo.Create(context.Background(), &model.Vehicle{
		Name: "Sedan", Capacity: 4, Active: true,
	}))
	fleetSvc := fleetservice.NewVehicleService(
		vehicleRepo,
		fleetvalidator.NewVehicleValidator(cfg.Log),
		cfg,
	)

	reservationRepo := repository.NewMemoryReservationRepository()
	reservationSvc := service.NewReservationService(
		reservationRepo,
		repository.NewMemorySlotLockRepository(cfg.SlotLockTTL),
		fleetSvc,
		validator.NewReservationValidator(cfg.Log),
		notify.NopNotifier{},
		cfg,
	)
	availabilitySvc := service.NewAvailabilityService(reservationRepo, fleetSvc, cfg)

	return NewWizard(availabilitySvc, reservationSvc, cfg.Log)
}

func TestWizard_HappyPath(t *testing.T) {
	w := newTestWizard(t)
	ctx := context.Background()

	s := w.NewSession()
	require.Equal(t, StateCollectingDate, s.State)
	require.NotEmpty(t, s.ID)

	w.Apply(s, &model.ReservationUpdate{Date: "2026-10-05"})
	require.NoError(t, w.Advance(ctx, s))
	require.Equal(t, StateCollectingService, s.State)

	two := 2
	w.Apply(s, &model.ReservationUpdate{ServiceType: model.ServiceWedding, PartySize: &two})
	require.NoError(t, w.Advance(ctx, s))
	require.Equal(t, StateCollectingTime, s.State)
	require.Len(t, s.Slots, 20, "time step must present the slot grid")

	w.Apply(s, &model.ReservationUpdate{StartTime: "10:00"})
	require.NoError(t, w.Advance(ctx, s))
	require.Equal(t, StateCollectingDetails, s.State)

	w.Apply(s, &model.ReservationUpdate{
		CustomerName:  "Tommy Egan",
		CustomerEmail: "tommy@example.com",
	})
	require.NoError(t, w.Advance(ctx, s))
	require.Equal(t, StateConfirmed, s.State)

	require.NotNil(t, s.Committed)
	assert.NotEmpty(t, s.Committed.ID)
	assert.NotEmpty(t, s.Committed.VehicleID)
	assert.Equal(t, model.StatusConfirmed, s.Committed.Status)
	assert.Equal(t, 150, s.Committed.DurationMin)
}

func TestWizard_StepsGatedByFieldPresence(t *testing.T) {
	w := newTestWizard(t)
	ctx := context.Background()

	s := w.NewSession()

	err := w.Advance(ctx, s)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	assert.Equal(t, StateCollectingDate, s.State, "failed advance must not change state")

	w.Apply(s, &model.ReservationUpdate{Date: "2026-10-05"})
	require.NoError(t, w.Advance(ctx, s))

	// Service type alone is not enough; party size is also required.
	w.Apply(s, &model.ReservationUpdate{ServiceType: model.ServiceLuxuryTour})
	err = w.Advance(ctx, s)
	require.Error(t, err)
	assert.Equal(t, StateCollectingService, s.State)
}

func TestWizard_StaleSlotRejectedAtTimeStep(t *testing.T) {
	w := newTestWizard(t)
	ctx := context.Background()

	s := w.NewSession()
	two := 2
	w.Apply(s, &model.ReservationUpdate{Date: "2026-10-05"})
	require.NoError(t, w.Advance(ctx, s))
	w.Apply(s, &model.ReservationUpdate{ServiceType: model.ServiceWedding, PartySize: &two})
	require.NoError(t, w.Advance(ctx, s))

	// A start time that was never on the presented grid.
	w.Apply(s, &model.ReservationUpdate{StartTime: "21:00"})
	err := w.Advance(ctx, s)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNoAvailability))
	assert.Equal(t, StateCollectingTime, s.State)
}

func TestWizard_ConfirmedSessionRejectsFurtherAdvance(t *testing.T) {
	w := newTestWizard(t)
	ctx := context.Background()

	s := w.NewSession()
	two := 2
	w.Apply(s, &model.ReservationUpdate{
		Date:          "2026-10-05",
		ServiceType:   model.ServiceWedding,
		PartySize:     &two,
		CustomerName:  "Tommy Egan",
		CustomerEmail: "tommy@example.com",
	})
	require.NoError(t, w.Advance(ctx, s))
	require.NoError(t, w.Advance(ctx, s))
	w.Apply(s, &model.ReservationUpdate{StartTime: "08:00"})
	require.NoError(t, w.Advance(ctx, s))
	require.NoError(t, w.Advance(ctx, s))
	require.Equal(t, StateConfirmed, s.State)

	err := w.Advance(ctx, s)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}
