package service

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	fleetrepository "bondfleet/internal/fleet/repository"
	fleetservice "bondfleet/internal/fleet/service"
	fleetvalidator "bondfleet/internal/fleet/validator"
	"bondfleet/internal/notify"
	"bondfleet/internal/reservations/repository"
	"bondfleet/internal/reservations/validator"
	"bondfleet/pkg/config"
	apperrors "bondfleet/pkg/errors"
	"bondfleet/pkg/logger"
	"bondfleet/pkg/model"
	"bondfleet/pkg/timegrid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDate = "2026-10-05"

func newTestConfig() *config.Config {
	return &config.Config{
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
}

type bookingCore struct {
	cfg          *config.Config
	vehicles     fleetrepository.VehicleRepository
	reservations repository.ReservationRepository
	fleet        fleetservice.VehicleService
	service      ReservationService
	availability AvailabilityService
}

func newBookingCore(t *testing.T) *bookingCore {
	t.Helper()

	cfg := newTestConfig()
	vehicleRepo := fleetrepository.NewMemoryVehicleRepository()
	fleetSvc := fleetservice.NewVehicleService(
		vehicleRepo,
		fleetvalidator.NewVehicleValidator(cfg.Log),
		cfg,
	)

	reservationRepo := repository.NewMemoryReservationRepository()
	lockRepo := repository.NewMemorySlotLockRepository(cfg.SlotLockTTL)
	reservationSvc := NewReservationService(
		reservationRepo,
		lockRepo,
		fleetSvc,
		validator.NewReservationValidator(cfg.Log),
		notify.NopNotifier{},
		cfg,
	)
	availabilitySvc := NewAvailabilityService(reservationRepo, fleetSvc, cfg)

	return &bookingCore{
		cfg:          cfg,
		vehicles:     vehicleRepo,
		reservations: reservationRepo,
		fleet:        fleetSvc,
		service:      reservationSvc,
		availability: availabilitySvc,
	}
}

func (c *bookingCore) addVehicle(t *testing.T, name string, capacity int) *model.Vehicle {
	t.Helper()

	v := &model.Vehicle{Name: name, Capacity: capacity, Active: true}
	require.NoError(t, c.vehicles.Create(context.Background(), v))
	return v
}

func newReservation(startTime string, partySize int) *model.Reservation {
	return &model.Reservation{
		Date:          testDate,
		StartTime:     startTime,
		DurationMin:   150,
		PartySize:     partySize,
		ServiceType:   model.ServiceAirportTransfer,
		CustomerName:  "James St Patrick",
		CustomerEmail: "ghost@example.com",
	}
}

func TestQueryAvailability_EmptyDay(t *testing.T) {
	core := newBookingCore(t)
	core.addVehicle(t, "Sedan", 4)
	core.addVehicle(t, "Van", 7)

	slots, err := core.availability.Query(context.Background(), testDate, 2, 150)
	require.NoError(t, err)

	// 08:00-20:00 with 30-minute granularity and 150-minute rides.
	require.Len(t, slots, 20)
	assert.Equal(t, "08:00", slots[0].Time)
	assert.Equal(t, "17:30", slots[len(slots)-1].Time)
	for _, slot := range slots {
		assert.True(t, slot.Available, "slot %s", slot.Time)
		assert.Equal(t, 4, slot.VehicleCapacity, "slot %s", slot.Time)
	}
}

func TestQueryAvailability_NoEligibleVehicles(t *testing.T) {
	core := newBookingCore(t)
	core.addVehicle(t, "Sedan", 4)

	slots, err := core.availability.Query(context.Background(), testDate, 6, 150)
	require.NoError(t, err)
	require.Len(t, slots, 20)
	for _, slot := range slots {
		assert.False(t, slot.Available, "slot %s", slot.Time)
	}
}

func TestCommit_BindsTightestFit(t *testing.T) {
	core := newBookingCore(t)
	sedan := core.addVehicle(t, "Sedan", 4)
	core.addVehicle(t, "Van", 7)

	res := newReservation("10:00", 3)
	require.NoError(t, core.service.Commit(context.Background(), res))

	assert.Equal(t, sedan.ID, res.VehicleID)
	assert.Equal(t, model.StatusConfirmed, res.Status)
	assert.NotEmpty(t, res.ID)
	assert.EqualValues(t, 1, res.Version)
}

func TestCommit_TightestFitTieBreaksOnLowestID(t *testing.T) {
	core := newBookingCore(t)
	first := core.addVehicle(t, "Sedan One", 4)
	second := core.addVehicle(t, "Sedan Two", 4)

	lowest := first.ID
	if second.ID < lowest {
		lowest = second.ID
	}

	res := newReservation("10:00", 2)
	require.NoError(t, core.service.Commit(context.Background(), res))
	assert.Equal(t, lowest, res.VehicleID)
}

func TestCommit_NoAvailabilityWhenAllVehiclesBusy(t *testing.T) {
	core := newBookingCore(t)
	core.addVehicle(t, "Sedan", 4)
	core.addVehicle(t, "Van", 7)

	ctx := context.Background()
	require.NoError(t, core.service.Commit(ctx, newReservation("10:00", 2)))
	require.NoError(t, core.service.Commit(ctx, newReservation("11:00", 6)))

	// 10:30-13:00 overlaps both the 10:00-12:30 and the 11:00-13:30 rides.
	err := core.service.Commit(ctx, newReservation("10:30", 2))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNoAvailability))

	count, countErr := core.reservations.Count(ctx, repository.ListFilter{})
	require.NoError(t, countErr)
	assert.EqualValues(t, 2, count, "failed commit must not write")
}

func TestCommit_IgnoresClientBinding(t *testing.T) {
	core := newBookingCore(t)
	sedan := core.addVehicle(t, "Sedan", 4)

	res := newReservation("10:00", 2)
	res.VehicleID = "deadbeefdeadbeefdeadbeef"
	res.Status = model.StatusCancelled

	require.NoError(t, core.service.Commit(context.Background(), res))
	assert.Equal(t, sedan.ID, res.VehicleID)
	assert.Equal(t, model.StatusConfirmed, res.Status)
}

func TestCommit_RejectsOffGridStart(t *testing.T) {
	core := newBookingCore(t)
	core.addVehicle(t, "Sedan", 4)

	err := core.service.Commit(context.Background(), newReservation("10:15", 2))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidRange))
}

func TestCommit_RejectsSlotPastClose(t *testing.T) {
	core := newBookingCore(t)
	core.addVehicle(t, "Sedan", 4)

	// 19:00 + 150 minutes runs past the 20:00 close.
	err := core.service.Commit(context.Background(), newReservation("19:00", 2))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidRange))
}

func TestCommit_RejectsInvalidReservation(t *testing.T) {
	core := newBookingCore(t)
	core.addVehicle(t, "Sedan", 4)

	res := newReservation("10:00", 2)
	res.CustomerEmail = "not-an-email"

	err := core.service.Commit(context.Background(), res)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	count, countErr := core.reservations.Count(context.Background(), repository.ListFilter{})
	require.NoError(t, countErr)
	assert.Zero(t, count)
}

func TestCommit_AppliesDefaultDuration(t *testing.T) {
	core := newBookingCore(t)
	core.addVehicle(t, "Sedan", 4)

	res := newReservation("10:00", 2)
	res.DurationMin = 0

	require.NoError(t, core.service.Commit(context.Background(), res))
	assert.Equal(t, 150, res.DurationMin)
}

func TestAmend_RescheduleFreesOldSlot(t *testing.T) {
	core := newBookingCore(t)
	core.addVehicle(t, "Sedan", 4)

	ctx := context.Background()
	res := newReservation("10:00", 2)
	require.NoError(t, core.service.Commit(ctx, res))

	amended, err := core.service.Amend(ctx, res.ID, &model.ReservationUpdate{StartTime: "13:00"})
	require.NoError(t, err)
	assert.Equal(t, "13:00", amended.StartTime)
	assert.EqualValues(t, 2, amended.Version)

	// The old 10:00-12:30 window must be bookable again.
	slots, err := core.availability.Query(ctx, testDate, 2, 150)
	require.NoError(t, err)
	for _, slot := range slots {
		start, parseErr := timegrid.ParseClock(slot.Time)
		require.NoError(t, parseErr)
		if start+150 <= 780 { // ends by 13:00
			assert.True(t, slot.Available, "slot %s should be free after amend", slot.Time)
		}
	}

	require.NoError(t, core.service.Commit(ctx, newReservation("10:00", 2)))
}

func TestAmend_OwnSlotDoesNotBlockReschedule(t *testing.T) {
	core := newBookingCore(t)
	core.addVehicle(t, "Sedan", 4)

	ctx := context.Background()
	res := newReservation("10:00", 2)
	require.NoError(t, core.service.Commit(ctx, res))

	// 10:30 overlaps the reservation's own 10:00-12:30 window only.
	amended, err := core.service.Amend(ctx, res.ID, &model.ReservationUpdate{StartTime: "10:30"})
	require.NoError(t, err)
	assert.Equal(t, "10:30", amended.StartTime)
}

func TestAmend_FailedRebindLeavesOriginalUntouched(t *testing.T) {
	core := newBookingCore(t)
	core.addVehicle(t, "Sedan", 4)

	ctx := context.Background()
	first := newReservation("08:00", 2)
	second := newReservation("13:00", 2)
	require.NoError(t, core.service.Commit(ctx, first))
	require.NoError(t, core.service.Commit(ctx, second))

	_, err := core.service.Amend(ctx, second.ID, &model.ReservationUpdate{StartTime: "08:30"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNoAvailability))

	unchanged, err := core.service.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "13:00", unchanged.StartTime)
	assert.EqualValues(t, 1, unchanged.Version)
}

func TestAmend_ContactOnlySkipsRebind(t *testing.T) {
	core := newBookingCore(t)
	core.addVehicle(t, "Sedan", 4)

	ctx := context.Background()
	res := newReservation("10:00", 2)
	require.NoError(t, core.service.Commit(ctx, res))

	amended, err := core.service.Amend(ctx, res.ID, &model.ReservationUpdate{
		CustomerPhone: "+442079460958",
	})
	require.NoError(t, err)
	assert.Equal(t, "+442079460958", amended.CustomerPhone)
	assert.Equal(t, res.VehicleID, amended.VehicleID)
	assert.Equal(t, "10:00", amended.StartTime)
}

func TestAmend_PartySizeGrowthRebinds(t *testing.T) {
	core := newBookingCore(t)
	sedan := core.addVehicle(t, "Sedan", 4)
	van := core.addVehicle(t, "Van", 7)

	ctx := context.Background()
	res := newReservation("10:00", 2)
	require.NoError(t, core.service.Commit(ctx, res))
	require.Equal(t, sedan.ID, res.VehicleID)

	six := 6
	amended, err := core.service.Amend(ctx, res.ID, &model.ReservationUpdate{PartySize: &six})
	require.NoError(t, err)
	assert.Equal(t, van.ID, amended.VehicleID)
}

func TestAmend_CancelledReservationReadsAsNotFound(t *testing.T) {
	core := newBookingCore(t)
	core.addVehicle(t, "Sedan", 4)

	ctx := context.Background()
	res := newReservation("10:00", 2)
	require.NoError(t, core.service.Commit(ctx, res))
	require.NoError(t, core.service.Cancel(ctx, res.ID))

	_, err := core.service.Amend(ctx, res.ID, &model.ReservationUpdate{StartTime: "13:00"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestCancel_FreesSlotImmediately(t *testing.T) {
	core := newBookingCore(t)
	core.addVehicle(t, "Sedan", 4)

	ctx := context.Background()
	res := newReservation("10:00", 2)
	require.NoError(t, core.service.Commit(ctx, res))

	blocked := core.service.Commit(ctx, newReservation("10:00", 2))
	require.Error(t, blocked)

	require.NoError(t, core.service.Cancel(ctx, res.ID))
	require.NoError(t, core.service.Commit(ctx, newReservation("10:00", 2)))
}

func TestCancel_SecondCancelReportsNotFound(t *testing.T) {
	core := newBookingCore(t)
	core.addVehicle(t, "Sedan", 4)

	ctx := context.Background()
	res := newReservation("10:00", 2)
	require.NoError(t, core.service.Commit(ctx, res))

	require.NoError(t, core.service.Cancel(ctx, res.ID))

	err := core.service.Cancel(ctx, res.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestCancel_UnknownReservation(t *testing.T) {
	core := newBookingCore(t)

	err := core.service.Cancel(context.Background(), "656e6f7567682062797465")
	require.Error(t, err)
}

func TestAvailabilityCommitConsistency(t *testing.T) {
	core := newBookingCore(t)
	core.addVehicle(t, "Sedan", 4)
	core.addVehicle(t, "Van", 7)

	ctx := context.Background()
	require.NoError(t, core.service.Commit(ctx, newReservation("09:00", 2)))
	require.NoError(t, core.service.Commit(ctx, newReservation("09:30", 6)))

	slots, err := core.availability.Query(ctx, testDate, 3, 150)
	require.NoError(t, err)

	// Every slot the engine reports must commit (or fail) accordingly.
	for _, slot := range slots {
		res := newReservation(slot.Time, 3)
		commitErr := core.service.Commit(ctx, res)
		if slot.Available {
			require.NoError(t, commitErr, "slot %s reported available", slot.Time)
			require.NoError(t, core.service.Cancel(ctx, res.ID))
		} else {
			require.Error(t, commitErr, "slot %s reported unavailable", slot.Time)
			assert.True(t, apperrors.HasCode(commitErr, apperrors.CodeNoAvailability))
		}
	}
}

// TestRandomizedScheduleInvariants hammers the resolver with a random
// commit/amend/cancel sequence and verifies the schedule invariants after
// every step: no overlapping rides per vehicle and no party exceeding its
// vehicle's capacity.
func TestRandomizedScheduleInvariants(t *testing.T) {
	core := newBookingCore(t)
	capacities := map[string]int{}
	for i, capacity := range []int{2, 4, 4, 7, 12} {
		v := core.addVehicle(t, fmt.Sprintf("Vehicle %d", i), capacity)
		capacities[v.ID] = capacity
	}

	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	var committed []string

	starts := []string{"08:00", "08:30", "09:00", "10:00", "11:30", "12:00", "14:00", "15:30", "17:00", "17:30"}

	for i := 0; i < 200; i++ {
		switch rng.Intn(3) {
		case 0: // commit
			res := newReservation(starts[rng.Intn(len(starts))], 1+rng.Intn(12))
			if err := core.service.Commit(ctx, res); err == nil {
				committed = append(committed, res.ID)
			} else if !apperrors.HasCode(err, apperrors.CodeNoAvailability) {
				t.Fatalf("unexpected commit error: %v", err)
			}
		case 1: // amend
			if len(committed) == 0 {
				continue
			}
			id := committed[rng.Intn(len(committed))]
			_, err := core.service.Amend(ctx, id, &model.ReservationUpdate{
				StartTime: starts[rng.Intn(len(starts))],
			})
			if err != nil &&
				!apperrors.HasCode(err, apperrors.CodeNoAvailability) &&
				!apperrors.HasCode(err, apperrors.CodeNotFound) {
				t.Fatalf("unexpected amend error: %v", err)
			}
		case 2: // cancel
			if len(committed) == 0 {
				continue
			}
			id := committed[rng.Intn(len(committed))]
			if err := core.service.Cancel(ctx, id); err != nil &&
				!apperrors.HasCode(err, apperrors.CodeNotFound) {
				t.Fatalf("unexpected cancel error: %v", err)
			}
		}

		assertScheduleInvariants(t, core, capacities)
	}
}

func assertScheduleInvariants(t *testing.T, core *bookingCore, capacities map[string]int) {
	t.Helper()

	active, err := core.reservations.FindActiveByDate(context.Background(), testDate)
	require.NoError(t, err)

	byVehicle := map[string][]*model.Reservation{}
	for _, res := range active {
		require.NotEmpty(t, res.VehicleID, "active reservation %s must be bound", res.ID)
		require.Equal(t, model.StatusConfirmed, res.Status)

		capacity, known := capacities[res.VehicleID]
		require.True(t, known, "reservation %s bound to unknown vehicle", res.ID)
		require.LessOrEqual(t, res.PartySize, capacity,
			"reservation %s party %d exceeds capacity %d", res.ID, res.PartySize, capacity)

		byVehicle[res.VehicleID] = append(byVehicle[res.VehicleID], res)
	}

	for vehicleID, rides := range byVehicle {
		for i := 0; i < len(rides); i++ {
			for j := i + 1; j < len(rides); j++ {
				a, errA := timegrid.ParseClock(rides[i].StartTime)
				require.NoError(t, errA)
				b, errB := timegrid.ParseClock(rides[j].StartTime)
				require.NoError(t, errB)

				require.False(t,
					timegrid.Overlaps(a, a+rides[i].DurationMin, b, b+rides[j].DurationMin),
					"vehicle %s double-booked: %s and %s", vehicleID, rides[i].StartTime, rides[j].StartTime)
			}
		}
	}
}
