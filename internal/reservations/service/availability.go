package service

import (
	"context"
	"time"

	fleetservice "bondfleet/internal/fleet/service"
	"bondfleet/internal/reservations/repository"
	"bondfleet/pkg/config"
	apperrors "bondfleet/pkg/errors"
	"bondfleet/pkg/model"
	"bondfleet/pkg/timegrid"
)

const dateLayout = "2006-01-02"

type AvailabilityService interface {
	// Query returns one Slot per grid start time for the booking day,
	// marking each start as bookable or not for a party of partySize
	// occupying durationMin minutes.
	Query(ctx context.Context, date string, partySize int, durationMin int) ([]model.Slot, error)
}

type availabilityService struct {
	reservations repository.ReservationRepository
	fleet        fleetservice.VehicleService
	cfg          *config.Config
}

func NewAvailabilityService(
	reservations repository.ReservationRepository,
	fleet fleetservice.VehicleService,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		reservations: reservations,
		fleet:        fleet,
		cfg:          cfg,
	}
}

func (s *availabilityService) Query(ctx context.Context, date string, partySize int, durationMin int) ([]model.Slot, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}
	if durationMin <= 0 {
		durationMin = s.cfg.DefaultDurationMin
	}
	if partySize <= 0 {
		partySize = 1
	}

	open, close, err := s.dayWindow()
	if err != nil {
		return nil, err
	}

	starts, err := timegrid.Slots(open, close, s.cfg.SlotGranularityMin, durationMin)
	if err != nil {
		return nil, err
	}

	vehicles, err := s.fleet.ListEligible(ctx, partySize)
	if err != nil {
		return nil, err
	}

	existing, err := s.reservations.FindActiveByDate(ctx, date)
	if err != nil {
		return nil, apperrors.Persistence("Failed to load reservations", err)
	}

	busy, err := busyIntervals(existing, "")
	if err != nil {
		return nil, err
	}

	slots := make([]model.Slot, 0, len(starts))
	for _, start := range starts {
		slot := model.Slot{Time: timegrid.FormatClock(start)}

		if v := firstFreeVehicle(vehicles, busy, start, start+durationMin); v != nil {
			slot.Available = true
			slot.VehicleCapacity = v.Capacity
		}

		slots = append(slots, slot)
	}

	return slots, nil
}

func (s *availabilityService) dayWindow() (int, int, error) {
	open, err := timegrid.ParseClock(s.cfg.OpenOfDay)
	if err != nil {
		return 0, 0, apperrors.Internal("Invalid open-of-day configuration", err)
	}
	close, err := timegrid.ParseClock(s.cfg.CloseOfDay)
	if err != nil {
		return 0, 0, apperrors.Internal("Invalid close-of-day configuration", err)
	}
	return open, close, nil
}

// busyIntervals groups the occupied [start, end) minute intervals of the
// day by vehicle ID, skipping the reservation identified by excludeID.
// Amends exclude their own reservation so its old slot reads as free.
func busyIntervals(existing []*model.Reservation, excludeID string) (map[string][][2]int, error) {
	busy := make(map[string][][2]int)
	for _, res := range existing {
		if excludeID != "" && res.ID == excludeID {
			continue
		}
		if res.VehicleID == "" {
			continue
		}

		start, err := timegrid.ParseClock(res.StartTime)
		if err != nil {
			return nil, apperrors.Internal("Stored reservation has an invalid start time", err)
		}
		busy[res.VehicleID] = append(busy[res.VehicleID], [2]int{start, start + res.DurationMin})
	}
	return busy, nil
}

// firstFreeVehicle returns the first vehicle free over [start, end).
// Callers pass vehicles in tightest-fit order, so the first free vehicle
// is the binding choice.
func firstFreeVehicle(vehicles []*model.Vehicle, busy map[string][][2]int, start, end int) *model.Vehicle {
	for _, v := range vehicles {
		if vehicleFree(busy[v.ID], start, end) {
			return v
		}
	}
	return nil
}

func vehicleFree(intervals [][2]int, start, end int) bool {
	for _, iv := range intervals {
		if timegrid.Overlaps(start, end, iv[0], iv[1]) {
			return false
		}
	}
	return true
}
