package service

import (
	"context"
	"errors"
	"time"

	fleetservice "bondfleet/internal/fleet/service"
	"bondfleet/internal/notify"
	reservationerrors "bondfleet/internal/reservations/errors"
	"bondfleet/internal/reservations/repository"
	"bondfleet/internal/reservations/validator"
	"bondfleet/pkg/config"
	apperrors "bondfleet/pkg/errors"
	"bondfleet/pkg/model"
	"bondfleet/pkg/sanitizer"
	"bondfleet/pkg/timegrid"
)

type ReservationService interface {
	// Commit atomically checks availability and binds the reservation to
	// the tightest-fitting free vehicle, or fails with NO_AVAILABILITY.
	Commit(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	List(ctx context.Context, filter repository.ListFilter, limit int, offset int64) ([]*model.Reservation, int64, error)
	// Amend applies a partial update. Scheduling changes re-bind against
	// the live schedule, excluding the reservation's own slot; on failure
	// the original reservation is untouched.
	Amend(ctx context.Context, id string, updates *model.ReservationUpdate) (*model.Reservation, error)
	// Cancel frees the slot immediately. Cancelling an unknown or
	// already-cancelled reservation reports NOT_FOUND.
	Cancel(ctx context.Context, id string) error
}

type reservationService struct {
	repo      repository.ReservationRepository
	locks     repository.SlotLockRepository
	fleet     fleetservice.VehicleService
	validator *validator.ReservationValidator
	notifier  notify.Notifier
	cfg       *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	locks repository.SlotLockRepository,
	fleet fleetservice.VehicleService,
	validator *validator.ReservationValidator,
	notifier notify.Notifier,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		locks:     locks,
		fleet:     fleet,
		validator: validator,
		notifier:  notifier,
		cfg:       cfg,
	}
}

func (s *reservationService) Commit(ctx context.Context, res *model.Reservation) error {
	s.sanitize(res)
	s.applyDefaults(res)

	// Binding is the resolver's decision; ignore any client-supplied one.
	res.VehicleID = ""
	res.Status = model.StatusPending
	res.Version = 0

	if err := s.validator.Validate(res); err != nil {
		s.cfg.Log.Warn("Reservation validation failed",
			"date", res.Date,
			"start_time", res.StartTime,
			"error", err,
		)
		return apperrors.Validation("Reservation validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if res.PartySize > s.cfg.MaxPartySize {
		return apperrors.Validation("Party size exceeds the maximum supported", map[string]any{
			"party_size": res.PartySize,
			"max":        s.cfg.MaxPartySize,
		})
	}

	if err := s.checkGrid(res.StartTime, res.DurationMin); err != nil {
		return err
	}

	if err := s.acquireDay(ctx, res.Date); err != nil {
		return err
	}
	defer s.releaseDay(res.Date)

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		vehicle, err := s.resolveVehicle(txCtx, res.Date, res.StartTime, res.DurationMin, res.PartySize, "")
		if err != nil {
			return err
		}

		res.VehicleID = vehicle.ID
		res.Status = model.StatusConfirmed
		return s.repo.Create(txCtx, res)
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		s.cfg.Log.Error("Failed to commit reservation",
			"date", res.Date,
			"start_time", res.StartTime,
			"error", err,
		)
		return apperrors.Persistence("Failed to commit reservation", err)
	}

	s.cfg.Log.Info("Reservation committed",
		"id", res.ID,
		"vehicle_id", res.VehicleID,
		"date", res.Date,
		"start_time", res.StartTime,
		"party_size", res.PartySize,
	)
	s.notifier.ReservationConfirmed(res)
	return nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}

	return res, nil
}

func (s *reservationService) List(ctx context.Context, filter repository.ListFilter, limit int, offset int64) ([]*model.Reservation, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	reservations, err := s.repo.FindAll(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Persistence("Failed to list reservations", err)
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.Persistence("Failed to count reservations", err)
	}

	return reservations, total, nil
}

func (s *reservationService) Amend(ctx context.Context, id string, updates *model.ReservationUpdate) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		return nil, apperrors.Validation("Reservation update validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}
	if current.Status == model.StatusCancelled {
		return nil, apperrors.NotFoundWithID("Reservation", id)
	}

	merged := *current
	s.applyUpdates(&merged, updates)

	if merged.PartySize > s.cfg.MaxPartySize {
		return nil, apperrors.Validation("Party size exceeds the maximum supported", map[string]any{
			"party_size": merged.PartySize,
			"max":        s.cfg.MaxPartySize,
		})
	}

	if !updates.RebindRequired() {
		if err := s.repo.Update(ctx, id, current.Version, &merged); err != nil {
			return nil, s.mapUpdateError(err, id)
		}
		s.cfg.Log.Info("Reservation amended", "id", id, "rebind", false)
		s.notifier.ReservationAmended(&merged)
		return &merged, nil
	}

	if err := s.checkGrid(merged.StartTime, merged.DurationMin); err != nil {
		return nil, err
	}

	if err := s.acquireDay(ctx, merged.Date); err != nil {
		return nil, err
	}
	defer s.releaseDay(merged.Date)

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		vehicle, err := s.resolveVehicle(txCtx, merged.Date, merged.StartTime, merged.DurationMin, merged.PartySize, id)
		if err != nil {
			return err
		}

		merged.VehicleID = vehicle.ID
		merged.Status = model.StatusConfirmed
		return s.repo.Update(txCtx, id, current.Version, &merged)
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, s.mapUpdateError(err, id)
	}

	s.cfg.Log.Info("Reservation amended",
		"id", id,
		"rebind", true,
		"vehicle_id", merged.VehicleID,
		"date", merged.Date,
		"start_time", merged.StartTime,
	)
	s.notifier.ReservationAmended(&merged)
	return &merged, nil
}

func (s *reservationService) Cancel(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.mapLookupError(err, id)
	}
	if current.Status == model.StatusCancelled {
		return apperrors.NotFoundWithID("Reservation", id)
	}

	cancelled := *current
	cancelled.Status = model.StatusCancelled

	if err := s.repo.Update(ctx, id, current.Version, &cancelled); err != nil {
		return s.mapUpdateError(err, id)
	}

	s.cfg.Log.Info("Reservation cancelled", "id", id, "date", current.Date, "start_time", current.StartTime)
	s.notifier.ReservationCancelled(&cancelled)
	return nil
}

// resolveVehicle picks the tightest-fitting free vehicle for the slot, or
// fails with NO_AVAILABILITY. Runs inside the commit transaction so the
// re-check and the write are atomic.
func (s *reservationService) resolveVehicle(ctx context.Context, date, startTime string, durationMin, partySize int, excludeID string) (*model.Vehicle, error) {
	start, err := timegrid.ParseClock(startTime)
	if err != nil {
		return nil, apperrors.InvalidInput("Start time must be in HH:MM format")
	}

	vehicles, err := s.fleet.ListEligible(ctx, partySize)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindActiveByDate(ctx, date)
	if err != nil {
		return nil, apperrors.Persistence("Failed to load reservations", err)
	}

	busy, err := busyIntervals(existing, excludeID)
	if err != nil {
		return nil, err
	}

	vehicle := firstFreeVehicle(vehicles, busy, start, start+durationMin)
	if vehicle == nil {
		return nil, apperrors.NoAvailability("No vehicle available for the requested slot")
	}

	return vehicle, nil
}

// checkGrid rejects slots outside the booking window or off the grid.
func (s *reservationService) checkGrid(startTime string, durationMin int) error {
	start, err := timegrid.ParseClock(startTime)
	if err != nil {
		return apperrors.InvalidInput("Start time must be in HH:MM format")
	}

	open, err := timegrid.ParseClock(s.cfg.OpenOfDay)
	if err != nil {
		return apperrors.Internal("Invalid open-of-day configuration", err)
	}
	close, err := timegrid.ParseClock(s.cfg.CloseOfDay)
	if err != nil {
		return apperrors.Internal("Invalid close-of-day configuration", err)
	}

	if start < open || start+durationMin > close {
		return apperrors.InvalidRange("Requested slot falls outside the booking day")
	}
	if (start-open)%s.cfg.SlotGranularityMin != 0 {
		return apperrors.InvalidRange("Start time is not aligned to the slot grid")
	}

	return nil
}

func (s *reservationService) acquireDay(ctx context.Context, date string) error {
	if err := s.locks.Acquire(ctx, date); err != nil {
		if errors.Is(err, reservationerrors.ErrLockHeld) {
			return apperrors.Conflict("Another booking for this day is in progress, please retry")
		}
		return apperrors.Persistence("Failed to acquire booking-day lock", err)
	}
	return nil
}

func (s *reservationService) releaseDay(date string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.locks.Release(ctx, date); err != nil {
		// The TTL index reaps the orphaned lock.
		s.cfg.Log.Warn("Failed to release booking-day lock", "date", date, "error", err)
	}
}

func (s *reservationService) sanitize(res *model.Reservation) {
	res.CustomerName = sanitizer.NormalizeName(res.CustomerName)
	res.CustomerEmail = sanitizer.NormalizeEmail(res.CustomerEmail)
	res.CustomerPhone = sanitizer.NormalizePhone(res.CustomerPhone)
	res.PickupLocation = sanitizer.NormalizeLocation(res.PickupLocation)
	res.DropoffLocation = sanitizer.NormalizeLocation(res.DropoffLocation)
	res.SpecialRequests = sanitizer.TrimAndNormalize(res.SpecialRequests)
}

func (s *reservationService) applyDefaults(res *model.Reservation) {
	if res.DurationMin == 0 {
		res.DurationMin = s.cfg.DefaultDurationMin
	}
	if res.PartySize == 0 {
		res.PartySize = 1
	}
}

func (s *reservationService) applyUpdates(res *model.Reservation, updates *model.ReservationUpdate) {
	if updates.Date != "" {
		res.Date = updates.Date
	}
	if updates.StartTime != "" {
		res.StartTime = updates.StartTime
	}
	if updates.DurationMin != nil {
		res.DurationMin = *updates.DurationMin
	}
	if updates.PartySize != nil {
		res.PartySize = *updates.PartySize
	}
	if updates.ServiceType != "" {
		res.ServiceType = updates.ServiceType
	}
	if updates.CustomerName != "" {
		res.CustomerName = sanitizer.NormalizeName(updates.CustomerName)
	}
	if updates.CustomerEmail != "" {
		res.CustomerEmail = sanitizer.NormalizeEmail(updates.CustomerEmail)
	}
	if updates.CustomerPhone != "" {
		res.CustomerPhone = sanitizer.NormalizePhone(updates.CustomerPhone)
	}
	if updates.PickupLocation != nil {
		res.PickupLocation = sanitizer.NormalizeLocation(*updates.PickupLocation)
	}
	if updates.DropoffLocation != nil {
		res.DropoffLocation = sanitizer.NormalizeLocation(*updates.DropoffLocation)
	}
	if updates.SpecialRequests != nil {
		res.SpecialRequests = sanitizer.TrimAndNormalize(*updates.SpecialRequests)
	}
}

func (s *reservationService) mapLookupError(err error, id string) error {
	switch {
	case errors.Is(err, reservationerrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid reservation ID format")
	case errors.Is(err, reservationerrors.ErrNotFound):
		return apperrors.NotFoundWithID("Reservation", id)
	default:
		return apperrors.Persistence("Failed to fetch reservation", err)
	}
}

func (s *reservationService) mapUpdateError(err error, id string) error {
	switch {
	case errors.Is(err, reservationerrors.ErrVersionConflict):
		return apperrors.Conflict("Reservation was modified concurrently, please retry")
	case errors.Is(err, reservationerrors.ErrNotFound):
		return apperrors.NotFoundWithID("Reservation", id)
	default:
		return apperrors.Persistence("Failed to update reservation", err)
	}
}
