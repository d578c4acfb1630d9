package service

import (
	"context"
	"errors"

	fleeterrors "bondfleet/internal/fleet/errors"
	"bondfleet/internal/fleet/repository"
	"bondfleet/internal/fleet/validator"
	"bondfleet/pkg/config"
	apperrors "bondfleet/pkg/errors"
	"bondfleet/pkg/model"
	"bondfleet/pkg/sanitizer"
)

type VehicleService interface {
	Create(ctx context.Context, v *model.Vehicle) error
	GetByID(ctx context.Context, id string) (*model.Vehicle, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Vehicle, int64, error)
	Update(ctx context.Context, id string, updates *model.VehicleUpdate) error
	Deactivate(ctx context.Context, id string) error

	// ListEligible returns active vehicles able to seat partySize, in
	// tightest-fit order (smallest capacity first, ties by lowest ID).
	ListEligible(ctx context.Context, partySize int) ([]*model.Vehicle, error)
}

type vehicleService struct {
	repo      repository.VehicleRepository
	validator *validator.VehicleValidator
	cfg       *config.Config
}

func NewVehicleService(
	repo repository.VehicleRepository,
	validator *validator.VehicleValidator,
	cfg *config.Config,
) VehicleService {
	return &vehicleService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *vehicleService) Create(ctx context.Context, v *model.Vehicle) error {
	v.Name = sanitizer.NormalizeName(v.Name)
	v.Active = true

	if err := s.validator.Validate(v); err != nil {
		s.cfg.Log.Warn("Vehicle validation failed", "name", v.Name, "error", err)
		return apperrors.Validation("Vehicle validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByName(txCtx, v.Name)
		if err != nil && !errors.Is(err, fleeterrors.ErrNotFound) {
			return apperrors.Persistence("Failed to check for existing vehicles", err)
		}
		if existing != nil {
			return apperrors.Conflict("Vehicle with the same name already exists")
		}
		return s.repo.Create(txCtx, v)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create vehicle", "name", v.Name, "error", err)
		if apperrors.IsAppError(err) {
			return err
		}
		return apperrors.Persistence("Failed to create vehicle", err)
	}

	s.cfg.Log.Info("Vehicle created", "id", v.ID, "name", v.Name, "capacity", v.Capacity)
	return nil
}

func (s *vehicleService) GetByID(ctx context.Context, id string) (*model.Vehicle, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Vehicle ID cannot be empty")
	}

	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, fleeterrors.ErrInvalidID):
			return nil, apperrors.InvalidInput("Invalid vehicle ID format")
		case errors.Is(err, fleeterrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Vehicle", id)
		default:
			return nil, apperrors.Persistence("Failed to fetch vehicle", err)
		}
	}

	return v, nil
}

func (s *vehicleService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Vehicle, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	vehicles, err := s.repo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Persistence("Failed to list vehicles", err)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, apperrors.Persistence("Failed to count vehicles", err)
	}

	return vehicles, total, nil
}

func (s *vehicleService) Update(ctx context.Context, id string, updates *model.VehicleUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Vehicle ID cannot be empty")
	}

	if updates.Name != "" {
		updates.Name = sanitizer.NormalizeName(updates.Name)
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		return apperrors.Validation("Vehicle update validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		switch {
		case errors.Is(err, fleeterrors.ErrInvalidID):
			return apperrors.InvalidInput("Invalid vehicle ID format")
		case errors.Is(err, fleeterrors.ErrNotFound):
			return apperrors.NotFoundWithID("Vehicle", id)
		default:
			return apperrors.Persistence("Failed to update vehicle", err)
		}
	}

	s.cfg.Log.Info("Vehicle updated", "id", id)
	return nil
}

// Deactivate takes a vehicle out of future binding decisions. Committed
// reservations keep their assignment; only new binds skip the vehicle.
func (s *vehicleService) Deactivate(ctx context.Context, id string) error {
	inactive := false
	return s.Update(ctx, id, &model.VehicleUpdate{Active: &inactive})
}

func (s *vehicleService) ListEligible(ctx context.Context, partySize int) ([]*model.Vehicle, error) {
	if partySize < 1 {
		return nil, apperrors.InvalidInput("Party size must be at least 1")
	}
	if partySize > s.cfg.MaxPartySize {
		return nil, apperrors.Validation("Party size exceeds the maximum supported", map[string]any{
			"party_size": partySize,
			"max":        s.cfg.MaxPartySize,
		})
	}

	vehicles, err := s.repo.FindActiveByMinCapacity(ctx, partySize)
	if err != nil {
		return nil, apperrors.Persistence("Failed to list eligible vehicles", err)
	}
	return vehicles, nil
}
