package service

import (
	"context"
	"testing"
	"time"

	"bondfleet/internal/fleet/repository"
	"bondfleet/internal/fleet/validator"
	"bondfleet/pkg/config"
	apperrors "bondfleet/pkg/errors"
	"bondfleet/pkg/logger"
	"bondfleet/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) VehicleService {
	t.Helper()

	cfg := &config.Config{
		Log: logger.New(logger.Config{
			Level:   logger.ERROR,
			Format:  logger.JSON,
			Service: "test",
		}),
		MaxPartySize: 16,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	return NewVehicleService(
		repository.NewMemoryVehicleRepository(),
		validator.NewVehicleValidator(cfg.Log),
		cfg,
	)
}

func TestCreate_AssignsIDAndActivates(t *testing.T) {
	svc := newTestService(t)

	v := &model.Vehicle{Name: "Mercedes S-Class", Capacity: 3}
	require.NoError(t, svc.Create(context.Background(), v))

	assert.NotEmpty(t, v.ID)
	assert.True(t, v.Active)
}

func TestCreate_DuplicateNameConflicts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, &model.Vehicle{Name: "Mercedes S-Class", Capacity: 3}))

	err := svc.Create(ctx, &model.Vehicle{Name: "Mercedes S-Class", Capacity: 4})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestCreate_InvalidCapacityRejected(t *testing.T) {
	svc := newTestService(t)

	err := svc.Create(context.Background(), &model.Vehicle{Name: "Broken", Capacity: 0})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestListEligible_TightestFitOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	van := &model.Vehicle{Name: "Van", Capacity: 7}
	sedan := &model.Vehicle{Name: "Sedan", Capacity: 4}
	minibus := &model.Vehicle{Name: "Minibus", Capacity: 12}
	for _, v := range []*model.Vehicle{van, sedan, minibus} {
		require.NoError(t, svc.Create(ctx, v))
	}

	eligible, err := svc.ListEligible(ctx, 3)
	require.NoError(t, err)
	require.Len(t, eligible, 3)
	assert.Equal(t, sedan.ID, eligible[0].ID)
	assert.Equal(t, van.ID, eligible[1].ID)
	assert.Equal(t, minibus.ID, eligible[2].ID)

	eligible, err = svc.ListEligible(ctx, 5)
	require.NoError(t, err)
	require.Len(t, eligible, 2)
	assert.Equal(t, van.ID, eligible[0].ID)
}

func TestListEligible_PartySizeBounds(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ListEligible(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))

	_, err = svc.ListEligible(context.Background(), 17)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestDeactivate_ExcludesFromEligible(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sedan := &model.Vehicle{Name: "Sedan", Capacity: 4}
	require.NoError(t, svc.Create(ctx, sedan))
	require.NoError(t, svc.Deactivate(ctx, sedan.ID))

	eligible, err := svc.ListEligible(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, eligible)

	// The vehicle itself is still readable.
	got, err := svc.GetByID(ctx, sedan.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestGetByID_Unknown(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetByID(context.Background(), "65f000000000000000000000")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestUpdate_CapacityAffectsFutureEligibility(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sedan := &model.Vehicle{Name: "Sedan", Capacity: 4}
	require.NoError(t, svc.Create(ctx, sedan))

	seven := 7
	require.NoError(t, svc.Update(ctx, sedan.ID, &model.VehicleUpdate{Capacity: &seven}))

	eligible, err := svc.ListEligible(ctx, 6)
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, sedan.ID, eligible[0].ID)
}
