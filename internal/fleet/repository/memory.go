package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	fleeterrors "bondfleet/internal/fleet/errors"
	mongotx "bondfleet/pkg/db/mongo"
	"bondfleet/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryVehicleRepository is an in-memory VehicleRepository used as the
// reference implementation in tests. Transactions are serialized under a
// single mutex, so the check-then-write sequences behave the same as the
// Mongo implementation under session transactions.
type memoryVehicleRepository struct {
	mu       sync.Mutex
	vehicles map[string]*model.Vehicle
}

func NewMemoryVehicleRepository() VehicleRepository {
	return &memoryVehicleRepository{
		vehicles: make(map[string]*model.Vehicle),
	}
}

func (r *memoryVehicleRepository) Create(_ context.Context, v *model.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v.ID == "" {
		v.ID = primitive.NewObjectID().Hex()
	}
	v.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	clone := *v
	r.vehicles[v.ID] = &clone
	return nil
}

func (r *memoryVehicleRepository) FindByID(_ context.Context, id string) (*model.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", fleeterrors.ErrNotFound, id)
	}
	clone := *v
	return &clone, nil
}

func (r *memoryVehicleRepository) FindByName(_ context.Context, name string) (*model.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, v := range r.vehicles {
		if strings.EqualFold(v.Name, name) {
			clone := *v
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", fleeterrors.ErrNotFound, name)
}

func (r *memoryVehicleRepository) FindAll(_ context.Context, limit int, offset int64) ([]*model.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.sortedByName()
	start := int(offset)
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}

	return all[start:end], nil
}

func (r *memoryVehicleRepository) FindActiveByMinCapacity(_ context.Context, minCapacity int) ([]*model.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var eligible []*model.Vehicle
	for _, v := range r.vehicles {
		if v.Active && v.Capacity >= minCapacity {
			clone := *v
			eligible = append(eligible, &clone)
		}
	}

	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].Capacity != eligible[j].Capacity {
			return eligible[i].Capacity < eligible[j].Capacity
		}
		return eligible[i].ID < eligible[j].ID
	})

	return eligible, nil
}

func (r *memoryVehicleRepository) Update(_ context.Context, id string, updates *model.VehicleUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.vehicles[id]
	if !ok {
		return fmt.Errorf("%w: %s", fleeterrors.ErrNotFound, id)
	}

	if updates.Name != "" {
		v.Name = updates.Name
	}
	if updates.Capacity != nil {
		v.Capacity = *updates.Capacity
	}
	if updates.Active != nil {
		v.Active = *updates.Active
	}
	return nil
}

func (r *memoryVehicleRepository) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.vehicles)), nil
}

// ExecuteTransaction runs fn directly. The per-repository mutex is not held
// across fn; callers rely on the advisory slot lock for mutual exclusion,
// mirroring the Mongo implementation.
func (r *memoryVehicleRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

func (r *memoryVehicleRepository) sortedByName() []*model.Vehicle {
	all := make([]*model.Vehicle, 0, len(r.vehicles))
	for _, v := range r.vehicles {
		clone := *v
		all = append(all, &clone)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	})
	return all
}
