package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	reservationerrors "bondfleet/internal/reservations/errors"
	mongotx "bondfleet/pkg/db/mongo"
	"bondfleet/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryReservationRepository is the in-memory reference implementation of
// the reservation store. A single transaction mutex serializes
// ExecuteTransaction bodies, giving the same check-then-write atomicity the
// Mongo implementation gets from session transactions.
type memoryReservationRepository struct {
	mu           sync.Mutex
	txMu         sync.Mutex
	reservations map[string]*model.Reservation
}

func NewMemoryReservationRepository() ReservationRepository {
	return &memoryReservationRepository{
		reservations: make(map[string]*model.Reservation),
	}
}

func (r *memoryReservationRepository) Create(_ context.Context, res *model.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if res.ID == "" {
		res.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	res.CreatedAt = now
	res.UpdatedAt = now
	if res.Version == 0 {
		res.Version = 1
	}

	clone := *res
	r.reservations[res.ID] = &clone
	return nil
}

func (r *memoryReservationRepository) FindByID(_ context.Context, id string) (*model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.reservations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", reservationerrors.ErrNotFound, id)
	}
	clone := *res
	return &clone, nil
}

func (r *memoryReservationRepository) FindAll(_ context.Context, filter ListFilter, limit int, offset int64) ([]*model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := r.filtered(filter)
	start := int(offset)
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}

	return matched[start:end], nil
}

func (r *memoryReservationRepository) FindActiveByDate(_ context.Context, date string) ([]*model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var active []*model.Reservation
	for _, res := range r.reservations {
		if res.Date == date && res.Status != model.StatusCancelled {
			clone := *res
			active = append(active, &clone)
		}
	}
	return active, nil
}

func (r *memoryReservationRepository) Update(_ context.Context, id string, expectedVersion int64, res *model.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.reservations[id]
	if !ok {
		return fmt.Errorf("%w: %s", reservationerrors.ErrNotFound, id)
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("%w: %s", reservationerrors.ErrVersionConflict, id)
	}

	clone := *res
	clone.ID = id
	clone.Version = expectedVersion + 1
	clone.CreatedAt = current.CreatedAt
	clone.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	r.reservations[id] = &clone

	res.Version = clone.Version
	res.UpdatedAt = clone.UpdatedAt
	return nil
}

func (r *memoryReservationRepository) Count(_ context.Context, filter ListFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.filtered(filter))), nil
}

func (r *memoryReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	return fn(ctx)
}

func (r *memoryReservationRepository) filtered(filter ListFilter) []*model.Reservation {
	var matched []*model.Reservation
	for _, res := range r.reservations {
		if !matches(res, filter) {
			continue
		}
		clone := *res
		matched = append(matched, &clone)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Date != matched[j].Date {
			return matched[i].Date < matched[j].Date
		}
		return matched[i].StartTime < matched[j].StartTime
	})
	return matched
}

func matches(res *model.Reservation, filter ListFilter) bool {
	if filter.Date != "" {
		if res.Date != filter.Date {
			return false
		}
	} else {
		if filter.FromDate != "" && res.Date < filter.FromDate {
			return false
		}
		if filter.ToDate != "" && res.Date > filter.ToDate {
			return false
		}
	}

	if filter.Status != "" && res.Status != filter.Status {
		return false
	}
	if filter.VehicleID != "" && res.VehicleID != filter.VehicleID {
		return false
	}
	return true
}

// memorySlotLockRepository is the in-memory advisory lock used alongside
// the in-memory store in tests.
type memorySlotLockRepository struct {
	mu    sync.Mutex
	ttl   time.Duration
	locks map[string]time.Time
}

func NewMemorySlotLockRepository(ttl time.Duration) SlotLockRepository {
	return &memorySlotLockRepository{
		ttl:   ttl,
		locks: make(map[string]time.Time),
	}
}

func (r *memorySlotLockRepository) Acquire(_ context.Context, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if expiry, held := r.locks[date]; held && time.Now().Before(expiry) {
		return fmt.Errorf("%w: %s", reservationerrors.ErrLockHeld, date)
	}

	r.locks[date] = time.Now().Add(r.ttl)
	return nil
}

func (r *memorySlotLockRepository) Release(_ context.Context, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.locks, date)
	return nil
}
