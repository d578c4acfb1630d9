package repository

import (
	"context"
	"fmt"
	"time"

	reservationerrors "bondfleet/internal/reservations/errors"
	"bondfleet/pkg/config"
	"bondfleet/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	LockCollectionName = "Slot_locks"
)

// SlotLockRepository serializes commit attempts per booking day with an
// advisory lock document. The _id is the date, so a duplicate key error on
// insert means another request holds the day. A TTL index on expires_at
// reaps locks orphaned by a crashed process.
type SlotLockRepository interface {
	Acquire(ctx context.Context, date string) error
	Release(ctx context.Context, date string) error
}

type mongoSlotLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSlotLockRepository(cfg *config.Config) SlotLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoSlotLockRepository) Acquire(ctx context.Context, date string) error {
	now := time.Now().UTC()
	lock := model.SlotLock{
		ID:        date,
		ExpiresAt: now.Add(r.cfg.SlotLockTTL),
		CreatedAt: now,
	}

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", reservationerrors.ErrLockHeld, date)
		}
		return fmt.Errorf("failed to acquire slot lock for %s: %w", date, err)
	}

	return nil
}

func (r *mongoSlotLockRepository) Release(ctx context.Context, date string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": date})
	if err != nil {
		return fmt.Errorf("failed to release slot lock for %s: %w", date, err)
	}
	return nil
}
