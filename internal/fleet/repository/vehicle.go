package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	fleeterrors "bondfleet/internal/fleet/errors"
	"bondfleet/pkg/config"
	mongotx "bondfleet/pkg/db/mongo"
	"bondfleet/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Vehicles"
)

type mongoVehicleRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type VehicleRepository interface {
	Create(ctx context.Context, v *model.Vehicle) error
	FindByID(ctx context.Context, id string) (*model.Vehicle, error)
	FindByName(ctx context.Context, name string) (*model.Vehicle, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Vehicle, error)
	FindActiveByMinCapacity(ctx context.Context, minCapacity int) ([]*model.Vehicle, error)
	Update(ctx context.Context, id string, updates *model.VehicleUpdate) error
	Count(ctx context.Context) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoVehicleRepository(cfg *config.Config) VehicleRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoVehicleRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// SessionContext must pass through untouched or the transaction breaks.
func (r *mongoVehicleRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoVehicleRepository) Create(ctx context.Context, v *model.Vehicle) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	v.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, v)
	if err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		v.ID = oid.Hex()
	}
	return nil
}

func (r *mongoVehicleRepository) FindByID(ctx context.Context, id string) (*model.Vehicle, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", fleeterrors.ErrInvalidID, id)
	}

	var v model.Vehicle
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&v)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", fleeterrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find vehicle: %w", err)
	}

	return &v, nil
}

func (r *mongoVehicleRepository) FindByName(ctx context.Context, name string) (*model.Vehicle, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var v model.Vehicle
	err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&v)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", fleeterrors.ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to find vehicle by name: %w", err)
	}

	return &v, nil
}

func (r *mongoVehicleRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Vehicle, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer cursor.Close(ctx)

	var vehicles []*model.Vehicle
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, fmt.Errorf("failed to decode vehicles: %w", err)
	}

	return vehicles, nil
}

// FindActiveByMinCapacity returns active vehicles with capacity >= minCapacity,
// sorted by capacity ascending then _id ascending. The sort order is the
// tightest-fit order the conflict resolver binds in.
func (r *mongoVehicleRepository) FindActiveByMinCapacity(ctx context.Context, minCapacity int) ([]*model.Vehicle, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"active":   true,
		"capacity": bson.M{"$gte": minCapacity},
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "capacity", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible vehicles: %w", err)
	}
	defer cursor.Close(ctx)

	var vehicles []*model.Vehicle
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, fmt.Errorf("failed to decode eligible vehicles: %w", err)
	}

	return vehicles, nil
}

func (r *mongoVehicleRepository) Update(ctx context.Context, id string, updates *model.VehicleUpdate) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", fleeterrors.ErrInvalidID, id)
	}

	set := bson.M{}
	if updates.Name != "" {
		set["name"] = updates.Name
	}
	if updates.Capacity != nil {
		set["capacity"] = *updates.Capacity
	}
	if updates.Active != nil {
		set["active"] = *updates.Active
	}
	if len(set) == 0 {
		return nil
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update vehicle: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", fleeterrors.ErrNotFound, id)
	}

	return nil
}

func (r *mongoVehicleRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count vehicles: %w", err)
	}
	return count, nil
}

func (r *mongoVehicleRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
