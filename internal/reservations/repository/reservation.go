package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	reservationerrors "bondfleet/internal/reservations/errors"
	"bondfleet/pkg/config"
	mongotx "bondfleet/pkg/db/mongo"
	"bondfleet/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Reservations"
)

// ListFilter narrows reservation listings. Zero values mean "no filter".
// Date wins over FromDate/ToDate when both are set.
type ListFilter struct {
	Date      string
	FromDate  string
	ToDate    string
	Status    string
	VehicleID string
}

type mongoReservationRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type ReservationRepository interface {
	Create(ctx context.Context, res *model.Reservation) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	FindAll(ctx context.Context, filter ListFilter, limit int, offset int64) ([]*model.Reservation, error)
	FindActiveByDate(ctx context.Context, date string) ([]*model.Reservation, error)
	Update(ctx context.Context, id string, expectedVersion int64, res *model.Reservation) error
	Count(ctx context.Context, filter ListFilter) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoReservationRepository(cfg *config.Config) ReservationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// SessionContext must pass through untouched or the transaction breaks.
func (r *mongoReservationRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoReservationRepository) Create(ctx context.Context, res *model.Reservation) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	res.CreatedAt = now
	res.UpdatedAt = now
	if res.Version == 0 {
		res.Version = 1
	}

	result, err := r.collection.InsertOne(ctx, res)
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		res.ID = oid.Hex()
	}
	return nil
}

func (r *mongoReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", reservationerrors.ErrInvalidID, id)
	}

	var res model.Reservation
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&res)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", reservationerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}

	return &res, nil
}

func (r *mongoReservationRepository) FindAll(ctx context.Context, filter ListFilter, limit int, offset int64) ([]*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{
			{Key: "date", Value: 1},
			{Key: "start_time", Value: 1},
		})

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var reservations []*model.Reservation
	if err := cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}

	return reservations, nil
}

// FindActiveByDate returns every non-cancelled reservation on the booking
// day. This is the working set the availability engine and the conflict
// resolver overlap-check against.
func (r *mongoReservationRepository) FindActiveByDate(ctx context.Context, date string) ([]*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"date":   date,
		"status": bson.M{"$ne": model.StatusCancelled},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load reservations for date %s: %w", date, err)
	}
	defer cursor.Close(ctx)

	var reservations []*model.Reservation
	if err := cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations for date %s: %w", date, err)
	}

	return reservations, nil
}

// Update replaces the mutable fields of a reservation, guarded by an
// optimistic version check. MatchedCount of zero with an existing document
// means a concurrent writer advanced the version first.
func (r *mongoReservationRepository) Update(ctx context.Context, id string, expectedVersion int64, res *model.Reservation) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", reservationerrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":     objectID,
		"version": expectedVersion,
	}
	update := bson.M{
		"$set": bson.M{
			"vehicle_id":       res.VehicleID,
			"date":             res.Date,
			"start_time":       res.StartTime,
			"duration_min":     res.DurationMin,
			"party_size":       res.PartySize,
			"status":           res.Status,
			"service_type":     res.ServiceType,
			"customer_name":    res.CustomerName,
			"customer_email":   res.CustomerEmail,
			"customer_phone":   res.CustomerPhone,
			"pickup_location":  res.PickupLocation,
			"dropoff_location": res.DropoffLocation,
			"special_requests": res.SpecialRequests,
			"updated_at":       time.Now().UTC().Truncate(time.Millisecond),
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}

	if result.MatchedCount == 0 {
		count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
		if countErr == nil && count > 0 {
			return fmt.Errorf("%w: %s", reservationerrors.ErrVersionConflict, id)
		}
		return fmt.Errorf("%w: %s", reservationerrors.ErrNotFound, id)
	}

	res.Version = expectedVersion + 1
	return nil
}

func (r *mongoReservationRepository) Count(ctx context.Context, filter ListFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count reservations: %w", err)
	}
	return count, nil
}

func (r *mongoReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func buildFilter(filter ListFilter) bson.M {
	query := bson.M{}

	switch {
	case filter.Date != "":
		query["date"] = filter.Date
	case filter.FromDate != "" && filter.ToDate != "":
		query["date"] = bson.M{"$gte": filter.FromDate, "$lte": filter.ToDate}
	case filter.FromDate != "":
		query["date"] = bson.M{"$gte": filter.FromDate}
	case filter.ToDate != "":
		query["date"] = bson.M{"$lte": filter.ToDate}
	}

	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.VehicleID != "" {
		query["vehicle_id"] = filter.VehicleID
	}

	return query
}
