package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingserrors "drivebay/internal/bookings/errors"
	"drivebay/pkg/config"
	mongodb "drivebay/pkg/db/mongo"
	"drivebay/pkg/model"
)

const (
	CollectionName = "Bookings"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)

	// FindOverlapping returns the non-cancelled bookings of a vehicle whose
	// interval shares at least one day with the given one. Authoritative
	// only when called with a transaction SessionContext.
	FindOverlapping(ctx context.Context, vehicleID string, interval model.Interval) ([]*model.Booking, error)

	FindByRenter(ctx context.Context, renterID string, limit int, offset int64) ([]*model.Booking, error)
	CountByRenter(ctx context.Context, renterID string) (int64, error)
	FindByOwner(ctx context.Context, ownerID string) ([]*model.Booking, error)

	// UpdateStatus is conditional on the current status so two racing
	// transitions cannot both apply.
	UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus) error

	ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongodb.TransactionManager
	retry      mongodb.RetryPolicy
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongodb.NewTransactionManager(cfg.Client.Mongo),
		retry: mongodb.RetryPolicy{
			Attempts: cfg.StorageRetryAttempts,
			Backoff:  cfg.StorageRetryBackoff,
			Log:      cfg.Log,
		},
	}
}

// withTimeout wraps the context with a timeout unless already inside a
// transaction; a SessionContext cannot be wrapped without breaking
// transaction semantics.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithTimeout(ctx, time.Until(deadline))
	}
	return context.WithTimeout(ctx, timeout)
}

// inTransaction reports whether ctx is a transaction session; retries are
// left to the transaction manager in that case.
func inTransaction(ctx context.Context) bool {
	_, ok := ctx.(mongo.SessionContext)
	return ok
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.retry.Execute(ctx, "bookings.FindByID", func(ctx context.Context) error {
		ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
		defer cancel()

		err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return bookingserrors.ErrNotFound
		}
		return err
	})
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindOverlapping(ctx context.Context, vehicleID string, interval model.Interval) ([]*model.Booking, error) {
	// Inclusive day bounds: pickup <= requested return AND return >=
	// requested pickup.
	filter := bson.M{
		"vehicle_id":  vehicleID,
		"pickup_date": bson.M{"$lte": interval.End},
		"return_date": bson.M{"$gte": interval.Start},
		"status":      bson.M{"$ne": model.StatusCancelled},
	}

	find := func(ctx context.Context) ([]*model.Booking, error) {
		ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
		defer cancel()

		cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "pickup_date", Value: 1}}))
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)

		var bookings []*model.Booking
		if err := cursor.All(ctx, &bookings); err != nil {
			return nil, err
		}
		return bookings, nil
	}

	if inTransaction(ctx) {
		bookings, err := find(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to find overlapping bookings: %w", err)
		}
		return bookings, nil
	}

	var bookings []*model.Booking
	err := r.retry.Execute(ctx, "bookings.FindOverlapping", func(ctx context.Context) error {
		var ferr error
		bookings, ferr = find(ctx)
		return ferr
	})
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *mongoBookingRepository) FindByRenter(ctx context.Context, renterID string, limit int, offset int64) ([]*model.Booking, error) {
	return r.findSorted(ctx, "bookings.FindByRenter", bson.M{"renter_id": renterID}, limit, offset)
}

func (r *mongoBookingRepository) CountByRenter(ctx context.Context, renterID string) (int64, error) {
	var count int64
	err := r.retry.Execute(ctx, "bookings.CountByRenter", func(ctx context.Context) error {
		ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
		defer cancel()

		var cerr error
		count, cerr = r.collection.CountDocuments(ctx, bson.M{"renter_id": renterID})
		return cerr
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *mongoBookingRepository) FindByOwner(ctx context.Context, ownerID string) ([]*model.Booking, error) {
	return r.findSorted(ctx, "bookings.FindByOwner", bson.M{"owner_id": ownerID}, 0, 0)
}

func (r *mongoBookingRepository) findSorted(ctx context.Context, opName string, filter bson.M, limit int, offset int64) ([]*model.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit)).SetSkip(offset)
	}

	var bookings []*model.Booking
	err := r.retry.Execute(ctx, opName, func(ctx context.Context) error {
		ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
		defer cancel()

		cursor, err := r.collection.Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)

		bookings = nil
		return cursor.All(ctx, &bookings)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "status": from},
		bson.M{"$set": bson.M{"status": to}},
	)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	if result.MatchedCount == 0 {
		// Either the booking is gone or its status moved under us.
		return bookingserrors.ErrStatusChanged
	}

	return nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
