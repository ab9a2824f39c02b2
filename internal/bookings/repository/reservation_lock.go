package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"drivebay/pkg/config"
	"drivebay/pkg/model"
)

const LockCollectionName = "Reservation_locks"

// ReservationLockRepository manages the per-vehicle advisory locks that
// serialize booking creation. Acquire relies on the unique _id constraint:
// a duplicate-key error means the lock is held.
type ReservationLockRepository interface {
	Acquire(ctx context.Context, lock *model.ReservationLock) error
	FindByID(ctx context.Context, lockID string) (*model.ReservationLock, error)

	// ReapExpired deletes the lock only if it still carries the observed
	// expiry and that expiry has passed, so a fresh lock taken by someone
	// else is never removed.
	ReapExpired(ctx context.Context, lockID string, observedExpiry time.Time) error

	Release(ctx context.Context, lockID string) error
}

// ErrLockHeld is returned by Acquire when another request holds the lock.
var ErrLockHeld = errors.New("reservation lock is held")

type mongoReservationLockRepository struct {
	collection *mongo.Collection
}

func NewReservationLockRepository(cfg *config.Config) ReservationLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationLockRepository{
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoReservationLockRepository) Acquire(ctx context.Context, lock *model.ReservationLock) error {
	lock.CreatedAt = time.Now().UTC()

	_, err := r.collection.InsertOne(ctx, lock)
	if mongo.IsDuplicateKeyError(err) {
		return ErrLockHeld
	}
	return err
}

func (r *mongoReservationLockRepository) FindByID(ctx context.Context, lockID string) (*model.ReservationLock, error) {
	var lock model.ReservationLock
	err := r.collection.FindOne(ctx, bson.M{"_id": lockID}).Decode(&lock)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

func (r *mongoReservationLockRepository) ReapExpired(ctx context.Context, lockID string, observedExpiry time.Time) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":        lockID,
		"expires_at": observedExpiry,
	})
	return err
}

func (r *mongoReservationLockRepository) Release(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}
