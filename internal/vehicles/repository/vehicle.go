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

	vehicleserrors "drivebay/internal/vehicles/errors"
	"drivebay/pkg/config"
	mongodb "drivebay/pkg/db/mongo"
	"drivebay/pkg/model"
)

const (
	CollectionName = "Vehicles"
)

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *model.Vehicle) error
	FindByID(ctx context.Context, id string) (*model.Vehicle, error)
	FindByOwner(ctx context.Context, ownerID string) ([]*model.Vehicle, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)

	// FindListedByLocation returns the active, listed vehicles in a
	// location; these are the candidates for an availability search.
	FindListedByLocation(ctx context.Context, location string) ([]*model.Vehicle, error)

	UpdateListed(ctx context.Context, id string, listed bool) error

	// SoftRemove marks a vehicle removed. Its booking history stays intact
	// and the owner link survives for dashboard aggregation.
	SoftRemove(ctx context.Context, id string) error
}

type mongoVehicleRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	retry      mongodb.RetryPolicy
}

func NewMongoVehicleRepository(cfg *config.Config) VehicleRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoVehicleRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		retry: mongodb.RetryPolicy{
			Attempts: cfg.StorageRetryAttempts,
			Backoff:  cfg.StorageRetryBackoff,
			Log:      cfg.Log,
		},
	}
}

func (r *mongoVehicleRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithTimeout(ctx, time.Until(deadline))
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoVehicleRepository) Create(ctx context.Context, vehicle *model.Vehicle) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	vehicle.Status = model.VehicleActive
	vehicle.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, vehicle)
	if err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		vehicle.ID = oid.Hex()
	}
	return nil
}

func (r *mongoVehicleRepository) FindByID(ctx context.Context, id string) (*model.Vehicle, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", vehicleserrors.ErrInvalidID, id)
	}

	var vehicle model.Vehicle
	err = r.retry.Execute(ctx, "vehicles.FindByID", func(ctx context.Context) error {
		ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
		defer cancel()

		err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&vehicle)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return vehicleserrors.ErrNotFound
		}
		return err
	})
	if err != nil {
		if errors.Is(err, vehicleserrors.ErrNotFound) {
			return nil, vehicleserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find vehicle: %w", err)
	}

	return &vehicle, nil
}

func (r *mongoVehicleRepository) FindByOwner(ctx context.Context, ownerID string) ([]*model.Vehicle, error) {
	return r.find(ctx, "vehicles.FindByOwner", bson.M{
		"owner_id": ownerID,
		"status":   bson.M{"$ne": model.VehicleRemoved},
	})
}

func (r *mongoVehicleRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := r.retry.Execute(ctx, "vehicles.CountByOwner", func(ctx context.Context) error {
		ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
		defer cancel()

		var cerr error
		count, cerr = r.collection.CountDocuments(ctx, bson.M{
			"owner_id": ownerID,
			"status":   bson.M{"$ne": model.VehicleRemoved},
		})
		return cerr
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *mongoVehicleRepository) FindListedByLocation(ctx context.Context, location string) ([]*model.Vehicle, error) {
	return r.find(ctx, "vehicles.FindListedByLocation", bson.M{
		"location": location,
		"listed":   true,
		"status":   model.VehicleActive,
	})
}

func (r *mongoVehicleRepository) find(ctx context.Context, opName string, filter bson.M) ([]*model.Vehicle, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var vehicles []*model.Vehicle
	err := r.retry.Execute(ctx, opName, func(ctx context.Context) error {
		ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
		defer cancel()

		cursor, err := r.collection.Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)

		vehicles = nil
		return cursor.All(ctx, &vehicles)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicles: %w", err)
	}
	return vehicles, nil
}

func (r *mongoVehicleRepository) UpdateListed(ctx context.Context, id string, listed bool) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"listed": listed}})
}

func (r *mongoVehicleRepository) SoftRemove(ctx context.Context, id string) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{
		"status": model.VehicleRemoved,
		"listed": false,
	}})
}

func (r *mongoVehicleRepository) updateOne(ctx context.Context, id string, update bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", vehicleserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update vehicle: %w", err)
	}
	if result.MatchedCount == 0 {
		return vehicleserrors.ErrNotFound
	}
	return nil
}