package service

import (
	"context"
	"errors"

	vehicleserrors "drivebay/internal/vehicles/errors"
	"drivebay/internal/vehicles/repository"
	"drivebay/internal/vehicles/validator"
	"drivebay/pkg/config"
	apperrors "drivebay/pkg/errors"
	"drivebay/pkg/model"
	"drivebay/pkg/sanitizer"
)

type VehicleService interface {
	// Add registers a vehicle for the acting owner. Make, model and
	// location are normalized before storage so search keys compare
	// predictably.
	Add(ctx context.Context, ownerID string, vehicle *model.Vehicle) (*model.Vehicle, error)

	GetByID(ctx context.Context, id string) (*model.Vehicle, error)
	ListByOwner(ctx context.Context, requesterID, ownerID string) ([]*model.Vehicle, error)

	// ToggleListing flips whether the vehicle appears in searches. Owner
	// only; existing bookings are untouched either way.
	ToggleListing(ctx context.Context, requesterID, vehicleID string, listed bool) (*model.Vehicle, error)

	// Remove retires a vehicle. Soft: history and owner link survive.
	Remove(ctx context.Context, requesterID, vehicleID string) error
}

type vehicleService struct {
	repo      repository.VehicleRepository
	validator *validator.VehicleValidator
	cfg       *config.Config
}

func NewVehicleService(repo repository.VehicleRepository, vehicleValidator *validator.VehicleValidator, cfg *config.Config) VehicleService {
	return &vehicleService{
		repo:      repo,
		validator: vehicleValidator,
		cfg:       cfg,
	}
}

func (s *vehicleService) Add(ctx context.Context, ownerID string, vehicle *model.Vehicle) (*model.Vehicle, error) {
	if ownerID == "" {
		return nil, apperrors.Unauthorized("acting principal is required")
	}

	vehicle.ID = ""
	vehicle.OwnerID = ownerID
	vehicle.Status = model.VehicleActive
	vehicle.Make = sanitizer.SanitizeNameOrLabel(vehicle.Make)
	vehicle.Model = sanitizer.SanitizeNameOrLabel(vehicle.Model)
	vehicle.Location = sanitizer.SanitizeCity(vehicle.Location)

	if err := s.validator.Validate(vehicle); err != nil {
		s.cfg.Log.Warn("Vehicle validation failed", "error", err)
		return nil, apperrors.Validation("Invalid vehicle", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, vehicle); err != nil {
		return nil, apperrors.Internal("Failed to create vehicle", err)
	}

	s.cfg.Log.Info("Vehicle added",
		"id", vehicle.ID,
		"owner_id", vehicle.OwnerID,
		"make", vehicle.Make,
		"model", vehicle.Model,
		"location", vehicle.Location,
	)
	return vehicle, nil
}

func (s *vehicleService) GetByID(ctx context.Context, id string) (*model.Vehicle, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Vehicle ID cannot be empty")
	}

	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapVehicleError(err, id)
	}
	return vehicle, nil
}

func (s *vehicleService) ListByOwner(ctx context.Context, requesterID, ownerID string) ([]*model.Vehicle, error) {
	if requesterID == "" || requesterID != ownerID {
		return nil, apperrors.Unauthorized("only the owner may list their vehicles")
	}

	vehicles, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Failed to retrieve vehicles", err)
	}
	return vehicles, nil
}

func (s *vehicleService) ToggleListing(ctx context.Context, requesterID, vehicleID string, listed bool) (*model.Vehicle, error) {
	vehicle, err := s.ownedVehicle(ctx, requesterID, vehicleID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateListed(ctx, vehicleID, listed); err != nil {
		return nil, mapVehicleError(err, vehicleID)
	}

	vehicle.Listed = listed
	s.cfg.Log.Info("Vehicle listing toggled", "id", vehicleID, "listed", listed)
	return vehicle, nil
}

func (s *vehicleService) Remove(ctx context.Context, requesterID, vehicleID string) error {
	if _, err := s.ownedVehicle(ctx, requesterID, vehicleID); err != nil {
		return err
	}

	if err := s.repo.SoftRemove(ctx, vehicleID); err != nil {
		return mapVehicleError(err, vehicleID)
	}

	s.cfg.Log.Info("Vehicle removed", "id", vehicleID)
	return nil
}

// ownedVehicle loads a live vehicle and checks the requester owns it.
func (s *vehicleService) ownedVehicle(ctx context.Context, requesterID, vehicleID string) (*model.Vehicle, error) {
	if requesterID == "" {
		return nil, apperrors.Unauthorized("acting principal is required")
	}

	vehicle, err := s.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.Status == model.VehicleRemoved {
		return nil, apperrors.NotFoundWithID("Vehicle", vehicleID)
	}
	if vehicle.OwnerID != requesterID {
		return nil, apperrors.Unauthorized("only the vehicle owner may modify it")
	}
	return vehicle, nil
}

func mapVehicleError(err error, id string) error {
	switch {
	case errors.Is(err, vehicleserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Vehicle", id)
	case errors.Is(err, vehicleserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid vehicle ID format")
	case apperrors.IsAppError(err):
		return err
	default:
		return apperrors.Internal("Vehicle storage operation failed", err)
	}
}