package service

import (
	"context"
	"sync"

	"drivebay/internal/vehicles/repository"
	"drivebay/pkg/config"
	apperrors "drivebay/pkg/errors"
	"drivebay/pkg/model"
	"drivebay/pkg/sanitizer"
)

// AvailabilityChecker answers whether a single vehicle is free for an
// interval. Results are hints; the reservation path re-checks atomically.
type AvailabilityChecker interface {
	IsAvailable(ctx context.Context, vehicleID string, interval model.Interval) (bool, error)
}

// SearchRequest selects candidates by location and filters them by
// availability over the interval.
type SearchRequest struct {
	Location   string `json:"location"`
	PickupDate string `json:"pickup_date"`
	ReturnDate string `json:"return_date"`
}

// SkippedVehicle records a candidate dropped from results because its
// availability could not be determined. Callers can retry or surface it.
type SkippedVehicle struct {
	VehicleID string `json:"vehicle_id"`
	Reason    string `json:"reason"`
}

// SearchResult preserves candidate ordering: available vehicles appear in
// the same relative order the fleet query returned them.
type SearchResult struct {
	Available []*model.Vehicle `json:"available"`
	Skipped   []SkippedVehicle `json:"skipped,omitempty"`
}

type FleetService interface {
	// SearchAvailable returns the listed vehicles in a location that are
	// free for the interval. Per-vehicle check failures degrade gracefully:
	// the vehicle is reported as skipped, the rest of the search completes.
	SearchAvailable(ctx context.Context, location string, interval model.Interval) (*SearchResult, error)
}

type fleetService struct {
	vehicles repository.VehicleRepository
	checker  AvailabilityChecker
	cfg      *config.Config
}

func NewFleetService(vehicles repository.VehicleRepository, checker AvailabilityChecker, cfg *config.Config) FleetService {
	return &fleetService{
		vehicles: vehicles,
		checker:  checker,
		cfg:      cfg,
	}
}

func (s *fleetService) SearchAvailable(ctx context.Context, location string, interval model.Interval) (*SearchResult, error) {
	if err := interval.Validate(); err != nil {
		return nil, err
	}

	location = sanitizer.SanitizeCity(location)
	if location == "" {
		return nil, apperrors.InvalidInput("Location cannot be empty")
	}

	candidates, err := s.vehicles.FindListedByLocation(ctx, location)
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Failed to load fleet candidates", err)
	}

	result := &SearchResult{Available: []*model.Vehicle{}}
	if len(candidates) == 0 {
		return result, nil
	}

	// One check per candidate, concurrently; slots are positional so the
	// fleet query's ordering survives the fan-out.
	type slot struct {
		available bool
		err       error
	}
	slots := make([]slot, len(candidates))

	var wg sync.WaitGroup
	for i, vehicle := range candidates {
		wg.Add(1)
		go func(i int, vehicleID string) {
			defer wg.Done()
			available, err := s.checker.IsAvailable(ctx, vehicleID, interval)
			slots[i] = slot{available: available, err: err}
		}(i, vehicle.ID)
	}
	wg.Wait()

	for i, vehicle := range candidates {
		switch {
		case slots[i].err != nil:
			s.cfg.Log.Warn("Availability check failed during fleet search",
				"vehicle_id", vehicle.ID,
				"location", location,
				"error", slots[i].err,
			)
			result.Skipped = append(result.Skipped, SkippedVehicle{
				VehicleID: vehicle.ID,
				Reason:    "availability check failed",
			})
		case slots[i].available:
			result.Available = append(result.Available, vehicle)
		}
	}

	return result, nil
}