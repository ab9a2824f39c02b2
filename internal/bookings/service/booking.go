package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "drivebay/internal/bookings/errors"
	"drivebay/internal/bookings/events"
	"drivebay/internal/bookings/repository"
	"drivebay/internal/bookings/validator"
	vehicleserrors "drivebay/internal/vehicles/errors"
	"drivebay/pkg/config"
	apperrors "drivebay/pkg/errors"
	"drivebay/pkg/model"
)

// lockPollInterval is how often a contended creator re-attempts the
// per-vehicle lock while waiting.
const lockPollInterval = 25 * time.Millisecond

// VehicleSource is the slice of the vehicle repository the reservation
// service needs.
type VehicleSource interface {
	FindByID(ctx context.Context, id string) (*model.Vehicle, error)
}

type BookingService interface {
	// Create atomically reserves a vehicle for an interval. The
	// availability re-check and the insert run inside one storage
	// transaction under a per-vehicle advisory lock, so two overlapping
	// requests can never both succeed.
	Create(ctx context.Context, renterID string, req *model.BookingRequest) (*model.Booking, error)

	// ChangeStatus applies one lifecycle transition on behalf of the
	// booking's owner.
	ChangeStatus(ctx context.Context, requesterID, bookingID string, newStatus model.BookingStatus) (*model.Booking, error)

	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListByRenter(ctx context.Context, renterID string, limit int, offset int64) ([]*model.Booking, int64, error)
	ListByOwner(ctx context.Context, requesterID, ownerID string) ([]*model.Booking, error)

	// IsAvailable is a non-authoritative availability hint: true iff no
	// non-cancelled booking overlaps the interval right now. Never use it
	// as the sole gate before a write; Create re-checks inside its
	// transaction.
	IsAvailable(ctx context.Context, vehicleID string, interval model.Interval) (bool, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.ReservationLockRepository
	vehicles  VehicleSource
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.ReservationLockRepository,
	vehicles VehicleSource,
	bookingValidator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		vehicles:  vehicles,
		validator: bookingValidator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, renterID string, req *model.BookingRequest) (*model.Booking, error) {
	if renterID == "" {
		return nil, apperrors.Unauthorized("acting principal is required")
	}
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Booking request validation failed", "error", err)
		return nil, apperrors.Validation("Invalid booking request", map[string]any{"error": err.Error()})
	}

	interval := req.Interval()
	if err := interval.Validate(); err != nil {
		return nil, err
	}

	vehicle, err := s.loadReservableVehicle(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}

	// Per-vehicle advisory lock: concurrent creators for the same vehicle
	// serialize here instead of racing the overlap check below.
	lockID, err := s.acquireVehicleLock(ctx, vehicle.ID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.lockRepo.Release(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release reservation lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	booking := &model.Booking{
		VehicleID: vehicle.ID,
		OwnerID:   vehicle.OwnerID,
		RenterID:  renterID,
		Interval:  interval,
		Price:     interval.DurationDays() * vehicle.RatePerDay,
		Status:    model.StatusPending,
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		overlapping, err := s.repo.FindOverlapping(sessCtx, vehicle.ID, interval)
		if err != nil {
			return apperrors.Internal("Failed to check vehicle availability", err)
		}
		if len(overlapping) > 0 {
			first := overlapping[0]
			return apperrors.Conflict(fmt.Sprintf(
				"Vehicle is not available: conflicts with an existing booking (%s - %s)",
				first.Interval.Start.Format("2006-01-02"),
				first.Interval.End.Format("2006-01-02"),
			))
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking",
			"vehicle_id", vehicle.ID,
			"renter_id", renterID,
			"error", err,
		)
		return nil, err
	}

	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"vehicle_id", booking.VehicleID,
		"renter_id", booking.RenterID,
		"pickup_date", interval.Start,
		"return_date", interval.End,
		"price", booking.Price,
	)
	s.publish(ctx, events.TypeBookingCreated, booking)

	return booking, nil
}

func (s *bookingService) ChangeStatus(ctx context.Context, requesterID, bookingID string, newStatus model.BookingStatus) (*model.Booking, error) {
	if requesterID == "" {
		return nil, apperrors.Unauthorized("acting principal is required")
	}

	booking, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.OwnerID != requesterID {
		return nil, apperrors.Unauthorized("only the vehicle owner may change a booking's status")
	}

	if !model.ValidStatus(newStatus) || !model.CanTransition(booking.Status, newStatus) {
		return nil, apperrors.InvalidTransition(string(booking.Status), string(newStatus))
	}

	err = s.repo.UpdateStatus(ctx, bookingID, booking.Status, newStatus)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrStatusChanged) {
			// Lost a transition race; report against the fresh status.
			fresh, ferr := s.GetByID(ctx, bookingID)
			if ferr != nil {
				return nil, ferr
			}
			return nil, apperrors.InvalidTransition(string(fresh.Status), string(newStatus))
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to update booking status", err)
	}

	booking.Status = newStatus
	s.cfg.Log.Info("Booking status changed",
		"id", booking.ID,
		"vehicle_id", booking.VehicleID,
		"status", newStatus,
	)
	s.publish(ctx, events.TypeBookingStatusChanged, booking)

	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) ListByRenter(ctx context.Context, renterID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if renterID == "" {
		return nil, 0, apperrors.Unauthorized("acting principal is required")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByRenter(ctx, renterID)
		if errCount != nil && !apperrors.IsAppError(errCount) {
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindByRenter(ctx, renterID, limit, offset)
		if errFind != nil && !apperrors.IsAppError(errFind) {
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) ListByOwner(ctx context.Context, requesterID, ownerID string) ([]*model.Booking, error) {
	if requesterID == "" || requesterID != ownerID {
		return nil, apperrors.Unauthorized("only the owner may list their bookings")
	}

	bookings, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Failed to retrieve owner bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) IsAvailable(ctx context.Context, vehicleID string, interval model.Interval) (bool, error) {
	if err := interval.Validate(); err != nil {
		return false, err
	}

	overlapping, err := s.repo.FindOverlapping(ctx, vehicleID, interval)
	if err != nil {
		if apperrors.IsAppError(err) {
			return false, err
		}
		return false, apperrors.Internal("Failed to check availability", err)
	}
	return len(overlapping) == 0, nil
}

// --- Helpers ---

func (s *bookingService) loadReservableVehicle(ctx context.Context, vehicleID string) (*model.Vehicle, error) {
	vehicle, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, vehicleserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Vehicle", vehicleID)
		}
		if errors.Is(err, vehicleserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid vehicle ID format")
		}
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Failed to load vehicle", err)
	}

	// A removed vehicle keeps its booking history but takes no new ones.
	if vehicle.Status == model.VehicleRemoved {
		return nil, apperrors.NotFoundWithID("Vehicle", vehicleID)
	}

	return vehicle, nil
}

// acquireVehicleLock takes the per-vehicle advisory lock, waiting briefly
// when contended so concurrent requests for non-overlapping intervals
// serialize instead of failing. Expired locks left by crashed holders are
// reaped in place; the TTL index is the backstop.
func (s *bookingService) acquireVehicleLock(ctx context.Context, vehicleID string) (string, error) {
	lockID := "vehicle_lock_" + vehicleID
	deadline := time.Now().Add(s.cfg.LockWaitTimeout)

	for {
		lock := &model.ReservationLock{
			ID:        lockID,
			ExpiresAt: time.Now().Add(s.cfg.LockTTL),
		}

		err := s.lockRepo.Acquire(ctx, lock)
		if err == nil {
			return lockID, nil
		}
		if !errors.Is(err, repository.ErrLockHeld) {
			return "", apperrors.Internal("Failed to acquire reservation lock", err)
		}

		existing, ferr := s.lockRepo.FindByID(ctx, lockID)
		if ferr == nil && existing != nil && time.Now().After(existing.ExpiresAt) {
			if rerr := s.lockRepo.ReapExpired(ctx, lockID, existing.ExpiresAt); rerr != nil {
				s.cfg.Log.Warn("Failed to reap expired reservation lock", "lock_id", lockID, "error", rerr)
			}
			continue
		}

		if time.Now().After(deadline) {
			return "", apperrors.Conflict("This vehicle is currently being reserved by another request. Please try again.")
		}

		select {
		case <-time.After(lockPollInterval):
		case <-ctx.Done():
			return "", apperrors.Unavailable("booking store", ctx.Err())
		}
	}
}

func (s *bookingService) publish(ctx context.Context, eventType string, booking *model.Booking) {
	evt := events.BookingEvent{
		Type:      eventType,
		BookingID: booking.ID,
		VehicleID: booking.VehicleID,
		OwnerID:   booking.OwnerID,
		RenterID:  booking.RenterID,
		Status:    booking.Status,
		At:        time.Now().UTC(),
	}
	if err := s.publisher.PublishBookingEvent(ctx, evt); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}
