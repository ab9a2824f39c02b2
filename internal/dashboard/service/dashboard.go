package service

import (
	"context"
	"sync"

	"drivebay/pkg/config"
	apperrors "drivebay/pkg/errors"
	"drivebay/pkg/model"
)

// recentBookingsLimit caps the recent-activity list on the summary.
const recentBookingsLimit = 3

// VehicleCounter is the slice of the vehicle repository the dashboard needs.
type VehicleCounter interface {
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
}

// BookingSource supplies an owner's bookings, newest first.
type BookingSource interface {
	FindByOwner(ctx context.Context, ownerID string) ([]*model.Booking, error)
}

type DashboardService interface {
	// Summarize aggregates an owner's fleet and booking activity. Owner
	// only; the two storage reads run concurrently.
	Summarize(ctx context.Context, requesterID, ownerID string) (*model.DashboardSummary, error)
}

type dashboardService struct {
	vehicles VehicleCounter
	bookings BookingSource
	cfg      *config.Config
}

func NewDashboardService(vehicles VehicleCounter, bookings BookingSource, cfg *config.Config) DashboardService {
	return &dashboardService{
		vehicles: vehicles,
		bookings: bookings,
		cfg:      cfg,
	}
}

func (s *dashboardService) Summarize(ctx context.Context, requesterID, ownerID string) (*model.DashboardSummary, error) {
	if requesterID == "" || requesterID != ownerID {
		return nil, apperrors.Unauthorized("only the owner may view their dashboard")
	}

	var vehicleCount int64
	var bookings []*model.Booking
	var errVehicles, errBookings error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		vehicleCount, errVehicles = s.vehicles.CountByOwner(ctx, ownerID)
	}()

	go func() {
		defer wg.Done()
		bookings, errBookings = s.bookings.FindByOwner(ctx, ownerID)
	}()

	wg.Wait()
	if errVehicles != nil {
		if apperrors.IsAppError(errVehicles) {
			return nil, errVehicles
		}
		return nil, apperrors.Internal("Failed to count vehicles", errVehicles)
	}
	if errBookings != nil {
		if apperrors.IsAppError(errBookings) {
			return nil, errBookings
		}
		return nil, apperrors.Internal("Failed to retrieve bookings", errBookings)
	}

	summary := &model.DashboardSummary{
		TotalVehicles:  vehicleCount,
		TotalBookings:  int64(len(bookings)),
		RecentBookings: []*model.Booking{},
	}

	for _, b := range bookings {
		switch b.Status {
		case model.StatusPending:
			summary.PendingBookings++
		case model.StatusConfirmed:
			summary.ConfirmedBookings++
			summary.MonthlyRevenue += b.Price
		}
	}

	// Bookings arrive sorted newest first; the head is the recent slice.
	limit := recentBookingsLimit
	if len(bookings) < limit {
		limit = len(bookings)
	}
	summary.RecentBookings = append(summary.RecentBookings, bookings[:limit]...)

	return summary, nil
}