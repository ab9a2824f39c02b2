package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "drivebay/internal/bookings/errors"
	mongodb "drivebay/pkg/db/mongo"
	"drivebay/internal/bookings/repository"
	"drivebay/internal/bookings/validator"
	vehicleserrors "drivebay/internal/vehicles/errors"
	"drivebay/pkg/config"
	apperrors "drivebay/pkg/errors"
	"drivebay/pkg/logger"
	"drivebay/pkg/model"
)

const (
	testVehicleID = "64b0c0ffee0000000000a001"
	testOwnerID   = "owner-1"
	testRenterID  = "renter-1"
)

// --- Mocks ---

type mockBookingRepo struct {
	mu       sync.Mutex
	bookings []*model.Booking
	nextID   int

	createFn          func(ctx context.Context, b *model.Booking) error
	findByIDFn        func(ctx context.Context, id string) (*model.Booking, error)
	findOverlappingFn func(ctx context.Context, vehicleID string, interval model.Interval) ([]*model.Booking, error)
	findByRenterFn    func(ctx context.Context, renterID string, limit int, offset int64) ([]*model.Booking, error)
	countByRenterFn   func(ctx context.Context, renterID string) (int64, error)
	findByOwnerFn     func(ctx context.Context, ownerID string) ([]*model.Booking, error)
	updateStatusFn    func(ctx context.Context, id string, from, to model.BookingStatus) error
}

func (m *mockBookingRepo) Create(ctx context.Context, b *model.Booking) error {
	if m.createFn != nil {
		return m.createFn(ctx, b)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	b.ID = string(rune('a'+m.nextID)) + "-booking"
	b.CreatedAt = time.Now()
	stored := *b
	m.bookings = append(m.bookings, &stored)
	return nil
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.ID == id {
			copied := *b
			return &copied, nil
		}
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepo) FindOverlapping(ctx context.Context, vehicleID string, interval model.Interval) ([]*model.Booking, error) {
	if m.findOverlappingFn != nil {
		return m.findOverlappingFn(ctx, vehicleID, interval)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.VehicleID == vehicleID && b.Status != model.StatusCancelled && b.Interval.Overlaps(interval) {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) FindByRenter(ctx context.Context, renterID string, limit int, offset int64) ([]*model.Booking, error) {
	if m.findByRenterFn != nil {
		return m.findByRenterFn(ctx, renterID, limit, offset)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.RenterID == renterID {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) CountByRenter(ctx context.Context, renterID string) (int64, error) {
	if m.countByRenterFn != nil {
		return m.countByRenterFn(ctx, renterID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.bookings {
		if b.RenterID == renterID {
			n++
		}
	}
	return n, nil
}

func (m *mockBookingRepo) FindByOwner(ctx context.Context, ownerID string) ([]*model.Booking, error) {
	if m.findByOwnerFn != nil {
		return m.findByOwnerFn(ctx, ownerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.OwnerID == ownerID {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, from, to)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.ID == id {
			if b.Status != from {
				return bookingserrors.ErrStatusChanged
			}
			b.Status = to
			return nil
		}
	}
	return bookingserrors.ErrStatusChanged
}

func (m *mockBookingRepo) ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

// mockLockRepo enforces real mutual exclusion so concurrent Create calls
// exercise the wait loop.
type mockLockRepo struct {
	mu    sync.Mutex
	locks map[string]*model.ReservationLock

	acquireFn func(ctx context.Context, lock *model.ReservationLock) error
}

func newMockLockRepo() *mockLockRepo {
	return &mockLockRepo{locks: make(map[string]*model.ReservationLock)}
}

func (m *mockLockRepo) Acquire(ctx context.Context, lock *model.ReservationLock) error {
	if m.acquireFn != nil {
		return m.acquireFn(ctx, lock)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[lock.ID]; held {
		return repository.ErrLockHeld
	}
	copied := *lock
	m.locks[lock.ID] = &copied
	return nil
}

func (m *mockLockRepo) FindByID(ctx context.Context, lockID string) (*model.ReservationLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.locks[lockID]; ok {
		copied := *l
		return &copied, nil
	}
	return nil, nil
}

func (m *mockLockRepo) ReapExpired(ctx context.Context, lockID string, observedExpiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.locks[lockID]; ok && l.ExpiresAt.Equal(observedExpiry) {
		delete(m.locks, lockID)
	}
	return nil
}

func (m *mockLockRepo) Release(ctx context.Context, lockID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, lockID)
	return nil
}

type mockVehicleSource struct {
	findByIDFn func(ctx context.Context, id string) (*model.Vehicle, error)
}

func (m *mockVehicleSource) FindByID(ctx context.Context, id string) (*model.Vehicle, error) {
	return m.findByIDFn(ctx, id)
}

// --- Fixtures ---

func testConfig() *config.Config {
	return &config.Config{
		Log:             logger.Discard(),
		LockTTL:         5 * time.Second,
		LockWaitTimeout: 500 * time.Millisecond,
	}
}

func activeVehicle(ratePerDay int64) *model.Vehicle {
	return &model.Vehicle{
		ID:         testVehicleID,
		OwnerID:    testOwnerID,
		Make:       "toyota",
		Model:      "corolla",
		RatePerDay: ratePerDay,
		Listed:     true,
		Status:     model.VehicleActive,
	}
}

func newTestService(repo *mockBookingRepo, locks *mockLockRepo, vehicles *mockVehicleSource) BookingService {
	cfg := testConfig()
	return NewBookingService(repo, locks, vehicles, validator.NewBookingValidator(cfg.Log), nil, cfg)
}

func day(n int) time.Time {
	return time.Date(2026, time.September, n, 0, 0, 0, 0, time.UTC)
}

func requestFor(start, end int) *model.BookingRequest {
	return &model.BookingRequest{
		VehicleID:  testVehicleID,
		PickupDate: day(start),
		ReturnDate: day(end),
	}
}

// --- Create ---

func TestCreateBooking(t *testing.T) {
	repo := &mockBookingRepo{}
	locks := newMockLockRepo()
	vehicles := &mockVehicleSource{findByIDFn: func(ctx context.Context, id string) (*model.Vehicle, error) {
		return activeVehicle(50), nil
	}}
	svc := newTestService(repo, locks, vehicles)

	booking, err := svc.Create(context.Background(), testRenterID, requestFor(1, 3))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if booking.ID == "" {
		t.Error("expected booking ID to be assigned")
	}
	if booking.Status != model.StatusPending {
		t.Errorf("Status = %q, want %q", booking.Status, model.StatusPending)
	}
	if booking.OwnerID != testOwnerID {
		t.Errorf("OwnerID = %q, want %q", booking.OwnerID, testOwnerID)
	}
	if booking.Price != 100 { // 2 days at 50/day
		t.Errorf("Price = %d, want 100", booking.Price)
	}

	locks.mu.Lock()
	held := len(locks.locks)
	locks.mu.Unlock()
	if held != 0 {
		t.Errorf("expected lock to be released, %d still held", held)
	}
}

func TestCreateBookingPricing(t *testing.T) {
	tests := []struct {
		name       string
		pickup     time.Time
		ret        time.Time
		ratePerDay int64
		wantPrice  int64
	}{
		{"two full days", day(1), day(3), 50, 100},
		{"partial day rounds up to one", day(1), day(1).Add(time.Hour), 50, 50},
		{"two days plus an hour rounds to three", day(1), day(3).Add(time.Hour), 40, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockBookingRepo{}
			vehicles := &mockVehicleSource{findByIDFn: func(ctx context.Context, id string) (*model.Vehicle, error) {
				return activeVehicle(tt.ratePerDay), nil
			}}
			svc := newTestService(repo, newMockLockRepo(), vehicles)

			booking, err := svc.Create(context.Background(), testRenterID, &model.BookingRequest{
				VehicleID:  testVehicleID,
				PickupDate: tt.pickup,
				ReturnDate: tt.ret,
			})
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if booking.Price != tt.wantPrice {
				t.Errorf("Price = %d, want %d", booking.Price, tt.wantPrice)
			}
		})
	}
}

func TestCreateBookingOverlapConflict(t *testing.T) {
	repo := &mockBookingRepo{}
	vehicles := &mockVehicleSource{findByIDFn: func(ctx context.Context, id string) (*model.Vehicle, error) {
		return activeVehicle(50), nil
	}}
	svc := newTestService(repo, newMockLockRepo(), vehicles)

	if _, err := svc.Create(context.Background(), testRenterID, requestFor(5, 10)); err != nil {
		t.Fatalf("seed Create() error = %v", err)
	}

	overlapping := []struct {
		name       string
		start, end int
	}{
		{"inside existing", 6, 8},
		{"straddles start", 3, 6},
		{"straddles end", 9, 12},
		{"touches end exactly", 10, 12},
	}
	for _, tt := range overlapping {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "renter-2", requestFor(tt.start, tt.end))
			assertAppErrorCode(t, err, apperrors.CodeConflict)
		})
	}

	// Adjacent but non-overlapping intervals are fine.
	if _, err := svc.Create(context.Background(), "renter-2", requestFor(11, 13)); err != nil {
		t.Errorf("non-overlapping Create() error = %v", err)
	}
}

func TestCreateBookingInvalidInterval(t *testing.T) {
	vehicles := &mockVehicleSource{findByIDFn: func(ctx context.Context, id string) (*model.Vehicle, error) {
		return activeVehicle(50), nil
	}}
	svc := newTestService(&mockBookingRepo{}, newMockLockRepo(), vehicles)

	// Return before pickup is rejected before any storage call.
	_, err := svc.Create(context.Background(), testRenterID, requestFor(5, 3))
	assertAppErrorCode(t, err, apperrors.CodeValidation)
}

func TestCreateBookingVehicleNotFound(t *testing.T) {
	vehicles := &mockVehicleSource{findByIDFn: func(ctx context.Context, id string) (*model.Vehicle, error) {
		return nil, vehicleserrors.ErrNotFound
	}}
	svc := newTestService(&mockBookingRepo{}, newMockLockRepo(), vehicles)

	_, err := svc.Create(context.Background(), testRenterID, requestFor(1, 3))
	assertAppErrorCode(t, err, apperrors.CodeNotFound)
}

func TestCreateBookingRemovedVehicle(t *testing.T) {
	vehicles := &mockVehicleSource{findByIDFn: func(ctx context.Context, id string) (*model.Vehicle, error) {
		v := activeVehicle(50)
		v.Status = model.VehicleRemoved
		return v, nil
	}}
	svc := newTestService(&mockBookingRepo{}, newMockLockRepo(), vehicles)

	_, err := svc.Create(context.Background(), testRenterID, requestFor(1, 3))
	assertAppErrorCode(t, err, apperrors.CodeNotFound)
}

func TestCreateBookingMissingActor(t *testing.T) {
	svc := newTestService(&mockBookingRepo{}, newMockLockRepo(), &mockVehicleSource{})

	_, err := svc.Create(context.Background(), "", requestFor(1, 3))
	assertAppErrorCode(t, err, apperrors.CodeUnauthorized)
}

// Two overlapping requests race for the same vehicle: exactly one wins, the
// other gets a conflict.
func TestCreateBookingConcurrentOverlapping(t *testing.T) {
	repo := &mockBookingRepo{}
	vehicles := &mockVehicleSource{findByIDFn: func(ctx context.Context, id string) (*model.Vehicle, error) {
		return activeVehicle(50), nil
	}}
	svc := newTestService(repo, newMockLockRepo(), vehicles)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), testRenterID, requestFor(1, 5))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case hasCode(err, apperrors.CodeConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Errorf("got %d successes and %d conflicts, want 1 and 1", successes, conflicts)
	}
}

// Two requests for the same vehicle but disjoint intervals contend on the
// lock yet both succeed.
func TestCreateBookingConcurrentDisjoint(t *testing.T) {
	repo := &mockBookingRepo{}
	vehicles := &mockVehicleSource{findByIDFn: func(ctx context.Context, id string) (*model.Vehicle, error) {
		return activeVehicle(50), nil
	}}
	svc := newTestService(repo, newMockLockRepo(), vehicles)

	intervals := [][2]int{{1, 3}, {10, 12}}
	results := make(chan error, len(intervals))
	var wg sync.WaitGroup
	for _, iv := range intervals {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			_, err := svc.Create(context.Background(), testRenterID, requestFor(start, end))
			results <- err
		}(iv[0], iv[1])
	}
	wg.Wait()
	close(results)

	for err := range results {
		if err != nil {
			t.Errorf("disjoint Create() error = %v", err)
		}
	}

	repo.mu.Lock()
	stored := len(repo.bookings)
	repo.mu.Unlock()
	if stored != 2 {
		t.Errorf("stored %d bookings, want 2", stored)
	}
}

// A crashed holder's expired lock must not block new reservations.
func TestCreateBookingReapsExpiredLock(t *testing.T) {
	repo := &mockBookingRepo{}
	locks := newMockLockRepo()
	locks.locks["vehicle_lock_"+testVehicleID] = &model.ReservationLock{
		ID:        "vehicle_lock_" + testVehicleID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	vehicles := &mockVehicleSource{findByIDFn: func(ctx context.Context, id string) (*model.Vehicle, error) {
		return activeVehicle(50), nil
	}}
	svc := newTestService(repo, locks, vehicles)

	if _, err := svc.Create(context.Background(), testRenterID, requestFor(1, 3)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestCreateBookingLockWaitTimeout(t *testing.T) {
	locks := newMockLockRepo()
	locks.locks["vehicle_lock_"+testVehicleID] = &model.ReservationLock{
		ID:        "vehicle_lock_" + testVehicleID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	vehicles := &mockVehicleSource{findByIDFn: func(ctx context.Context, id string) (*model.Vehicle, error) {
		return activeVehicle(50), nil
	}}
	svc := newTestService(&mockBookingRepo{}, locks, vehicles)

	_, err := svc.Create(context.Background(), testRenterID, requestFor(1, 3))
	assertAppErrorCode(t, err, apperrors.CodeConflict)
}

// --- ChangeStatus ---

func seedBooking(t *testing.T, repo *mockBookingRepo, status model.BookingStatus) *model.Booking {
	t.Helper()
	b := &model.Booking{
		VehicleID: testVehicleID,
		OwnerID:   testOwnerID,
		RenterID:  testRenterID,
		Interval:  model.Interval{Start: day(1), End: day(3)},
		Price:     100,
		Status:    status,
	}
	if err := repo.Create(context.Background(), b); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return b
}

func TestChangeStatusConfirm(t *testing.T) {
	repo := &mockBookingRepo{}
	booking := seedBooking(t, repo, model.StatusPending)
	svc := newTestService(repo, newMockLockRepo(), &mockVehicleSource{})

	updated, err := svc.ChangeStatus(context.Background(), testOwnerID, booking.ID, model.StatusConfirmed)
	if err != nil {
		t.Fatalf("ChangeStatus() error = %v", err)
	}
	if updated.Status != model.StatusConfirmed {
		t.Errorf("Status = %q, want %q", updated.Status, model.StatusConfirmed)
	}
}

func TestChangeStatusNonOwner(t *testing.T) {
	repo := &mockBookingRepo{}
	booking := seedBooking(t, repo, model.StatusPending)
	svc := newTestService(repo, newMockLockRepo(), &mockVehicleSource{})

	_, err := svc.ChangeStatus(context.Background(), "someone-else", booking.ID, model.StatusConfirmed)
	assertAppErrorCode(t, err, apperrors.CodeUnauthorized)
}

func TestChangeStatusInvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from model.BookingStatus
		to   model.BookingStatus
	}{
		{"cancelled is terminal", model.StatusCancelled, model.StatusPending},
		{"cancelled cannot confirm", model.StatusCancelled, model.StatusConfirmed},
		{"confirmed cannot revert", model.StatusConfirmed, model.StatusPending},
		{"same status rejected", model.StatusPending, model.StatusPending},
		{"unknown status rejected", model.StatusPending, model.BookingStatus("archived")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockBookingRepo{}
			booking := seedBooking(t, repo, tt.from)
			svc := newTestService(repo, newMockLockRepo(), &mockVehicleSource{})

			_, err := svc.ChangeStatus(context.Background(), testOwnerID, booking.ID, tt.to)
			assertAppErrorCode(t, err, apperrors.CodeInvalidTransition)
		})
	}
}

func TestChangeStatusNotFound(t *testing.T) {
	svc := newTestService(&mockBookingRepo{}, newMockLockRepo(), &mockVehicleSource{})

	_, err := svc.ChangeStatus(context.Background(), testOwnerID, "missing-id", model.StatusConfirmed)
	assertAppErrorCode(t, err, apperrors.CodeNotFound)
}

// A concurrent transition that lands first turns the CAS miss into an
// invalid-transition error against the fresh status.
func TestChangeStatusLostRace(t *testing.T) {
	repo := &mockBookingRepo{}
	booking := seedBooking(t, repo, model.StatusPending)
	calls := 0
	repo.updateStatusFn = func(ctx context.Context, id string, from, to model.BookingStatus) error {
		calls++
		repo.mu.Lock()
		repo.bookings[0].Status = model.StatusCancelled
		repo.mu.Unlock()
		return bookingserrors.ErrStatusChanged
	}
	svc := newTestService(repo, newMockLockRepo(), &mockVehicleSource{})

	_, err := svc.ChangeStatus(context.Background(), testOwnerID, booking.ID, model.StatusConfirmed)
	assertAppErrorCode(t, err, apperrors.CodeInvalidTransition)
	if calls != 1 {
		t.Errorf("UpdateStatus called %d times, want 1", calls)
	}
	if !strings.Contains(apperrors.AsAppError(err).Message, string(model.StatusCancelled)) {
		t.Errorf("error should name the fresh status, got %q", apperrors.AsAppError(err).Message)
	}
}

// Cancelling a booking frees its interval for new reservations.
func TestCancellationFreesInterval(t *testing.T) {
	repo := &mockBookingRepo{}
	vehicles := &mockVehicleSource{findByIDFn: func(ctx context.Context, id string) (*model.Vehicle, error) {
		return activeVehicle(50), nil
	}}
	svc := newTestService(repo, newMockLockRepo(), vehicles)

	first, err := svc.Create(context.Background(), testRenterID, requestFor(1, 5))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(context.Background(), "renter-2", requestFor(2, 4)); !hasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict before cancellation, got %v", err)
	}

	if _, err := svc.ChangeStatus(context.Background(), testOwnerID, first.ID, model.StatusCancelled); err != nil {
		t.Fatalf("ChangeStatus() error = %v", err)
	}

	if _, err := svc.Create(context.Background(), "renter-2", requestFor(2, 4)); err != nil {
		t.Errorf("Create() after cancellation error = %v", err)
	}
}

// --- Queries ---

func TestListByRenter(t *testing.T) {
	repo := &mockBookingRepo{}
	seedBooking(t, repo, model.StatusPending)
	seedBooking(t, repo, model.StatusConfirmed)
	svc := newTestService(repo, newMockLockRepo(), &mockVehicleSource{})

	bookings, total, err := svc.ListByRenter(context.Background(), testRenterID, 10, 0)
	if err != nil {
		t.Fatalf("ListByRenter() error = %v", err)
	}
	if total != 2 || len(bookings) != 2 {
		t.Errorf("got %d bookings (total %d), want 2", len(bookings), total)
	}
}

func TestListByOwnerRequiresOwner(t *testing.T) {
	repo := &mockBookingRepo{}
	seedBooking(t, repo, model.StatusPending)
	svc := newTestService(repo, newMockLockRepo(), &mockVehicleSource{})

	if _, err := svc.ListByOwner(context.Background(), "intruder", testOwnerID); !hasCode(err, apperrors.CodeUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}

	bookings, err := svc.ListByOwner(context.Background(), testOwnerID, testOwnerID)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(bookings) != 1 {
		t.Errorf("got %d bookings, want 1", len(bookings))
	}
}

func TestIsAvailable(t *testing.T) {
	repo := &mockBookingRepo{}
	vehicles := &mockVehicleSource{findByIDFn: func(ctx context.Context, id string) (*model.Vehicle, error) {
		return activeVehicle(50), nil
	}}
	svc := newTestService(repo, newMockLockRepo(), vehicles)

	if _, err := svc.Create(context.Background(), testRenterID, requestFor(5, 10)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	available, err := svc.IsAvailable(context.Background(), testVehicleID, model.Interval{Start: day(6), End: day(8)})
	if err != nil {
		t.Fatalf("IsAvailable() error = %v", err)
	}
	if available {
		t.Error("expected overlapping interval to be unavailable")
	}

	available, err = svc.IsAvailable(context.Background(), testVehicleID, model.Interval{Start: day(11), End: day(13)})
	if err != nil {
		t.Fatalf("IsAvailable() error = %v", err)
	}
	if !available {
		t.Error("expected disjoint interval to be available")
	}
}

// --- Assertion helpers ---

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %q, got nil", code)
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Errorf("error code = %q, want %q (message: %s)", appErr.Code, code, appErr.Message)
	}
}

func hasCode(err error, code string) bool {
	appErr := apperrors.AsAppError(err)
	return appErr != nil && appErr.Code == code
}
