package service

import (
	"context"
	"sync"
	"testing"
	"time"

	vehicleserrors "drivebay/internal/vehicles/errors"
	"drivebay/internal/vehicles/validator"
	"drivebay/pkg/config"
	apperrors "drivebay/pkg/errors"
	"drivebay/pkg/logger"
	"drivebay/pkg/model"
)

const testOwnerID = "owner-1"

type mockVehicleRepo struct {
	mu       sync.Mutex
	vehicles []*model.Vehicle
	nextID   int

	createFn       func(ctx context.Context, v *model.Vehicle) error
	findByIDFn     func(ctx context.Context, id string) (*model.Vehicle, error)
	updateListedFn func(ctx context.Context, id string, listed bool) error
}

func (m *mockVehicleRepo) Create(ctx context.Context, v *model.Vehicle) error {
	if m.createFn != nil {
		return m.createFn(ctx, v)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	v.ID = string(rune('a'+m.nextID)) + "-vehicle"
	v.CreatedAt = time.Now()
	stored := *v
	m.vehicles = append(m.vehicles, &stored)
	return nil
}

func (m *mockVehicleRepo) FindByID(ctx context.Context, id string) (*model.Vehicle, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.vehicles {
		if v.ID == id {
			copied := *v
			return &copied, nil
		}
	}
	return nil, vehicleserrors.ErrNotFound
}

func (m *mockVehicleRepo) FindByOwner(ctx context.Context, ownerID string) ([]*model.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Vehicle
	for _, v := range m.vehicles {
		if v.OwnerID == ownerID && v.Status != model.VehicleRemoved {
			copied := *v
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockVehicleRepo) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	vehicles, _ := m.FindByOwner(ctx, ownerID)
	return int64(len(vehicles)), nil
}

func (m *mockVehicleRepo) FindListedByLocation(ctx context.Context, location string) ([]*model.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Vehicle
	for _, v := range m.vehicles {
		if v.Location == location && v.Reservable() {
			copied := *v
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockVehicleRepo) UpdateListed(ctx context.Context, id string, listed bool) error {
	if m.updateListedFn != nil {
		return m.updateListedFn(ctx, id, listed)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.vehicles {
		if v.ID == id {
			v.Listed = listed
			return nil
		}
	}
	return vehicleserrors.ErrNotFound
}

func (m *mockVehicleRepo) SoftRemove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.vehicles {
		if v.ID == id {
			v.Status = model.VehicleRemoved
			v.Listed = false
			return nil
		}
	}
	return vehicleserrors.ErrNotFound
}

func newTestService(repo *mockVehicleRepo) VehicleService {
	cfg := &config.Config{Log: logger.Discard()}
	return NewVehicleService(repo, validator.NewVehicleValidator(cfg.Log), cfg)
}

func sampleVehicle() *model.Vehicle {
	return &model.Vehicle{
		Make:       " Toyota ",
		Model:      "Corolla XLE",
		Year:       2022,
		Location:   "San Francisco",
		RatePerDay: 50,
		Listed:     true,
	}
}

func TestAddVehicle(t *testing.T) {
	repo := &mockVehicleRepo{}
	svc := newTestService(repo)

	added, err := svc.Add(context.Background(), testOwnerID, sampleVehicle())
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if added.ID == "" {
		t.Error("expected vehicle ID to be assigned")
	}
	if added.OwnerID != testOwnerID {
		t.Errorf("OwnerID = %q, want %q", added.OwnerID, testOwnerID)
	}
	if added.Status != model.VehicleActive {
		t.Errorf("Status = %q, want %q", added.Status, model.VehicleActive)
	}
	if added.Make != "toyota" {
		t.Errorf("Make = %q, want sanitized %q", added.Make, "toyota")
	}
	if added.Model != "corolla_xle" {
		t.Errorf("Model = %q, want sanitized %q", added.Model, "corolla_xle")
	}
	if added.Location != "san_francisco" {
		t.Errorf("Location = %q, want sanitized %q", added.Location, "san_francisco")
	}
}

func TestAddVehicleValidation(t *testing.T) {
	svc := newTestService(&mockVehicleRepo{})

	tests := []struct {
		name   string
		mutate func(*model.Vehicle)
	}{
		{"missing make", func(v *model.Vehicle) { v.Make = "" }},
		{"zero rate", func(v *model.Vehicle) { v.RatePerDay = 0 }},
		{"negative rate", func(v *model.Vehicle) { v.RatePerDay = -10 }},
		{"implausible year", func(v *model.Vehicle) { v.Year = 1800 }},
		{"missing location", func(v *model.Vehicle) { v.Location = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vehicle := sampleVehicle()
			tt.mutate(vehicle)
			_, err := svc.Add(context.Background(), testOwnerID, vehicle)
			assertAppErrorCode(t, err, apperrors.CodeValidation)
		})
	}
}

func TestAddVehicleIgnoresClientOwner(t *testing.T) {
	repo := &mockVehicleRepo{}
	svc := newTestService(repo)

	vehicle := sampleVehicle()
	vehicle.OwnerID = "spoofed-owner"
	added, err := svc.Add(context.Background(), testOwnerID, vehicle)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if added.OwnerID != testOwnerID {
		t.Errorf("OwnerID = %q, want acting principal %q", added.OwnerID, testOwnerID)
	}
}

func TestToggleListing(t *testing.T) {
	repo := &mockVehicleRepo{}
	svc := newTestService(repo)

	added, err := svc.Add(context.Background(), testOwnerID, sampleVehicle())
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	updated, err := svc.ToggleListing(context.Background(), testOwnerID, added.ID, false)
	if err != nil {
		t.Fatalf("ToggleListing() error = %v", err)
	}
	if updated.Listed {
		t.Error("expected vehicle to be unlisted")
	}

	// Non-owner cannot touch the listing.
	_, err = svc.ToggleListing(context.Background(), "intruder", added.ID, true)
	assertAppErrorCode(t, err, apperrors.CodeUnauthorized)
}

func TestRemoveVehicle(t *testing.T) {
	repo := &mockVehicleRepo{}
	svc := newTestService(repo)

	added, err := svc.Add(context.Background(), testOwnerID, sampleVehicle())
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := svc.Remove(context.Background(), testOwnerID, added.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	// Soft removal: the record survives with removed status.
	vehicle, err := svc.GetByID(context.Background(), added.ID)
	if err != nil {
		t.Fatalf("GetByID() after remove error = %v", err)
	}
	if vehicle.Status != model.VehicleRemoved {
		t.Errorf("Status = %q, want %q", vehicle.Status, model.VehicleRemoved)
	}
	if vehicle.Reservable() {
		t.Error("removed vehicle must not be reservable")
	}

	// A removed vehicle cannot be modified further.
	_, err = svc.ToggleListing(context.Background(), testOwnerID, added.ID, true)
	assertAppErrorCode(t, err, apperrors.CodeNotFound)
	err = svc.Remove(context.Background(), testOwnerID, added.ID)
	assertAppErrorCode(t, err, apperrors.CodeNotFound)
}

func TestRemoveVehicleNonOwner(t *testing.T) {
	repo := &mockVehicleRepo{}
	svc := newTestService(repo)

	added, err := svc.Add(context.Background(), testOwnerID, sampleVehicle())
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	err = svc.Remove(context.Background(), "intruder", added.ID)
	assertAppErrorCode(t, err, apperrors.CodeUnauthorized)
}

func TestListByOwner(t *testing.T) {
	repo := &mockVehicleRepo{}
	svc := newTestService(repo)

	first, _ := svc.Add(context.Background(), testOwnerID, sampleVehicle())
	if _, err := svc.Add(context.Background(), testOwnerID, sampleVehicle()); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, err := svc.Add(context.Background(), "other-owner", sampleVehicle()); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	vehicles, err := svc.ListByOwner(context.Background(), testOwnerID, testOwnerID)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(vehicles) != 2 {
		t.Fatalf("got %d vehicles, want 2", len(vehicles))
	}

	// Removed vehicles drop out of the owner's fleet view.
	if err := svc.Remove(context.Background(), testOwnerID, first.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	vehicles, err = svc.ListByOwner(context.Background(), testOwnerID, testOwnerID)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(vehicles) != 1 {
		t.Errorf("got %d vehicles after removal, want 1", len(vehicles))
	}

	_, err = svc.ListByOwner(context.Background(), "intruder", testOwnerID)
	assertAppErrorCode(t, err, apperrors.CodeUnauthorized)
}

func TestGetByIDNotFound(t *testing.T) {
	svc := newTestService(&mockVehicleRepo{})

	_, err := svc.GetByID(context.Background(), "missing")
	assertAppErrorCode(t, err, apperrors.CodeNotFound)
}

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