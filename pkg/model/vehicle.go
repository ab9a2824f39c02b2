package model

import (
	"time"
)

type VehicleStatus string

const (
	VehicleActive  VehicleStatus = "active"
	VehicleRemoved VehicleStatus = "removed"
)

// Vehicle is an owner-listed rental vehicle. Removal is a lifecycle state,
// not a delete: the owner link stays intact so historical bookings remain
// auditable, and a removed vehicle is never listed or reservable again.
type Vehicle struct {
	ID         string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	OwnerID    string        `json:"owner_id" bson:"owner_id" validate:"required"`
	Make       string        `json:"make" bson:"make" validate:"required,min=1,max=60"`
	Model      string        `json:"model" bson:"model" validate:"required,min=1,max=60"`
	Year       int           `json:"year" bson:"year" validate:"required,min=1950,max=2100"`
	Location   string        `json:"location" bson:"location" validate:"required,min=2,max=80"`
	RatePerDay int64         `json:"rate_per_day" bson:"rate_per_day" validate:"required,gt=0"`
	Listed     bool          `json:"listed" bson:"listed"`
	Status     VehicleStatus `json:"status" bson:"status" validate:"omitempty,oneof=active removed"`
	CreatedAt  time.Time     `json:"created_at" bson:"created_at"`
}

// Reservable reports whether the vehicle can accept new bookings.
func (v *Vehicle) Reservable() bool {
	return v.Status == VehicleActive && v.Listed
}
