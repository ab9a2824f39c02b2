package model

import (
	"time"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// allowedTransitions is the closed transition table for the booking
// lifecycle. Cancelled is terminal; same-state transitions are rejected.
var allowedTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
	StatusCancelled: {},
}

// ValidStatus reports whether s is a member of the closed status enum.
func ValidStatus(s BookingStatus) bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransition reports whether from -> to is an allowed lifecycle move.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// BookingRequest is the inbound shape of a reservation attempt. The renter
// identity comes from the request context, never the body.
type BookingRequest struct {
	VehicleID  string    `json:"vehicle_id" validate:"required,mongodb"`
	PickupDate time.Time `json:"pickup_date" validate:"required"`
	ReturnDate time.Time `json:"return_date" validate:"required,gtfield=PickupDate"`
}

func (r *BookingRequest) Interval() Interval {
	return Interval{Start: r.PickupDate, End: r.ReturnDate}
}

// StatusChangeRequest is the inbound shape of a lifecycle transition.
type StatusChangeRequest struct {
	Status BookingStatus `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}

// Booking is a reservation of one vehicle over an interval. Bookings are
// created only through the reservation service and are never deleted; a
// cancelled booking stays on record as freed capacity.
type Booking struct {
	ID        string        `json:"id,omitempty" bson:"_id,omitempty"`
	VehicleID string        `json:"vehicle_id" bson:"vehicle_id"`
	OwnerID   string        `json:"owner_id" bson:"owner_id"`
	RenterID  string        `json:"renter_id" bson:"renter_id"`
	Interval  Interval      `json:"interval" bson:",inline"`
	Price     int64         `json:"price" bson:"price"`
	Status    BookingStatus `json:"status" bson:"status"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
}
