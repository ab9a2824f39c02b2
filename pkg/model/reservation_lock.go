package model

import "time"

// ReservationLock is a per-vehicle advisory lock document. Its unique _id
// insert is the mutual-exclusion primitive that serializes the availability
// re-check and insert of concurrent booking attempts on one vehicle. The TTL
// index on expires_at reaps locks abandoned by crashed holders.
type ReservationLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
