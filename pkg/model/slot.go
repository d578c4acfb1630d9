package model

import "time"

// Slot is a derived, per-query availability answer for one start time on
// the day grid. Never persisted. VehicleCapacity, when set, is the
// smallest capacity among free eligible vehicles at this start time — a
// tightest-fit hint for the caller.
type Slot struct {
	Time            string `json:"time"`
	Available       bool   `json:"available"`
	VehicleCapacity int    `json:"vehicle_capacity,omitempty"`
}

// SlotLock is a short-lived advisory lock document serializing concurrent
// commit attempts for one booking day. Duplicate key on insert means
// another request holds the day.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
