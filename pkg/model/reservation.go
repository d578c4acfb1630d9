package model

import (
	"time"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Service types are a customer-facing label. They are independent of party
// size and capacity; the resolver never reads them.
const (
	ServiceAirportTransfer = "airport_transfer"
	ServiceCorporateTravel = "corporate_travel"
	ServiceWedding         = "wedding"
	ServiceEventTransport  = "event_transport"
	ServiceLuxuryTour      = "luxury_tour"
)

// Reservation occupies one vehicle for [StartTime, StartTime+DurationMin)
// on Date. VehicleID is empty until the resolver binds the reservation at
// commit time; a non-cancelled reservation is never persisted unbound.
// Version increases monotonically on every update and backs optimistic
// concurrency checks.
type Reservation struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	VehicleID       string    `json:"vehicle_id,omitempty" bson:"vehicle_id,omitempty" validate:"omitempty,mongodb"`
	Date            string    `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	StartTime       string    `json:"start_time" bson:"start_time" validate:"required,clock"`
	DurationMin     int       `json:"duration_min" bson:"duration_min" validate:"required,min=1,max=720"`
	PartySize       int       `json:"party_size" bson:"party_size" validate:"required,min=1,max=64"`
	Status          string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled"`
	ServiceType     string    `json:"service_type,omitempty" bson:"service_type,omitempty" validate:"omitempty,oneof=airport_transfer corporate_travel wedding event_transport luxury_tour"`
	CustomerName    string    `json:"customer_name" bson:"customer_name" validate:"required,min=2,max=100"`
	CustomerEmail   string    `json:"customer_email" bson:"customer_email" validate:"required,email"`
	CustomerPhone   string    `json:"customer_phone,omitempty" bson:"customer_phone,omitempty" validate:"omitempty,e164"`
	PickupLocation  string    `json:"pickup_location,omitempty" bson:"pickup_location,omitempty" validate:"omitempty,max=200"`
	DropoffLocation string    `json:"dropoff_location,omitempty" bson:"dropoff_location,omitempty" validate:"omitempty,max=200"`
	SpecialRequests string    `json:"special_requests,omitempty" bson:"special_requests,omitempty" validate:"omitempty,max=500"`
	Version         int64     `json:"version" bson:"version"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty" validate:"omitempty"`
}

// ReservationUpdate carries an amend request. Empty strings and nil
// pointers mean "leave unchanged". Changing date, start time, duration or
// party size forces re-binding against the live schedule.
type ReservationUpdate struct {
	Date            string  `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StartTime       string  `json:"start_time,omitempty" validate:"omitempty,clock"`
	DurationMin     *int    `json:"duration_min,omitempty" validate:"omitempty,min=1,max=720"`
	PartySize       *int    `json:"party_size,omitempty" validate:"omitempty,min=1,max=64"`
	ServiceType     string  `json:"service_type,omitempty" validate:"omitempty,oneof=airport_transfer corporate_travel wedding event_transport luxury_tour"`
	CustomerName    string  `json:"customer_name,omitempty" validate:"omitempty,min=2,max=100"`
	CustomerEmail   string  `json:"customer_email,omitempty" validate:"omitempty,email"`
	CustomerPhone   string  `json:"customer_phone,omitempty" validate:"omitempty,e164"`
	PickupLocation  *string `json:"pickup_location,omitempty" validate:"omitempty"`
	DropoffLocation *string `json:"dropoff_location,omitempty" validate:"omitempty"`
	SpecialRequests *string `json:"special_requests,omitempty" validate:"omitempty"`
}

// RebindRequired reports whether the amend touches any scheduling field.
func (u *ReservationUpdate) RebindRequired() bool {
	return u.Date != "" || u.StartTime != "" || u.DurationMin != nil || u.PartySize != nil
}
