package model

import (
	"time"
)

// Vehicle is a schedulable unit of the fleet with a fixed passenger
// capacity. Capacity edits apply to future binding decisions only; they
// never invalidate reservations already committed.
type Vehicle struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name      string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Capacity  int       `json:"capacity" bson:"capacity" validate:"required,min=1,max=64"`
	Active    bool      `json:"active" bson:"active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type VehicleUpdate struct {
	Name     string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Capacity *int   `json:"capacity,omitempty" validate:"omitempty,min=1,max=64"`
	Active   *bool  `json:"active,omitempty"`
}
