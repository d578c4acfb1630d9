package notify

import (
	"time"

	"bondfleet/pkg/model"
)

// Event types carried on the reservation event stream. Downstream
// consumers (mailer, CRM sync) key their handling off these.
const (
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationAmended   = "reservation.amended"
	EventReservationCancelled = "reservation.cancelled"
)

// Notifier fans reservation lifecycle events out to interested consumers.
// Implementations must not block the caller; a failed or dropped
// notification never rolls back the reservation it describes.
type Notifier interface {
	ReservationConfirmed(res *model.Reservation)
	ReservationAmended(res *model.Reservation)
	ReservationCancelled(res *model.Reservation)
}

// Event is the payload published for each lifecycle transition.
type Event struct {
	Type        string             `json:"type"`
	OccurredAt  time.Time          `json:"occurred_at"`
	Reservation *model.Reservation `json:"reservation"`
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) ReservationConfirmed(*model.Reservation) {}
func (NopNotifier) ReservationAmended(*model.Reservation)   {}
func (NopNotifier) ReservationCancelled(*model.Reservation) {}
