package intake

import (
	"context"

	"bondfleet/internal/reservations/service"
	apperrors "bondfleet/pkg/errors"
	"bondfleet/pkg/logger"
	"bondfleet/pkg/model"

	"github.com/google/uuid"
)

// State is one step of the booking intake flow.
type State string

const (
	StateCollectingDate    State = "collecting_date"
	StateCollectingService State = "collecting_service"
	StateCollectingTime    State = "collecting_time"
	StateCollectingDetails State = "collecting_details"
	StateConfirmed         State = "confirmed"
)

// Session is one customer's in-progress booking. Draft accumulates the
// reservation fields step by step; Committed is set once the final step
// commits through the conflict resolver.
type Session struct {
	ID        string             `json:"id"`
	State     State              `json:"state"`
	Draft     model.Reservation  `json:"draft"`
	Slots     []model.Slot       `json:"slots,omitempty"`
	Committed *model.Reservation `json:"committed,omitempty"`
}

// transition gates one step of the flow. ready reports whether the fields
// the step collects are present; missing is the user-facing list of what
// still blocks the step.
type transition struct {
	next    State
	ready   func(s *Session) bool
	missing string
}

var transitions = map[State]transition{
	StateCollectingDate: {
		next:    StateCollectingService,
		ready:   func(s *Session) bool { return s.Draft.Date != "" },
		missing: "date",
	},
	StateCollectingService: {
		next:    StateCollectingTime,
		ready:   func(s *Session) bool { return s.Draft.ServiceType != "" && s.Draft.PartySize > 0 },
		missing: "service_type, party_size",
	},
	StateCollectingTime: {
		next:    StateCollectingDetails,
		ready:   func(s *Session) bool { return s.Draft.StartTime != "" },
		missing: "start_time",
	},
	StateCollectingDetails: {
		next:    StateConfirmed,
		ready:   func(s *Session) bool { return s.Draft.CustomerName != "" && s.Draft.CustomerEmail != "" },
		missing: "customer_name, customer_email",
	},
}

// Wizard drives intake sessions through the step machine. It only touches
// the core at two points: an availability query entering the time step and
// a commit leaving the details step.
type Wizard struct {
	availability service.AvailabilityService
	reservations service.ReservationService
	log          *logger.Logger
}

func NewWizard(
	availability service.AvailabilityService,
	reservations service.ReservationService,
	log *logger.Logger,
) *Wizard {
	return &Wizard{
		availability: availability,
		reservations: reservations,
		log:          log,
	}
}

func (w *Wizard) NewSession() *Session {
	return &Session{
		ID:    uuid.New().String(),
		State: StateCollectingDate,
	}
}

// Apply merges step input into the session draft without advancing.
func (w *Wizard) Apply(s *Session, input *model.ReservationUpdate) {
	if input.Date != "" {
		s.Draft.Date = input.Date
	}
	if input.StartTime != "" {
		s.Draft.StartTime = input.StartTime
	}
	if input.DurationMin != nil {
		s.Draft.DurationMin = *input.DurationMin
	}
	if input.PartySize != nil {
		s.Draft.PartySize = *input.PartySize
	}
	if input.ServiceType != "" {
		s.Draft.ServiceType = input.ServiceType
	}
	if input.CustomerName != "" {
		s.Draft.CustomerName = input.CustomerName
	}
	if input.CustomerEmail != "" {
		s.Draft.CustomerEmail = input.CustomerEmail
	}
	if input.CustomerPhone != "" {
		s.Draft.CustomerPhone = input.CustomerPhone
	}
	if input.PickupLocation != nil {
		s.Draft.PickupLocation = *input.PickupLocation
	}
	if input.DropoffLocation != nil {
		s.Draft.DropoffLocation = *input.DropoffLocation
	}
	if input.SpecialRequests != nil {
		s.Draft.SpecialRequests = *input.SpecialRequests
	}
}

// Advance moves the session one state forward. Each step is gated by the
// presence of its fields; the time step additionally requires the chosen
// start time to be available, and the details step commits the draft.
func (w *Wizard) Advance(ctx context.Context, s *Session) error {
	if s.State == StateConfirmed {
		return apperrors.Conflict("Booking is already confirmed")
	}

	t, ok := transitions[s.State]
	if !ok {
		return apperrors.Internal("Unknown intake state", nil)
	}
	if !t.ready(s) {
		return apperrors.Validation("Step is missing required fields", map[string]any{
			"state":   string(s.State),
			"missing": t.missing,
		})
	}

	switch s.State {
	case StateCollectingService:
		// Entering the time step: fetch the slot grid the customer picks from.
		slots, err := w.availability.Query(ctx, s.Draft.Date, s.Draft.PartySize, s.Draft.DurationMin)
		if err != nil {
			return err
		}
		s.Slots = slots

	case StateCollectingTime:
		if !slotAvailable(s.Slots, s.Draft.StartTime) {
			return apperrors.NoAvailability("Selected start time is no longer available")
		}

	case StateCollectingDetails:
		committed := s.Draft
		if err := w.reservations.Commit(ctx, &committed); err != nil {
			return err
		}
		s.Committed = &committed
		w.log.Info("Intake session confirmed",
			"session_id", s.ID,
			"reservation_id", committed.ID,
		)
	}

	s.State = t.next
	return nil
}

func slotAvailable(slots []model.Slot, startTime string) bool {
	for _, slot := range slots {
		if slot.Time == startTime {
			return slot.Available
		}
	}
	return false
}
