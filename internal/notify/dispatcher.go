package notify

import (
	"context"
	"sync"
	"time"

	"bondfleet/pkg/config"
	"bondfleet/pkg/kafka"
	"bondfleet/pkg/logger"
	"bondfleet/pkg/model"
)

// Publisher is the slice of the Kafka producer the dispatcher needs.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// Dispatcher publishes reservation events asynchronously through a bounded
// queue. When the queue is full the event is dropped and logged; the
// booking flow never waits on the broker.
type Dispatcher struct {
	publisher      Publisher
	queue          chan Event
	publishTimeout time.Duration
	log            *logger.Logger
	wg             sync.WaitGroup
	stopOnce       sync.Once
}

func NewDispatcher(publisher Publisher, cfg *config.Config) *Dispatcher {
	d := &Dispatcher{
		publisher:      publisher,
		queue:          make(chan Event, cfg.NotifyQueueSize),
		publishTimeout: cfg.NotifyPublishTimeout,
		log:            cfg.Log,
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) ReservationConfirmed(res *model.Reservation) {
	d.enqueue(EventReservationConfirmed, res)
}

func (d *Dispatcher) ReservationAmended(res *model.Reservation) {
	d.enqueue(EventReservationAmended, res)
}

func (d *Dispatcher) ReservationCancelled(res *model.Reservation) {
	d.enqueue(EventReservationCancelled, res)
}

func (d *Dispatcher) enqueue(eventType string, res *model.Reservation) {
	clone := *res
	event := Event{
		Type:        eventType,
		OccurredAt:  time.Now().UTC(),
		Reservation: &clone,
	}

	select {
	case d.queue <- event:
	default:
		d.log.Warn("Notification queue full, dropping event",
			"event_type", eventType,
			"reservation_id", res.ID,
		)
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for event := range d.queue {
		d.publish(event)
	}
}

func (d *Dispatcher) publish(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.publishTimeout)
	defer cancel()

	msg := kafka.NewMessage().
		WithKey(event.Reservation.ID).
		WithValue(event).
		WithEventType(event.Type).
		WithSource("bondfleet-reservations").
		Build()

	if err := d.publisher.Publish(ctx, msg); err != nil {
		d.log.Error("Failed to publish reservation event",
			"event_type", event.Type,
			"reservation_id", event.Reservation.ID,
			"error", err,
		)
		return
	}

	d.log.Debug("Reservation event published",
		"event_type", event.Type,
		"reservation_id", event.Reservation.ID,
	)
}

// Stop drains queued events and waits for the worker to exit.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}
