package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"bondfleet/pkg/config"
	"bondfleet/pkg/kafka"
	"bondfleet/pkg/logger"
	"bondfleet/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mu          sync.Mutex
	messages    []kafka.Message
	publishFunc func(ctx context.Context, msg kafka.Message) error
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	if m.publishFunc != nil {
		if err := m.publishFunc(ctx, msg); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockPublisher) published() []kafka.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]kafka.Message(nil), m.messages...)
}

func newDispatcherConfig(queueSize int) *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   logger.ERROR,
			Format:  logger.JSON,
			Service: "test",
		}),
		NotifyQueueSize:      queueSize,
		NotifyPublishTimeout: 5 * time.Second,
	}
}

func testReservation(id string) *model.Reservation {
	return &model.Reservation{
		ID:            id,
		VehicleID:     "65f000000000000000000001",
		Date:          "2026-10-05",
		StartTime:     "10:00",
		DurationMin:   150,
		PartySize:     2,
		Status:        model.StatusConfirmed,
		CustomerName:  "Tasha Green",
		CustomerEmail: "tasha@example.com",
	}
}

func TestDispatcher_PublishesLifecycleEvents(t *testing.T) {
	publisher := &mockPublisher{}
	d := NewDispatcher(publisher, newDispatcherConfig(16))

	res := testReservation("65f000000000000000000099")
	d.ReservationConfirmed(res)
	d.ReservationAmended(res)
	d.ReservationCancelled(res)
	d.Stop()

	messages := publisher.published()
	require.Len(t, messages, 3)

	assert.Equal(t, EventReservationConfirmed, messages[0].GetEventType())
	assert.Equal(t, EventReservationAmended, messages[1].GetEventType())
	assert.Equal(t, EventReservationCancelled, messages[2].GetEventType())

	for _, msg := range messages {
		assert.Equal(t, res.ID, msg.Key, "reservation id keys the partition")
		assert.NotEmpty(t, msg.GetEventID())

		var event Event
		require.NoError(t, msg.DecodeValue(&event))
		require.NotNil(t, event.Reservation)
		assert.Equal(t, res.ID, event.Reservation.ID)
		assert.Equal(t, res.CustomerEmail, event.Reservation.CustomerEmail)
	}
}

func TestDispatcher_DropsOnOverflow(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var startedOnce sync.Once
	publisher := &mockPublisher{
		publishFunc: func(ctx context.Context, msg kafka.Message) error {
			startedOnce.Do(func() { close(started) })
			<-release
			return nil
		},
	}

	d := NewDispatcher(publisher, newDispatcherConfig(1))

	// Worker blocks on the first event, the second fills the queue, the
	// third has nowhere to go and is dropped.
	d.ReservationConfirmed(testReservation("65f000000000000000000001"))
	<-started
	d.ReservationConfirmed(testReservation("65f000000000000000000002"))
	d.ReservationConfirmed(testReservation("65f000000000000000000003"))

	close(release)
	d.Stop()

	assert.Len(t, publisher.published(), 2)
}

func TestDispatcher_StopDrainsQueue(t *testing.T) {
	publisher := &mockPublisher{}
	d := NewDispatcher(publisher, newDispatcherConfig(64))

	for i := 0; i < 10; i++ {
		d.ReservationConfirmed(testReservation("65f0000000000000000000aa"))
	}
	d.Stop()

	assert.Len(t, publisher.published(), 10)
}

func TestDispatcher_StopIsIdempotent(t *testing.T) {
	d := NewDispatcher(&mockPublisher{}, newDispatcherConfig(1))
	d.Stop()
	d.Stop()
}
