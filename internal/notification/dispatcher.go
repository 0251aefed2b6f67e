// Package notification publishes appointment lifecycle events for the
// notification delivery service (email/WhatsApp reminders). Dispatch is
// fire-and-forget: a booking never fails because the broker is down.
package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/medagenda/api/internal/config"
	"github.com/medagenda/api/internal/domain/appointment"
	"github.com/medagenda/api/pkg/metrics"
)

const (
	EventBooked    = "appointment.booked"
	EventCancelled = "appointment.cancelled"
)

type Event struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	AppointmentID uint      `json:"appointment_id"`
	PatientID     uint      `json:"patient_id"`
	DoctorID      uint      `json:"doctor_id"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	OccurredAt    time.Time `json:"occurred_at"`
}

const dispatchBufferSize = 1_000

// Dispatcher buffers events and publishes them from a single worker.
// When the buffer is full the event is dropped and counted; delivery is
// best-effort by contract.
type Dispatcher struct {
	writer *kafka.Writer
	mx     *metrics.Collector
	log    *zap.Logger
	events chan Event
	done   chan struct{}
}

func NewDispatcher(cfg config.KafkaConfig, mx *metrics.Collector, log *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		mx:     mx,
		log:    log,
		events: make(chan Event, dispatchBufferSize),
		done:   make(chan struct{}),
	}

	if len(cfg.Brokers) > 0 {
		d.writer = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			BatchSize:    1,
			BatchTimeout: 10 * time.Millisecond,
		}
	} else {
		log.Warn("no kafka brokers configured, notification events will be logged and dropped")
	}

	go d.worker()
	return d
}

func (d *Dispatcher) AppointmentBooked(a *appointment.Appointment) {
	d.enqueue(EventBooked, a)
}

func (d *Dispatcher) AppointmentCancelled(a *appointment.Appointment) {
	d.enqueue(EventCancelled, a)
}

func (d *Dispatcher) enqueue(eventType string, a *appointment.Appointment) {
	ev := Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		AppointmentID: a.ID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		Date:          a.Date,
		Time:          a.Time,
		OccurredAt:    time.Now(),
	}

	select {
	case d.events <- ev:
	default:
		if d.mx != nil {
			d.mx.NotificationsDropped.Inc()
		}
		d.log.Warn("notification buffer full, dropping event",
			zap.String("type", eventType),
			zap.Uint("appointment_id", a.ID),
		)
	}
}

// Shutdown drains the buffer, waiting up to ten seconds.
func (d *Dispatcher) Shutdown() {
	close(d.events)
	select {
	case <-d.done:
	case <-time.After(10 * time.Second):
		d.log.Warn("notification dispatcher shutdown timed out; some events may be lost")
	}
	if d.writer != nil {
		_ = d.writer.Close()
	}
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for ev := range d.events {
		if d.writer == nil {
			d.log.Info("notification event (no broker)",
				zap.String("type", ev.Type),
				zap.Uint("appointment_id", ev.AppointmentID),
			)
			continue
		}

		payload, err := json.Marshal(ev)
		if err != nil {
			d.log.Error("failed to marshal notification event", zap.Error(err))
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = d.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(ev.ID),
			Value: payload,
			Headers: []kafka.Header{
				{Key: "event-type", Value: []byte(ev.Type)},
			},
		})
		cancel()

		if err != nil {
			d.log.Error("failed to publish notification event",
				zap.String("event_id", ev.ID),
				zap.String("type", ev.Type),
				zap.Error(err),
			)
			continue
		}

		if d.mx != nil {
			d.mx.NotificationsPublished.Inc()
		}
	}
}
