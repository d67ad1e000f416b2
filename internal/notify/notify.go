// Package notify fans appointment lifecycle events out to interested parties
// (mail, push, downstream consumers). Delivery is best-effort: the scheduling
// core logs failures and never lets a notification block a booking.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Event names emitted by the scheduling engine.
const (
	EventAppointmentCreated     = "appointment.created"
	EventAppointmentConfirmed   = "appointment.confirmed"
	EventAppointmentCompleted   = "appointment.completed"
	EventAppointmentCancelled   = "appointment.cancelled"
	EventAppointmentRescheduled = "appointment.rescheduled"
)

// Event is one lifecycle notification.
type Event struct {
	Name          string
	AppointmentID string
	PatientID     string
	DoctorID      string
	Date          string
	Time          string
}

type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// LogNotifier writes events to the structured log. It stands in for a real
// delivery channel in development and tests.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, e Event) error {
	n.log.Info().
		Str("event", e.Name).
		Str("appointment_id", e.AppointmentID).
		Str("patient_id", e.PatientID).
		Str("doctor_id", e.DoctorID).
		Str("date", e.Date).
		Str("time", e.Time).
		Msg("notify")
	return nil
}

// Nop discards all events.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }
