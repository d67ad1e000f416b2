// Package scheduling owns the appointment state machine. Every business rule
// about who may move an appointment where lives here; the HTTP surface only
// authenticates and translates, the store only persists.
package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"meditrip-api/internal/apperr"
	"meditrip-api/internal/model"
	"meditrip-api/internal/notify"
)

// Store is the persistence the engine needs. Implementations must enforce
// slot uniqueness across live appointments (returning a SlotConflict error)
// and conditional writes on the version column (returning
// apperr.ErrVersionConflict when the expected version no longer matches).
type Store interface {
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	ListForPatient(ctx context.Context, patientID string) ([]model.Appointment, error)
	ListForDoctor(ctx context.Context, doctorID string) ([]model.Appointment, error)
	UpdateAppointment(ctx context.Context, a *model.Appointment, expectedVersion int64) error
}

// Engine enforces the appointment state machine and its permission rules.
type Engine struct {
	store    Store
	notifier notify.Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func New(store Store, notifier notify.Notifier, log zerolog.Logger) *Engine {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Engine{store: store, notifier: notifier, log: log, now: time.Now}
}

// CreateRequest carries a booking. PatientID comes from the authenticated
// identity, never from the request body.
type CreateRequest struct {
	PatientID       string
	DoctorID        string
	Date            string
	Time            string
	DurationMinutes int
	Type            string
	ConsultationFee int64
	Notes           string
	Symptoms        string
	MedicalHistory  string
}

// CreateAppointment books a slot. The store's uniqueness constraint is the
// authoritative double-booking guard; there is no pre-check racing it.
func (e *Engine) CreateAppointment(ctx context.Context, req CreateRequest) (*model.Appointment, error) {
	if req.PatientID == "" {
		return nil, apperr.New(apperr.Validation, "patient is required")
	}
	if req.DoctorID == "" {
		return nil, apperr.New(apperr.Validation, "doctor_id is required")
	}
	if req.DoctorID == req.PatientID {
		return nil, apperr.New(apperr.Validation, "cannot book an appointment with yourself")
	}
	if err := e.validateSlot(req.Date, req.Time); err != nil {
		return nil, err
	}
	if req.DurationMinutes < 0 {
		return nil, apperr.New(apperr.Validation, "duration must be positive")
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = model.DefaultDurationMinutes
	}
	if req.Type == "" {
		req.Type = model.DefaultAppointmentType
	}
	if req.ConsultationFee < 0 {
		return nil, apperr.New(apperr.Validation, "consultation_fee must not be negative")
	}

	a := &model.Appointment{
		ID:              uuid.New().String(),
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
		Type:            req.Type,
		Status:          model.StatusScheduled,
		ConsultationFee: req.ConsultationFee,
		Notes:           req.Notes,
		Symptoms:        req.Symptoms,
		MedicalHistory:  req.MedicalHistory,
	}
	if err := e.store.CreateAppointment(ctx, a); err != nil {
		return nil, err
	}

	e.emit(ctx, notify.EventAppointmentCreated, a)
	return a, nil
}

// GetAppointment fetches one appointment for an actor who is a party to it.
// Outsiders get NotFound rather than Forbidden so the id space leaks nothing.
func (e *Engine) GetAppointment(ctx context.Context, id, actorID string) (*model.Appointment, error) {
	if id == "" {
		return nil, apperr.New(apperr.Validation, "id is required")
	}
	a, err := e.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.PatientID != actorID && a.DoctorID != actorID {
		return nil, apperr.New(apperr.NotFound, "appointment not found")
	}
	return a, nil
}

// ListForPatient returns the patient's own appointments, most recent first.
func (e *Engine) ListForPatient(ctx context.Context, patientID string) ([]model.Appointment, error) {
	if patientID == "" {
		return nil, apperr.New(apperr.Validation, "patient_id is required")
	}
	return e.store.ListForPatient(ctx, patientID)
}

// ListForDoctor returns the doctor's own appointments, most recent first.
func (e *Engine) ListForDoctor(ctx context.Context, doctorID string) ([]model.Appointment, error) {
	if doctorID == "" {
		return nil, apperr.New(apperr.Validation, "doctor_id is required")
	}
	return e.store.ListForDoctor(ctx, doctorID)
}

// UpdateStatus moves an appointment along the state machine. Only the
// appointment's doctor may call it; the role claim is not trusted, the row's
// doctor_id is. Slot-bearing transitions are reserved for Reschedule.
func (e *Engine) UpdateStatus(ctx context.Context, id string, newStatus model.AppointmentStatus, actorID string) (*model.Appointment, error) {
	if id == "" {
		return nil, apperr.New(apperr.Validation, "id is required")
	}
	if !newStatus.Valid() {
		return nil, apperr.Newf(apperr.Validation, "unknown status %q", newStatus)
	}
	if newStatus == model.StatusScheduled || newStatus == model.StatusRescheduled {
		return nil, apperr.New(apperr.InvalidTransition, "use reschedule to change the slot")
	}

	return e.mutate(ctx, id, func(a *model.Appointment) error {
		if a.DoctorID != actorID {
			return apperr.New(apperr.Forbidden, "unauthorized")
		}
		if !a.Status.CanTransition(newStatus) {
			return apperr.Newf(apperr.InvalidTransition, "cannot move %s appointment to %s", a.Status, newStatus)
		}
		a.Status = newStatus
		return nil
	}, func(a *model.Appointment) {
		switch newStatus {
		case model.StatusConfirmed:
			e.emit(ctx, notify.EventAppointmentConfirmed, a)
		case model.StatusCompleted:
			e.emit(ctx, notify.EventAppointmentCompleted, a)
		case model.StatusCancelled:
			e.emit(ctx, notify.EventAppointmentCancelled, a)
		}
	})
}

// Cancel sets the appointment to Cancelled on behalf of its patient. The row
// stays; cancellation is a status, not a delete.
func (e *Engine) Cancel(ctx context.Context, id, actorID, reason string) (*model.Appointment, error) {
	if id == "" {
		return nil, apperr.New(apperr.Validation, "id is required")
	}

	return e.mutate(ctx, id, func(a *model.Appointment) error {
		if a.PatientID != actorID {
			return apperr.New(apperr.Forbidden, "unauthorized")
		}
		if !a.Status.CanTransition(model.StatusCancelled) {
			return apperr.Newf(apperr.InvalidTransition, "cannot cancel a %s appointment", a.Status)
		}
		a.Status = model.StatusCancelled
		a.CancelReason = reason
		return nil
	}, func(a *model.Appointment) {
		e.emit(ctx, notify.EventAppointmentCancelled, a)
	})
}

// Reschedule moves the patient's appointment to a new slot. It applies the
// Rescheduled edge and re-enters Scheduled with the new slot in one write, so
// a rescheduled appointment is stored as Scheduled and must be re-confirmed.
func (e *Engine) Reschedule(ctx context.Context, id, actorID, newDate, newTime string) (*model.Appointment, error) {
	if id == "" {
		return nil, apperr.New(apperr.Validation, "id is required")
	}
	if err := e.validateSlot(newDate, newTime); err != nil {
		return nil, err
	}

	return e.mutate(ctx, id, func(a *model.Appointment) error {
		if a.PatientID != actorID {
			return apperr.New(apperr.Forbidden, "unauthorized")
		}
		if !a.Status.CanTransition(model.StatusRescheduled) {
			return apperr.Newf(apperr.InvalidTransition, "cannot reschedule a %s appointment", a.Status)
		}
		a.Date = newDate
		a.Time = newTime
		a.Status = model.StatusScheduled
		return nil
	}, func(a *model.Appointment) {
		e.emit(ctx, notify.EventAppointmentRescheduled, a)
	})
}

// mutate runs a read-validate-write cycle with optimistic concurrency. A
// version conflict means another request won the race: re-read and re-validate
// so the state machine is judged against what is actually stored.
func (e *Engine) mutate(ctx context.Context, id string, apply func(*model.Appointment) error, done func(*model.Appointment)) (*model.Appointment, error) {
	const attempts = 3
	for i := 0; i < attempts; i++ {
		a, err := e.store.GetAppointment(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := apply(a); err != nil {
			return nil, err
		}
		err = e.store.UpdateAppointment(ctx, a, a.Version)
		if errors.Is(err, apperr.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if done != nil {
			done(a)
		}
		return a, nil
	}
	return nil, apperr.New(apperr.Internal, "appointment is being modified concurrently")
}

func (e *Engine) emit(ctx context.Context, name string, a *model.Appointment) {
	err := e.notifier.Notify(ctx, notify.Event{
		Name:          name,
		AppointmentID: a.ID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		Date:          a.Date,
		Time:          a.Time,
	})
	if err != nil {
		e.log.Warn().Err(err).Str("event", name).Str("appointment_id", a.ID).Msg("notification failed")
	}
}

func (e *Engine) validateSlot(date, tm string) error {
	if date == "" {
		return apperr.New(apperr.Validation, "date is required")
	}
	if tm == "" {
		return apperr.New(apperr.Validation, "time is required")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return apperr.New(apperr.Validation, "date must be YYYY-MM-DD")
	}
	if _, err := time.Parse("15:04", tm); err != nil {
		return apperr.New(apperr.Validation, "time must be HH:MM")
	}
	start, _ := time.Parse("2006-01-02 15:04", date+" "+tm)
	// small grace window for clock skew
	if start.Before(e.now().UTC().Add(-5 * time.Minute)) {
		return apperr.New(apperr.Validation, "cannot book in the past")
	}
	return nil
}
