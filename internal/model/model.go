package model

import "time"

// Role is the coarse access level carried in a token. Role claims gate which
// endpoints a caller may reach; ownership of a row is always re-checked
// against the row itself.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor || r == RoleAdmin
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AppointmentStatus is the appointment state machine's node set.
type AppointmentStatus string

const (
	StatusScheduled   AppointmentStatus = "scheduled"
	StatusConfirmed   AppointmentStatus = "confirmed"
	StatusCancelled   AppointmentStatus = "cancelled"
	StatusRescheduled AppointmentStatus = "rescheduled"
	StatusCompleted   AppointmentStatus = "completed"
)

// transitions lists every legal edge. Cancelled and Completed are terminal:
// they have no outgoing edges. Rescheduled is a pass-through state: a
// reschedule re-enters Scheduled with the new slot in the same write.
var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusScheduled:   {StatusConfirmed, StatusCancelled, StatusRescheduled},
	StatusConfirmed:   {StatusCompleted, StatusCancelled, StatusRescheduled},
	StatusRescheduled: {StatusScheduled},
}

// CanTransition reports whether from → to is a legal edge.
func (from AppointmentStatus) CanTransition(to AppointmentStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is defined from s.
func (s AppointmentStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCancelled, StatusRescheduled, StatusCompleted:
		return true
	}
	return false
}

// Appointment is one booked slot. A slot is the (DoctorID, Date, Time) tuple;
// the store enforces its uniqueness across live appointments. Version backs
// optimistic concurrency on mutations and is bumped by the store on every
// successful write.
type Appointment struct {
	ID              string
	PatientID       string
	DoctorID        string
	Date            string // YYYY-MM-DD
	Time            string // HH:MM, 24h
	DurationMinutes int
	Type            string
	Status          AppointmentStatus
	ConsultationFee int64 // minor units
	Notes           string
	Symptoms        string
	MedicalHistory  string
	CancelReason    string
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DefaultDurationMinutes is applied when a booking omits duration.
const DefaultDurationMinutes = 30

// DefaultAppointmentType is applied when a booking omits the category.
const DefaultAppointmentType = "consultation"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment belongs to exactly one appointment. PatientID and DoctorID are
// copied from the appointment at creation time so the audit trail survives
// later appointment changes.
type Payment struct {
	ID            string
	AppointmentID string
	PatientID     string
	DoctorID      string
	Amount        int64 // minor units
	Currency      string
	Method        string
	Status        PaymentStatus
	ProviderRef   string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
