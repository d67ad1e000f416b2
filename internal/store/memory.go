package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"meditrip-api/internal/apperr"
	"meditrip-api/internal/model"
)

// Memory mirrors the Postgres store's semantics in process memory: slot
// uniqueness over live statuses, version-conditional writes, one succeeded
// payment per appointment. It backs tests and local development without a
// database.
type Memory struct {
	mu           sync.Mutex
	users        map[string]*model.User
	userEmails   map[string]string // email -> id
	refresh      map[string]*RefreshToken
	appointments map[string]*model.Appointment
	payments     map[string]*model.Payment
	now          func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:        make(map[string]*model.User),
		userEmails:   make(map[string]string),
		refresh:      make(map[string]*RefreshToken),
		appointments: make(map[string]*model.Appointment),
		payments:     make(map[string]*model.Payment),
		now:          time.Now,
	}
}

// --- appointments ---

func (m *Memory) CreateAppointment(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slotTaken(a.DoctorID, a.Date, a.Time, a.ID) {
		return apperr.New(apperr.SlotConflict, "slot is already booked")
	}

	cp := *a
	cp.Version = 1
	cp.CreatedAt = m.now()
	cp.UpdatedAt = cp.CreatedAt
	m.appointments[a.ID] = &cp
	*a = cp
	return nil
}

func (m *Memory) GetAppointment(_ context.Context, id string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "appointment not found")
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) ListForPatient(_ context.Context, patientID string) ([]model.Appointment, error) {
	return m.list(func(a *model.Appointment) bool { return a.PatientID == patientID }), nil
}

func (m *Memory) ListForDoctor(_ context.Context, doctorID string) ([]model.Appointment, error) {
	return m.list(func(a *model.Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (m *Memory) list(match func(*model.Appointment) bool) []model.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Appointment
	for _, a := range m.appointments {
		if match(a) {
			out = append(out, *a)
		}
	}
	// most recent first
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time > out[j].Time
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m *Memory) UpdateAppointment(_ context.Context, a *model.Appointment, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.appointments[a.ID]
	if !ok {
		return apperr.New(apperr.NotFound, "appointment not found")
	}
	if cur.Version != expectedVersion {
		return apperr.ErrVersionConflict
	}
	if live(a.Status) && m.slotTaken(cur.DoctorID, a.Date, a.Time, a.ID) {
		return apperr.New(apperr.SlotConflict, "slot is already booked")
	}

	cur.Date = a.Date
	cur.Time = a.Time
	cur.Status = a.Status
	cur.CancelReason = a.CancelReason
	cur.Notes = a.Notes
	cur.Version++
	cur.UpdatedAt = m.now()
	*a = *cur
	return nil
}

func (m *Memory) slotTaken(doctorID, date, tm, excludeID string) bool {
	for _, other := range m.appointments {
		if other.ID == excludeID {
			continue
		}
		if other.DoctorID == doctorID && other.Date == date && other.Time == tm && live(other.Status) {
			return true
		}
	}
	return false
}

func live(s model.AppointmentStatus) bool {
	return s == model.StatusScheduled || s == model.StatusConfirmed
}

// --- payments ---

func (m *Memory) CreatePayment(_ context.Context, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *p
	cp.Version = 1
	cp.CreatedAt = m.now()
	cp.UpdatedAt = cp.CreatedAt
	m.payments[p.ID] = &cp
	*p = cp
	return nil
}

func (m *Memory) GetPayment(_ context.Context, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "payment not found")
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) UpdatePayment(_ context.Context, p *model.Payment, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.payments[p.ID]
	if !ok {
		return apperr.New(apperr.NotFound, "payment not found")
	}
	if cur.Version != expectedVersion {
		return apperr.ErrVersionConflict
	}
	if p.Status == model.PaymentSucceeded {
		for _, other := range m.payments {
			if other.ID != p.ID && other.AppointmentID == cur.AppointmentID && other.Status == model.PaymentSucceeded {
				return apperr.New(apperr.InvalidTransition, "appointment already has a successful payment")
			}
		}
	}

	cur.Status = p.Status
	cur.ProviderRef = p.ProviderRef
	cur.Version++
	cur.UpdatedAt = m.now()
	*p = *cur
	return nil
}

// --- users and refresh tokens ---

func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.userEmails[u.Email]; dup {
		return apperr.New(apperr.Validation, "registration failed")
	}
	cp := *u
	cp.CreatedAt = m.now()
	cp.UpdatedAt = cp.CreatedAt
	m.users[u.ID] = &cp
	m.userEmails[u.Email] = u.ID
	*u = cp
	return nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.userEmails[email]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	cp := *m.users[id]
	return &cp, nil
}

func (m *Memory) UserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) CreateRefreshToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.refresh[id] = &RefreshToken{
		ID: id, UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt, CreatedAt: m.now(),
	}
	return id, nil
}

func (m *Memory) RefreshTokenByHash(_ context.Context, tokenHash string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.refresh {
		if rt.TokenHash == tokenHash {
			cp := *rt
			return &cp, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "refresh token not found")
}

func (m *Memory) RotateRefreshToken(_ context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.refresh[oldID]; ok {
		old.Revoked = true
		old.ReplacedBy = &newID
	}
	m.refresh[newID] = &RefreshToken{
		ID: newID, UserID: userID, TokenHash: newHash, ExpiresAt: newExpiry, CreatedAt: m.now(),
	}
	return nil
}

func (m *Memory) RevokeAllRefreshTokens(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.refresh {
		if rt.UserID == userID {
			rt.Revoked = true
		}
	}
	return nil
}
