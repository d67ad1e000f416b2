// Package payment binds payments to appointments and drives provider
// confirmation. It deliberately never touches appointment status: the payment
// and scheduling state machines stay decoupled.
package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"meditrip-api/internal/apperr"
	"meditrip-api/internal/model"
)

// AppointmentGetter is the slice of the appointment store the linker needs.
type AppointmentGetter interface {
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
}

// Store persists payments. UpdatePayment is conditional on the version column
// and returns apperr.ErrVersionConflict when it loses a race.
type Store interface {
	CreatePayment(ctx context.Context, p *model.Payment) error
	GetPayment(ctx context.Context, id string) (*model.Payment, error)
	UpdatePayment(ctx context.Context, p *model.Payment, expectedVersion int64) error
}

// Charge is the provider's view of a payment attempt.
type Charge struct {
	Ref      string
	Paid     bool
	Amount   int64
	Currency string
}

// SourceRequest asks the provider for an alternate-channel payment source
// (bank transfer, mobile wallet and the like).
type SourceRequest struct {
	// IdempotencyKey is derived from the payment id so a retried initiation
	// does not mint a second source.
	IdempotencyKey string
	Amount         int64
	Currency       string
	// DestinationHandle selects the provider-side channel, e.g. a wallet id.
	DestinationHandle string
}

// Initiation is the provider payload the caller needs to complete an
// alternate-channel payment: the provider's source reference acts as the
// redirect token. Success arrives later through ConfirmProviderPayment.
type Initiation struct {
	PaymentID string `json:"payment_id"`
	Ref       string `json:"ref"`
	Channel   string `json:"channel"`
}

// Gateway is the external payment provider. Calls to it are the only
// retryable path in this package; everything else fails fast.
type Gateway interface {
	RetrieveCharge(ctx context.Context, ref string) (*Charge, error)
	CreateSource(ctx context.Context, req SourceRequest) (*Initiation, error)
}

// Linker owns payment rows and their provider linkage.
type Linker struct {
	appointments AppointmentGetter
	store        Store
	gateway      Gateway
	log          zerolog.Logger
}

func NewLinker(appointments AppointmentGetter, store Store, gateway Gateway, log zerolog.Logger) *Linker {
	return &Linker{appointments: appointments, store: store, gateway: gateway, log: log}
}

// CreateRequest carries a new payment. RequesterID comes from the
// authenticated identity.
type CreateRequest struct {
	AppointmentID string
	RequesterID   string
	Amount        int64
	Currency      string
	Method        string
}

// CreatePayment records a Pending payment against an appointment the
// requester owns. DoctorID is copied from the appointment at creation time
// for audit independence.
func (l *Linker) CreatePayment(ctx context.Context, req CreateRequest) (*model.Payment, error) {
	if req.AppointmentID == "" {
		return nil, apperr.New(apperr.Validation, "appointment_id is required")
	}
	if req.Amount <= 0 {
		return nil, apperr.New(apperr.Validation, "amount is required")
	}
	if req.Currency == "" {
		return nil, apperr.New(apperr.Validation, "currency is required")
	}
	if req.Method == "" {
		return nil, apperr.New(apperr.Validation, "payment_method is required")
	}

	a, err := l.appointments.GetAppointment(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if a.PatientID != req.RequesterID {
		return nil, apperr.New(apperr.Forbidden, "unauthorized")
	}

	p := &model.Payment{
		ID:            uuid.New().String(),
		AppointmentID: a.ID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Method:        req.Method,
		Status:        model.PaymentPending,
	}
	if err := l.store.CreatePayment(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ConfirmProviderPayment verifies providerRef with the gateway and marks the
// payment Succeeded. Confirming twice with the same reference is a no-op
// success; a different reference on a settled payment is rejected.
func (l *Linker) ConfirmProviderPayment(ctx context.Context, paymentID, providerRef, requesterID string) (*model.Payment, error) {
	if paymentID == "" {
		return nil, apperr.New(apperr.Validation, "payment_id is required")
	}
	if providerRef == "" {
		return nil, apperr.New(apperr.Validation, "provider_reference is required")
	}

	p, err := l.ownedPayment(ctx, paymentID, requesterID)
	if err != nil {
		return nil, err
	}

	switch p.Status {
	case model.PaymentSucceeded:
		if p.ProviderRef == providerRef {
			// idempotent replay
			return p, nil
		}
		return nil, apperr.New(apperr.InvalidTransition, "payment already confirmed with a different reference")
	case model.PaymentFailed:
		return nil, apperr.New(apperr.InvalidTransition, "payment already failed; create a new payment to retry")
	}

	ch, err := l.gateway.RetrieveCharge(ctx, providerRef)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "payment provider unavailable", err)
	}

	if !ch.Paid {
		p.Status = model.PaymentFailed
		p.ProviderRef = providerRef
		if err := l.store.UpdatePayment(ctx, p, p.Version); err != nil && !errors.Is(err, apperr.ErrVersionConflict) {
			return nil, err
		}
		return nil, apperr.New(apperr.Validation, "charge was not successful")
	}

	p.Status = model.PaymentSucceeded
	p.ProviderRef = providerRef
	if err := l.store.UpdatePayment(ctx, p, p.Version); err != nil {
		if serr := l.settled(ctx, p.ID, providerRef, err); serr != nil {
			return nil, serr
		}
		// concurrent writer recorded the same reference; replay is benign
		return l.store.GetPayment(ctx, p.ID)
	}
	l.log.Info().Str("payment_id", p.ID).Str("provider_ref", providerRef).Msg("payment confirmed")
	return p, nil
}

// InitiateAlternatePayment asks the provider for an alternate-channel source
// and returns its payload. The payment stays Pending; success arrives through
// ConfirmProviderPayment once the provider settles.
func (l *Linker) InitiateAlternatePayment(ctx context.Context, paymentID, destinationHandle, requesterID string) (*Initiation, error) {
	if paymentID == "" {
		return nil, apperr.New(apperr.Validation, "payment_id is required")
	}
	if destinationHandle == "" {
		return nil, apperr.New(apperr.Validation, "destination is required")
	}

	p, err := l.ownedPayment(ctx, paymentID, requesterID)
	if err != nil {
		return nil, err
	}
	if p.Status != model.PaymentPending {
		return nil, apperr.Newf(apperr.InvalidTransition, "cannot initiate a %s payment", p.Status)
	}

	init, err := l.gateway.CreateSource(ctx, SourceRequest{
		IdempotencyKey:    p.ID,
		Amount:            p.Amount,
		Currency:          p.Currency,
		DestinationHandle: destinationHandle,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "payment provider unavailable", err)
	}
	init.PaymentID = p.ID
	return init, nil
}

func (l *Linker) ownedPayment(ctx context.Context, id, requesterID string) (*model.Payment, error) {
	p, err := l.store.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.PatientID != requesterID {
		return nil, apperr.New(apperr.Forbidden, "unauthorized")
	}
	return p, nil
}

// settled resolves a lost write race on confirmation: if the concurrent
// writer recorded the same reference the call is still an idempotent success
// at the API level, so report that instead of the raw conflict.
func (l *Linker) settled(ctx context.Context, id, providerRef string, cause error) error {
	if !errors.Is(cause, apperr.ErrVersionConflict) {
		return cause
	}
	p, err := l.store.GetPayment(ctx, id)
	if err != nil {
		return err
	}
	if p.Status == model.PaymentSucceeded && p.ProviderRef == providerRef {
		return nil
	}
	return apperr.New(apperr.InvalidTransition, "payment settled concurrently")
}
