package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"meditrip-api/internal/apperr"
	"meditrip-api/internal/model"
	"meditrip-api/internal/store"
)

const (
	patientID = "11111111-1111-1111-1111-111111111111"
	doctorID  = "22222222-2222-2222-2222-222222222222"
	otherID   = "33333333-3333-3333-3333-333333333333"
)

// fakeGateway settles charges from a canned table.
type fakeGateway struct {
	charges map[string]bool // ref -> paid
	down    bool
	sources []SourceRequest
}

func (g *fakeGateway) RetrieveCharge(_ context.Context, ref string) (*Charge, error) {
	if g.down {
		return nil, errors.New("connection refused")
	}
	paid, ok := g.charges[ref]
	if !ok {
		return nil, errors.New("no such charge")
	}
	return &Charge{Ref: ref, Paid: paid}, nil
}

func (g *fakeGateway) CreateSource(_ context.Context, req SourceRequest) (*Initiation, error) {
	if g.down {
		return nil, errors.New("connection refused")
	}
	g.sources = append(g.sources, req)
	return &Initiation{Ref: "src_" + req.IdempotencyKey, Channel: req.DestinationHandle}, nil
}

func setup(t *testing.T) (*Linker, *store.Memory, *fakeGateway, *model.Appointment) {
	t.Helper()
	mem := store.NewMemory()
	gw := &fakeGateway{charges: map[string]bool{}}
	l := NewLinker(mem, mem, gw, zerolog.Nop())

	a := &model.Appointment{
		ID:        uuid.New().String(),
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      "2030-06-01",
		Time:      "10:00",
		Status:    model.StatusScheduled,
	}
	if err := mem.CreateAppointment(context.Background(), a); err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
	return l, mem, gw, a
}

func TestCreatePaymentValidation(t *testing.T) {
	l, mem, _, a := setup(t)

	tests := []struct {
		name string
		req  CreateRequest
	}{
		{"missing appointment", CreateRequest{RequesterID: patientID, Amount: 5000, Currency: "USD", Method: "card"}},
		{"amount omitted", CreateRequest{AppointmentID: a.ID, RequesterID: patientID, Currency: "USD", Method: "card"}},
		{"missing currency", CreateRequest{AppointmentID: a.ID, RequesterID: patientID, Amount: 5000, Method: "card"}},
		{"missing method", CreateRequest{AppointmentID: a.ID, RequesterID: patientID, Amount: 5000, Currency: "USD"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.CreatePayment(context.Background(), tt.req)
			if !apperr.Is(err, apperr.Validation) {
				t.Errorf("got %v, want validation error", err)
			}
		})
	}

	// no payment row was created by any failed attempt
	if _, err := mem.GetPayment(context.Background(), a.ID); !apperr.Is(err, apperr.NotFound) {
		t.Error("failed creates must not persist rows")
	}
}

func TestCreatePaymentOwnership(t *testing.T) {
	l, _, _, a := setup(t)

	_, err := l.CreatePayment(context.Background(), CreateRequest{
		AppointmentID: a.ID, RequesterID: otherID, Amount: 5000, Currency: "USD", Method: "card",
	})
	if !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("got %v, want forbidden", err)
	}

	_, err = l.CreatePayment(context.Background(), CreateRequest{
		AppointmentID: uuid.New().String(), RequesterID: patientID, Amount: 5000, Currency: "USD", Method: "card",
	})
	if !apperr.Is(err, apperr.NotFound) {
		t.Errorf("got %v, want not found", err)
	}
}

func TestCreatePaymentCopiesParties(t *testing.T) {
	l, _, _, a := setup(t)

	p, err := l.CreatePayment(context.Background(), CreateRequest{
		AppointmentID: a.ID, RequesterID: patientID, Amount: 5000, Currency: "USD", Method: "card",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if p.Status != model.PaymentPending {
		t.Errorf("status = %s, want pending", p.Status)
	}
	// doctor_id is denormalized from the appointment at creation time
	if p.DoctorID != doctorID || p.PatientID != patientID {
		t.Errorf("parties = %s/%s", p.PatientID, p.DoctorID)
	}
}

func pendingPayment(t *testing.T, l *Linker, appointmentID string) *model.Payment {
	t.Helper()
	p, err := l.CreatePayment(context.Background(), CreateRequest{
		AppointmentID: appointmentID, RequesterID: patientID, Amount: 5000, Currency: "USD", Method: "card",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	return p
}

func TestConfirmProviderPayment(t *testing.T) {
	l, _, gw, a := setup(t)
	p := pendingPayment(t, l, a.ID)
	gw.charges["chrg_1"] = true

	got, err := l.ConfirmProviderPayment(context.Background(), p.ID, "chrg_1", patientID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got.Status != model.PaymentSucceeded || got.ProviderRef != "chrg_1" {
		t.Errorf("got status %s ref %q", got.Status, got.ProviderRef)
	}

	// replay with the same reference is a benign no-op success
	again, err := l.ConfirmProviderPayment(context.Background(), p.ID, "chrg_1", patientID)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if again.Status != model.PaymentSucceeded {
		t.Errorf("replay status = %s", again.Status)
	}

	// a different reference on a settled payment is rejected
	gw.charges["chrg_2"] = true
	if _, err := l.ConfirmProviderPayment(context.Background(), p.ID, "chrg_2", patientID); !apperr.Is(err, apperr.InvalidTransition) {
		t.Errorf("got %v, want invalid transition", err)
	}
}

func TestConfirmDoesNotTouchAppointment(t *testing.T) {
	l, mem, gw, a := setup(t)
	p := pendingPayment(t, l, a.ID)
	gw.charges["chrg_1"] = true

	if _, err := l.ConfirmProviderPayment(context.Background(), p.ID, "chrg_1", patientID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	stored, _ := mem.GetAppointment(context.Background(), a.ID)
	if stored.Status != model.StatusScheduled {
		t.Errorf("payment success must not move the appointment: status = %s", stored.Status)
	}
}

func TestConfirmOwnershipAndInput(t *testing.T) {
	l, _, gw, a := setup(t)
	p := pendingPayment(t, l, a.ID)
	gw.charges["chrg_1"] = true

	if _, err := l.ConfirmProviderPayment(context.Background(), p.ID, "chrg_1", otherID); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("got %v, want forbidden", err)
	}
	if _, err := l.ConfirmProviderPayment(context.Background(), uuid.New().String(), "chrg_1", patientID); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("got %v, want not found", err)
	}
	if _, err := l.ConfirmProviderPayment(context.Background(), p.ID, "", patientID); !apperr.Is(err, apperr.Validation) {
		t.Errorf("got %v, want validation error", err)
	}
}

func TestConfirmGatewayDown(t *testing.T) {
	l, mem, gw, a := setup(t)
	p := pendingPayment(t, l, a.ID)
	gw.down = true

	if _, err := l.ConfirmProviderPayment(context.Background(), p.ID, "chrg_1", patientID); !apperr.Is(err, apperr.Upstream) {
		t.Errorf("got %v, want upstream error", err)
	}
	stored, _ := mem.GetPayment(context.Background(), p.ID)
	if stored.Status != model.PaymentPending {
		t.Errorf("gateway outage must not settle the payment: status = %s", stored.Status)
	}
}

func TestConfirmUnpaidCharge(t *testing.T) {
	l, mem, gw, a := setup(t)
	p := pendingPayment(t, l, a.ID)
	gw.charges["chrg_bad"] = false

	if _, err := l.ConfirmProviderPayment(context.Background(), p.ID, "chrg_bad", patientID); !apperr.Is(err, apperr.Validation) {
		t.Errorf("got %v, want validation error", err)
	}
	stored, _ := mem.GetPayment(context.Background(), p.ID)
	if stored.Status != model.PaymentFailed {
		t.Errorf("status = %s, want failed", stored.Status)
	}

	// a failed payment cannot be re-confirmed; the patient retries with a new one
	gw.charges["chrg_ok"] = true
	if _, err := l.ConfirmProviderPayment(context.Background(), p.ID, "chrg_ok", patientID); !apperr.Is(err, apperr.InvalidTransition) {
		t.Errorf("got %v, want invalid transition", err)
	}
	p2 := pendingPayment(t, l, a.ID)
	if _, err := l.ConfirmProviderPayment(context.Background(), p2.ID, "chrg_ok", patientID); err != nil {
		t.Errorf("retry payment should confirm: %v", err)
	}
}

func TestInitiateAlternatePayment(t *testing.T) {
	l, _, gw, a := setup(t)
	p := pendingPayment(t, l, a.ID)

	init, err := l.InitiateAlternatePayment(context.Background(), p.ID, "promptpay", patientID)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if init.PaymentID != p.ID || init.Ref == "" {
		t.Errorf("payload = %+v", init)
	}
	// provider call carries the payment id as idempotency key
	if len(gw.sources) != 1 || gw.sources[0].IdempotencyKey != p.ID {
		t.Errorf("sources = %+v", gw.sources)
	}
	if gw.sources[0].Amount != p.Amount || gw.sources[0].Currency != p.Currency {
		t.Error("source must carry the payment's amount and currency")
	}
}

func TestInitiateChecks(t *testing.T) {
	l, _, gw, a := setup(t)
	p := pendingPayment(t, l, a.ID)

	if _, err := l.InitiateAlternatePayment(context.Background(), p.ID, "promptpay", otherID); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("got %v, want forbidden", err)
	}
	if _, err := l.InitiateAlternatePayment(context.Background(), p.ID, "", patientID); !apperr.Is(err, apperr.Validation) {
		t.Errorf("got %v, want validation error", err)
	}

	gw.down = true
	if _, err := l.InitiateAlternatePayment(context.Background(), p.ID, "promptpay", patientID); !apperr.Is(err, apperr.Upstream) {
		t.Errorf("got %v, want upstream error", err)
	}

	// settled payments cannot be re-initiated
	gw.down = false
	gw.charges["chrg_1"] = true
	if _, err := l.ConfirmProviderPayment(context.Background(), p.ID, "chrg_1", patientID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := l.InitiateAlternatePayment(context.Background(), p.ID, "promptpay", patientID); !apperr.Is(err, apperr.InvalidTransition) {
		t.Errorf("got %v, want invalid transition", err)
	}
}
