package store

import (
	"context"

	"meditrip-api/internal/apperr"
	"meditrip-api/internal/model"
)

const paymentColumns = `id, appointment_id, patient_id, doctor_id, amount,
	currency, method, status, provider_ref, version, created_at, updated_at`

func (s *Store) CreatePayment(ctx context.Context, p *model.Payment) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO payments
		   (id, appointment_id, patient_id, doctor_id, amount, currency, method, status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING version, created_at, updated_at`,
		p.ID, p.AppointmentID, p.PatientID, p.DoctorID, p.Amount, p.Currency,
		p.Method, p.Status,
	).Scan(&p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapPaymentErr(err)
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	p := &model.Payment{}
	err := s.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id,
	).Scan(
		&p.ID, &p.AppointmentID, &p.PatientID, &p.DoctorID, &p.Amount,
		&p.Currency, &p.Method, &p.Status, &p.ProviderRef, &p.Version,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if isNoRows(err) {
		return nil, apperr.New(apperr.NotFound, "payment not found")
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePayment writes status and provider_ref conditionally on the version
// the caller read.
func (s *Store) UpdatePayment(ctx context.Context, p *model.Payment, expectedVersion int64) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE payments
		 SET status=$1, provider_ref=$2, version=version+1, updated_at=NOW()
		 WHERE id=$3 AND version=$4
		 RETURNING version, updated_at`,
		p.Status, p.ProviderRef, p.ID, expectedVersion,
	).Scan(&p.Version, &p.UpdatedAt)
	if isNoRows(err) {
		return apperr.ErrVersionConflict
	}
	if err != nil {
		return mapPaymentErr(err)
	}
	return nil
}

func mapPaymentErr(err error) error {
	pe, ok := pgErr(err)
	if !ok {
		return err
	}
	switch pe.Code {
	case codeUniqueViolation:
		// at most one succeeded payment per appointment
		return apperr.Wrap(apperr.InvalidTransition, "appointment already has a successful payment", err)
	case codeForeignKeyViolation:
		return apperr.Wrap(apperr.NotFound, "appointment not found", err)
	}
	return err
}
