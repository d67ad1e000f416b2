package store

import (
	"context"

	"meditrip-api/internal/apperr"
	"meditrip-api/internal/model"
)

// date and start_time come back as the wire strings the model carries.
const appointmentColumns = `id, patient_id, doctor_id,
	to_char(date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI'),
	duration_minutes, type, status, consultation_fee, notes, symptoms,
	medical_history, cancel_reason, version, created_at, updated_at`

// CreateAppointment inserts one row. The partial unique index on
// (doctor_id, date, start_time) over live statuses is the double-booking
// guard; a violation surfaces as SlotConflict so callers can retry with a
// different slot.
func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO appointments
		   (id, patient_id, doctor_id, date, start_time, duration_minutes,
		    type, status, consultation_fee, notes, symptoms, medical_history)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 RETURNING version, created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.Time, a.DurationMinutes,
		a.Type, a.Status, a.ConsultationFee, a.Notes, a.Symptoms, a.MedicalHistory,
	).Scan(&a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return mapAppointmentErr(err)
	}
	return nil
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	a := &model.Appointment{}
	err := s.pool.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id,
	).Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time,
		&a.DurationMinutes, &a.Type, &a.Status, &a.ConsultationFee, &a.Notes,
		&a.Symptoms, &a.MedicalHistory, &a.CancelReason, &a.Version,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if isNoRows(err) {
		return nil, apperr.New(apperr.NotFound, "appointment not found")
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) ListForPatient(ctx context.Context, patientID string) ([]model.Appointment, error) {
	return s.list(ctx, `patient_id`, patientID)
}

func (s *Store) ListForDoctor(ctx context.Context, doctorID string) ([]model.Appointment, error) {
	return s.list(ctx, `doctor_id`, doctorID)
}

func (s *Store) list(ctx context.Context, ownerCol, ownerID string) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+appointmentColumns+` FROM appointments
		 WHERE `+ownerCol+` = $1
		 ORDER BY date DESC, start_time DESC, created_at DESC`, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(
			&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time,
			&a.DurationMinutes, &a.Type, &a.Status, &a.ConsultationFee, &a.Notes,
			&a.Symptoms, &a.MedicalHistory, &a.CancelReason, &a.Version,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAppointment writes the mutable fields conditionally on the version
// the caller read. Zero rows matched means another writer got there first.
func (s *Store) UpdateAppointment(ctx context.Context, a *model.Appointment, expectedVersion int64) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE appointments
		 SET date=$1, start_time=$2, status=$3, cancel_reason=$4, notes=$5,
		     version=version+1, updated_at=NOW()
		 WHERE id=$6 AND version=$7
		 RETURNING version, updated_at`,
		a.Date, a.Time, a.Status, a.CancelReason, a.Notes, a.ID, expectedVersion,
	).Scan(&a.Version, &a.UpdatedAt)
	if isNoRows(err) {
		return apperr.ErrVersionConflict
	}
	if err != nil {
		return mapAppointmentErr(err)
	}
	return nil
}

func mapAppointmentErr(err error) error {
	pe, ok := pgErr(err)
	if !ok {
		return err
	}
	switch pe.Code {
	case codeUniqueViolation:
		return apperr.Wrap(apperr.SlotConflict, "slot is already booked", err)
	case codeForeignKeyViolation:
		switch pe.ConstraintName {
		case "appointments_doctor_id_fkey":
			return apperr.Wrap(apperr.NotFound, "doctor not found", err)
		case "appointments_patient_id_fkey":
			return apperr.Wrap(apperr.NotFound, "patient not found", err)
		}
		return apperr.Wrap(apperr.NotFound, "referenced user not found", err)
	}
	return err
}
