package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"meetmed/internal/models"
	"meetmed/internal/scheduling"
)

const appointmentColumns = `a.id, a.patient_id, a.doctor_id, a.date, a.time, a.consultation_type,
	a.status, a.created_by, a.confirmed_at, a.rejected_at, a.cancelled_at,
	a.rejection_reason, a.cancelled_by, a.created_at, a.updated_at, a.version`

func scanAppointment(row scanner, extra ...any) (*models.Appointment, error) {
	var (
		a                                    models.Appointment
		confirmedAt, rejectedAt, cancelledAt sql.NullTime
		reason, cancelledBy                  sql.NullString
	)
	dest := []any{
		&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time, &a.ConsultationType,
		&a.Status, &a.CreatedBy, &confirmedAt, &rejectedAt, &cancelledAt,
		&reason, &cancelledBy, &a.CreatedAt, &a.UpdatedAt, &a.Version,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	a.ConfirmedAt = timePtr(confirmedAt)
	a.RejectedAt = timePtr(rejectedAt)
	a.CancelledAt = timePtr(cancelledAt)
	a.RejectionReason = stringPtr(reason)
	a.CancelledBy = stringPtr(cancelledBy)
	return &a, nil
}

func collectAppointments(rows *sql.Rows) ([]*models.Appointment, error) {
	defer rows.Close()
	var out []*models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CreateAppointmentWithLock re-reads the active appointments of the
// patient and doctor on the requested date, runs check on them and
// inserts appt, all in one immediate transaction. appt.CreatedAt, when set,
// is stored as both created_at and updated_at. The partial unique
// index on (patient_id, date) backs the patient rule.
func (db *DB) CreateAppointmentWithLock(ctx context.Context, appt *models.Appointment, check func(existing []*models.Appointment) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.date = ? AND (a.patient_id = ? OR a.doctor_id = ?) AND a.status IN (?, ?)`,
		appt.Date, appt.PatientID, appt.DoctorID, models.StatusPending, models.StatusConfirmed)
	if err != nil {
		return fmt.Errorf("failed to load conflicts in tx: %w", err)
	}
	existing, err := collectAppointments(rows)
	if err != nil {
		return fmt.Errorf("failed to load conflicts in tx: %w", err)
	}

	if check != nil {
		if err := check(existing); err != nil {
			return err
		}
	}

	now := stampOrNow(appt.CreatedAt)
	result, err := tx.ExecContext(ctx, `INSERT INTO appointments (
			patient_id, doctor_id, date, time, consultation_type, status, created_by,
			created_at, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		appt.PatientID, appt.DoctorID, appt.Date, appt.Time, appt.ConsultationType,
		appt.Status, appt.CreatedBy, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return scheduling.ErrPatientConflict
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("unknown patient or doctor: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to insert appointment in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit appointment: %w", err)
	}

	appt.ID = id
	appt.CreatedAt = now
	appt.UpdatedAt = now
	appt.Version = 1
	return nil
}

func (db *DB) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	row := db.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments a WHERE a.id = ?`, id)
	a, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return a, nil
}

// GetActiveAppointmentsOn returns pending and confirmed appointments on
// date belonging to patientID or doctorID. Pass 0 to skip one side.
func (db *DB) GetActiveAppointmentsOn(ctx context.Context, date string, patientID, doctorID int64) ([]*models.Appointment, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.date = ? AND (a.patient_id = ? OR a.doctor_id = ?) AND a.status IN (?, ?)
		ORDER BY a.time`,
		date, patientID, doctorID, models.StatusPending, models.StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to get active appointments: %w", err)
	}
	appts, err := collectAppointments(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get active appointments: %w", err)
	}
	return appts, nil
}

// stampOrNow keeps a timestamp chosen by the caller's clock and falls back
// to wall-clock time when none was set.
func stampOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

// UpdateAppointmentWithVersion persists a transition. It fails with
// ErrConcurrentModification when the row changed since appt was read.
func (db *DB) UpdateAppointmentWithVersion(ctx context.Context, appt *models.Appointment) error {
	now := stampOrNow(appt.UpdatedAt)
	result, err := db.ExecContext(ctx, `UPDATE appointments SET
			status = ?, confirmed_at = ?, rejected_at = ?, cancelled_at = ?,
			rejection_reason = ?, cancelled_by = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		appt.Status,
		nullableTime(appt.ConfirmedAt),
		nullableTime(appt.RejectedAt),
		nullableTime(appt.CancelledAt),
		nullableString(appt.RejectionReason),
		nullableString(appt.CancelledBy),
		now,
		appt.ID,
		appt.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	if rows == 0 {
		return ErrConcurrentModification
	}
	appt.Version++
	appt.UpdatedAt = now
	return nil
}

// ListPatientAppointments returns a patient's appointments, newest date first,
// with the doctor summary filled in.
func (db *DB) ListPatientAppointments(ctx context.Context, patientID int64) ([]*models.AppointmentView, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+appointmentColumns+`,
			d.id, d.name, d.specialty, d.address, d.city
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		WHERE a.patient_id = ?
		ORDER BY a.date DESC, a.time DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patient appointments: %w", err)
	}
	defer rows.Close()

	var out []*models.AppointmentView
	for rows.Next() {
		var d models.DoctorSummary
		a, err := scanAppointment(rows, &d.ID, &d.Name, &d.Specialty, &d.Address, &d.City)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient appointment: %w", err)
		}
		out = append(out, &models.AppointmentView{Appointment: *a, Doctor: &d})
	}
	return out, rows.Err()
}

// ListDoctorAppointments returns a doctor's appointments with the patient
// summary filled in, ordered by date and time.
func (db *DB) ListDoctorAppointments(
	ctx context.Context,
	doctorID int64,
	filter models.AppointmentFilter,
) ([]*models.AppointmentView, error) {
	query := `SELECT ` + appointmentColumns + `,
			p.id, p.name, p.email, p.phone, p.address
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE a.doctor_id = ?`
	args := []any{doctorID}
	if filter.Status != "" {
		query += ` AND a.status = ?`
		args = append(args, filter.Status)
	}
	if filter.From != "" {
		query += ` AND a.date >= ?`
		args = append(args, filter.From)
	}
	if filter.To != "" {
		query += ` AND a.date <= ?`
		args = append(args, filter.To)
	}
	query += ` ORDER BY a.date, a.time`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctor appointments: %w", err)
	}
	defer rows.Close()

	var out []*models.AppointmentView
	for rows.Next() {
		var p models.PatientSummary
		a, err := scanAppointment(rows, &p.ID, &p.Name, &p.Email, &p.Phone, &p.Address)
		if err != nil {
			return nil, fmt.Errorf("failed to scan doctor appointment: %w", err)
		}
		out = append(out, &models.AppointmentView{Appointment: *a, Patient: &p})
	}
	return out, rows.Err()
}

// ListConfirmedAppointmentsOn returns every confirmed appointment on date
// with both parties attached. Used for reminders.
func (db *DB) ListConfirmedAppointmentsOn(ctx context.Context, date string) ([]*models.AppointmentView, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+appointmentColumns+`,
			p.id, p.name, p.email, p.phone, p.address,
			d.id, d.name, d.specialty, d.address, d.city
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		JOIN doctors d ON d.id = a.doctor_id
		WHERE a.date = ? AND a.status = ?
		ORDER BY a.time`, date, models.StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmed appointments: %w", err)
	}
	defer rows.Close()

	var out []*models.AppointmentView
	for rows.Next() {
		var (
			p models.PatientSummary
			d models.DoctorSummary
		)
		a, err := scanAppointment(rows,
			&p.ID, &p.Name, &p.Email, &p.Phone, &p.Address,
			&d.ID, &d.Name, &d.Specialty, &d.Address, &d.City)
		if err != nil {
			return nil, fmt.Errorf("failed to scan confirmed appointment: %w", err)
		}
		out = append(out, &models.AppointmentView{Appointment: *a, Patient: &p, Doctor: &d})
	}
	return out, rows.Err()
}
