package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"meetmed/internal/models"
)

// accountTables maps roles to their tables. Keys are never user input.
var accountTables = map[string]string{
	models.RolePatient: "patients",
	models.RoleDoctor:  "doctors",
	models.RoleClinic:  "clinics",
}

func accountTable(role string) (string, error) {
	table, ok := accountTables[role]
	if !ok {
		return "", fmt.Errorf("unknown account role %q", role)
	}
	return table, nil
}

func (db *DB) GetCredentials(ctx context.Context, role, email string) (*models.Credentials, error) {
	table, err := accountTable(role)
	if err != nil {
		return nil, err
	}
	var c models.Credentials
	err = db.QueryRowContext(ctx,
		`SELECT id, email, password_hash FROM `+table+` WHERE email = ?`,
		strings.ToLower(email)).Scan(&c.ID, &c.Email, &c.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}
	return &c, nil
}

func (db *DB) GetCredentialsByID(ctx context.Context, role string, id int64) (*models.Credentials, error) {
	table, err := accountTable(role)
	if err != nil {
		return nil, err
	}
	var c models.Credentials
	err = db.QueryRowContext(ctx,
		`SELECT id, email, password_hash FROM `+table+` WHERE id = ?`, id).Scan(&c.ID, &c.Email, &c.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}
	return &c, nil
}

func (db *DB) UpdatePassword(ctx context.Context, role string, id int64, hash string) error {
	table, err := accountTable(role)
	if err != nil {
		return err
	}
	result, err := db.ExecContext(ctx,
		`UPDATE `+table+` SET password_hash = ?, updated_at = ? WHERE id = ?`, hash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func insertID(result sql.Result, err error, what string) (int64, error) {
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("failed to create %s: %w", what, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

func updateResult(result sql.Result, err error, what string) error {
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update %s: %w", what, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Patients

func (db *DB) CreatePatient(ctx context.Context, p *models.Patient) error {
	now := time.Now().UTC()
	p.Email = strings.ToLower(p.Email)
	res, err := db.ExecContext(ctx, `INSERT INTO patients (
			name, email, password_hash, phone, address, date_of_birth, gender, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Email, p.PasswordHash, p.Phone, p.Address, p.DateOfBirth, p.Gender, now, now,
	)
	id, err := insertID(res, err, "patient")
	if err != nil {
		return err
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (db *DB) GetPatient(ctx context.Context, id int64) (*models.Patient, error) {
	var p models.Patient
	err := db.QueryRowContext(ctx, `SELECT id, name, email, password_hash, phone, address,
			date_of_birth, gender, created_at, updated_at
		FROM patients WHERE id = ?`, id).Scan(
		&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.Phone, &p.Address,
		&p.DateOfBirth, &p.Gender, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &p, nil
}

func (db *DB) UpdatePatient(ctx context.Context, p *models.Patient) error {
	p.UpdatedAt = time.Now().UTC()
	p.Email = strings.ToLower(p.Email)
	res, err := db.ExecContext(ctx, `UPDATE patients SET
			name = ?, email = ?, phone = ?, address = ?, date_of_birth = ?, gender = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Email, p.Phone, p.Address, p.DateOfBirth, p.Gender, p.UpdatedAt, p.ID,
	)
	return updateResult(res, err, "patient")
}

// Doctors

const doctorColumns = `d.id, d.name, d.email, d.password_hash, d.phone, d.specialty, d.license_number,
	d.address, d.city, d.bio, d.consultation_fee, d.years_experience, d.created_at, d.updated_at`

func scanDoctor(row scanner, extra ...any) (*models.Doctor, error) {
	var d models.Doctor
	dest := []any{
		&d.ID, &d.Name, &d.Email, &d.PasswordHash, &d.Phone, &d.Specialty, &d.LicenseNumber,
		&d.Address, &d.City, &d.Bio, &d.ConsultationFee, &d.YearsExperience, &d.CreatedAt, &d.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &d, nil
}

func (db *DB) CreateDoctor(ctx context.Context, d *models.Doctor) error {
	now := time.Now().UTC()
	d.Email = strings.ToLower(d.Email)
	res, err := db.ExecContext(ctx, `INSERT INTO doctors (
			name, email, password_hash, phone, specialty, license_number, address, city, bio,
			consultation_fee, years_experience, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Name, d.Email, d.PasswordHash, d.Phone, d.Specialty, d.LicenseNumber, d.Address, d.City, d.Bio,
		d.ConsultationFee, d.YearsExperience, now, now,
	)
	id, err := insertID(res, err, "doctor")
	if err != nil {
		return err
	}
	d.ID = id
	d.CreatedAt = now
	d.UpdatedAt = now
	return nil
}

func (db *DB) GetDoctor(ctx context.Context, id int64) (*models.Doctor, error) {
	d, err := scanDoctor(db.QueryRowContext(ctx, `SELECT `+doctorColumns+` FROM doctors d WHERE d.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return d, nil
}

func (db *DB) UpdateDoctor(ctx context.Context, d *models.Doctor) error {
	d.UpdatedAt = time.Now().UTC()
	d.Email = strings.ToLower(d.Email)
	res, err := db.ExecContext(ctx, `UPDATE doctors SET
			name = ?, email = ?, phone = ?, specialty = ?, license_number = ?, address = ?, city = ?,
			bio = ?, consultation_fee = ?, years_experience = ?, updated_at = ?
		WHERE id = ?`,
		d.Name, d.Email, d.Phone, d.Specialty, d.LicenseNumber, d.Address, d.City,
		d.Bio, d.ConsultationFee, d.YearsExperience, d.UpdatedAt, d.ID,
	)
	return updateResult(res, err, "doctor")
}

func (db *DB) ListDoctors(ctx context.Context, filter models.DoctorFilter) ([]*models.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors d WHERE 1 = 1`
	var args []any
	if filter.Specialty != "" {
		query += ` AND d.specialty = ? COLLATE NOCASE`
		args = append(args, filter.Specialty)
	}
	if filter.City != "" {
		query += ` AND d.city = ? COLLATE NOCASE`
		args = append(args, filter.City)
	}
	if filter.Query != "" {
		query += ` AND (d.name LIKE ? OR d.specialty LIKE ?)`
		like := "%" + filter.Query + "%"
		args = append(args, like, like)
	}
	query += ` ORDER BY d.name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	defer rows.Close()

	var out []*models.Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan doctor: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (db *DB) GetDoctorSchedule(ctx context.Context, doctorID int64) (models.WorkingHours, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT weekday, start_time, end_time FROM doctor_schedules WHERE doctor_id = ? ORDER BY weekday`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor schedule: %w", err)
	}
	defer rows.Close()

	var hours models.WorkingHours
	for rows.Next() {
		var day models.WorkingDay
		if err := rows.Scan(&day.Weekday, &day.Start, &day.End); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		hours = append(hours, day)
	}
	return hours, rows.Err()
}

// ReplaceDoctorSchedule swaps the doctor's working hours atomically.
func (db *DB) ReplaceDoctorSchedule(ctx context.Context, doctorID int64, hours models.WorkingHours) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM doctor_schedules WHERE doctor_id = ?`, doctorID); err != nil {
		return fmt.Errorf("failed to clear schedule: %w", err)
	}
	for _, day := range hours {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO doctor_schedules (doctor_id, weekday, start_time, end_time) VALUES (?, ?, ?, ?)`,
			doctorID, int(day.Weekday), day.Start, day.End); err != nil {
			if isForeignKeyViolation(err) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to insert schedule: %w", err)
		}
	}
	return tx.Commit()
}
