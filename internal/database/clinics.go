package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"meetmed/internal/models"
)

const clinicColumns = `c.id, c.name, c.email, c.password_hash, c.phone, c.address, c.city, c.type,
	c.description, c.website, c.services, c.equipment, c.emergency_24h, c.parking, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM clinic_doctors cd WHERE cd.clinic_id = c.id)`

func scanClinic(row scanner) (*models.Clinic, error) {
	var (
		c                   models.Clinic
		services, equipment string
	)
	if err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Phone, &c.Address, &c.City, &c.Type,
		&c.Description, &c.Website, &services, &equipment, &c.Emergency24h, &c.Parking,
		&c.CreatedAt, &c.UpdatedAt, &c.DoctorCount,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(services), &c.Services); err != nil {
		return nil, fmt.Errorf("decode clinic services: %w", err)
	}
	if err := json.Unmarshal([]byte(equipment), &c.Equipment); err != nil {
		return nil, fmt.Errorf("decode clinic equipment: %w", err)
	}
	return &c, nil
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (db *DB) CreateClinic(ctx context.Context, c *models.Clinic) error {
	services, err := encodeList(c.Services)
	if err != nil {
		return fmt.Errorf("encode clinic services: %w", err)
	}
	equipment, err := encodeList(c.Equipment)
	if err != nil {
		return fmt.Errorf("encode clinic equipment: %w", err)
	}

	now := time.Now().UTC()
	c.Email = strings.ToLower(c.Email)
	res, err := db.ExecContext(ctx, `INSERT INTO clinics (
			name, email, password_hash, phone, address, city, type, description, website,
			services, equipment, emergency_24h, parking, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Email, c.PasswordHash, c.Phone, c.Address, c.City, c.Type, c.Description, c.Website,
		services, equipment, c.Emergency24h, c.Parking, now, now,
	)
	id, err := insertID(res, err, "clinic")
	if err != nil {
		return err
	}
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func (db *DB) GetClinic(ctx context.Context, id int64) (*models.Clinic, error) {
	c, err := scanClinic(db.QueryRowContext(ctx, `SELECT `+clinicColumns+` FROM clinics c WHERE c.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clinic: %w", err)
	}
	return c, nil
}

func (db *DB) UpdateClinic(ctx context.Context, c *models.Clinic) error {
	services, err := encodeList(c.Services)
	if err != nil {
		return fmt.Errorf("encode clinic services: %w", err)
	}
	equipment, err := encodeList(c.Equipment)
	if err != nil {
		return fmt.Errorf("encode clinic equipment: %w", err)
	}
	c.UpdatedAt = time.Now().UTC()
	c.Email = strings.ToLower(c.Email)
	res, err := db.ExecContext(ctx, `UPDATE clinics SET
			name = ?, email = ?, phone = ?, address = ?, city = ?, type = ?, description = ?, website = ?,
			services = ?, equipment = ?, emergency_24h = ?, parking = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.Email, c.Phone, c.Address, c.City, c.Type, c.Description, c.Website,
		services, equipment, c.Emergency24h, c.Parking, c.UpdatedAt, c.ID,
	)
	return updateResult(res, err, "clinic")
}

func (db *DB) ListClinics(ctx context.Context, city string) ([]*models.Clinic, error) {
	query := `SELECT ` + clinicColumns + ` FROM clinics c`
	var args []any
	if city != "" {
		query += ` WHERE c.city = ? COLLATE NOCASE`
		args = append(args, city)
	}
	query += ` ORDER BY c.name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	defer rows.Close()

	var out []*models.Clinic
	for rows.Next() {
		c, err := scanClinic(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clinic: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AttachDoctor links a doctor to a clinic. Attaching twice updates the role.
func (db *DB) AttachDoctor(ctx context.Context, clinicID, doctorID int64, role string) error {
	_, err := db.ExecContext(ctx, `INSERT INTO clinic_doctors (clinic_id, doctor_id, role, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(clinic_id, doctor_id) DO UPDATE SET role = excluded.role`,
		clinicID, doctorID, role, time.Now().UTC())
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to attach doctor: %w", err)
	}
	return nil
}

func (db *DB) DetachDoctor(ctx context.Context, clinicID, doctorID int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM clinic_doctors WHERE clinic_id = ? AND doctor_id = ?`, clinicID, doctorID)
	if err != nil {
		return fmt.Errorf("failed to detach doctor: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) ListClinicDoctors(ctx context.Context, clinicID int64) ([]*models.ClinicDoctor, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+doctorColumns+`, cd.role
		FROM clinic_doctors cd
		JOIN doctors d ON d.id = cd.doctor_id
		WHERE cd.clinic_id = ?
		ORDER BY d.name`, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinic doctors: %w", err)
	}
	defer rows.Close()

	var out []*models.ClinicDoctor
	for rows.Next() {
		var role string
		d, err := scanDoctor(rows, &role)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clinic doctor: %w", err)
		}
		out = append(out, &models.ClinicDoctor{Doctor: *d, Role: role})
	}
	return out, rows.Err()
}
