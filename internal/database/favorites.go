package database

import (
	"context"
	"fmt"
	"time"

	"meetmed/internal/models"
)

// AddFavorite stores the pair and reports whether it was new.
func (db *DB) AddFavorite(ctx context.Context, patientID, doctorID int64) (bool, error) {
	result, err := db.ExecContext(ctx, `INSERT INTO favorites (patient_id, doctor_id, created_at)
		VALUES (?, ?, ?) ON CONFLICT(patient_id, doctor_id) DO NOTHING`,
		patientID, doctorID, time.Now().UTC())
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}
	return n > 0, nil
}

func (db *DB) RemoveFavorite(ctx context.Context, patientID, doctorID int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM favorites WHERE patient_id = ? AND doctor_id = ?`, patientID, doctorID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) IsFavorite(ctx context.Context, patientID, doctorID int64) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM favorites WHERE patient_id = ? AND doctor_id = ?)`,
		patientID, doctorID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return exists, nil
}

func (db *DB) ListFavoriteDoctors(ctx context.Context, patientID int64) ([]*models.Doctor, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+doctorColumns+`
		FROM favorites f JOIN doctors d ON d.id = f.doctor_id
		WHERE f.patient_id = ?
		ORDER BY f.created_at DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	var out []*models.Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan favorite doctor: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
