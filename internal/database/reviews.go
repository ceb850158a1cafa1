package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"meetmed/internal/models"
)

func (db *DB) CreateReview(ctx context.Context, r *models.Review) error {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, `INSERT INTO reviews (
			patient_id, doctor_id, rating, comment, is_verified, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.PatientID, r.DoctorID, r.Rating, r.Comment, r.IsVerified, now, now)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

func (db *DB) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	var r models.Review
	err := db.QueryRowContext(ctx, `SELECT r.id, r.patient_id, r.doctor_id, r.rating, r.comment, r.is_verified,
			p.name, r.created_at, r.updated_at
		FROM reviews r JOIN patients p ON p.id = r.patient_id
		WHERE r.id = ?`, id).Scan(
		&r.ID, &r.PatientID, &r.DoctorID, &r.Rating, &r.Comment, &r.IsVerified,
		&r.PatientName, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &r, nil
}

func (db *DB) UpdateReview(ctx context.Context, r *models.Review) error {
	r.UpdatedAt = time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`UPDATE reviews SET rating = ?, comment = ?, updated_at = ? WHERE id = ?`,
		r.Rating, r.Comment, r.UpdatedAt, r.ID)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteReview(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDoctorReviews returns verified reviews, newest first.
func (db *DB) ListDoctorReviews(ctx context.Context, doctorID int64) ([]*models.Review, error) {
	rows, err := db.QueryContext(ctx, `SELECT r.id, r.patient_id, r.doctor_id, r.rating, r.comment, r.is_verified,
			p.name, r.created_at, r.updated_at
		FROM reviews r JOIN patients p ON p.id = r.patient_id
		WHERE r.doctor_id = ? AND r.is_verified = 1
		ORDER BY r.created_at DESC, r.id DESC`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var out []*models.Review
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.PatientID, &r.DoctorID, &r.Rating, &r.Comment, &r.IsVerified,
			&r.PatientName, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// DoctorReviewStats aggregates verified reviews. The average is rounded
// to one decimal.
func (db *DB) DoctorReviewStats(ctx context.Context, doctorID int64) (*models.ReviewStats, error) {
	rows, err := db.QueryContext(ctx, `SELECT rating, COUNT(*) FROM reviews
		WHERE doctor_id = ? AND is_verified = 1 GROUP BY rating`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review stats: %w", err)
	}
	defer rows.Close()

	var (
		stats models.ReviewStats
		sum   int
	)
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, fmt.Errorf("failed to scan review stats: %w", err)
		}
		switch rating {
		case 5:
			stats.FiveStars = count
		case 4:
			stats.FourStars = count
		case 3:
			stats.ThreeStars = count
		case 2:
			stats.TwoStars = count
		case 1:
			stats.OneStars = count
		}
		stats.TotalReviews += count
		sum += rating * count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if stats.TotalReviews > 0 {
		stats.AverageRating = math.Round(float64(sum)/float64(stats.TotalReviews)*10) / 10
	}
	return &stats, nil
}

// CountReviewsSince counts a patient's reviews of a doctor created at or after since.
func (db *DB) CountReviewsSince(ctx context.Context, patientID, doctorID int64, since time.Time) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews
		WHERE patient_id = ? AND doctor_id = ? AND created_at >= ?`,
		patientID, doctorID, since.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}
