package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"meetmed/internal/models"
)

const (
	TaskStatusPending   = "pending"
	TaskStatusRetry     = "retry"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

const notificationColumns = `id, task_type, appointment_id, recipient, payload, status, retry_count,
	last_error, created_at, processed_at, next_retry_at`

func scanNotificationTask(row scanner) (*models.NotificationTask, error) {
	var (
		t                        models.NotificationTask
		lastError                sql.NullString
		processedAt, nextRetryAt sql.NullTime
	)
	if err := row.Scan(
		&t.ID, &t.TaskType, &t.AppointmentID, &t.Recipient, &t.Payload, &t.Status, &t.RetryCount,
		&lastError, &t.CreatedAt, &processedAt, &nextRetryAt,
	); err != nil {
		return nil, err
	}
	t.LastError = stringPtr(lastError)
	t.ProcessedAt = timePtr(processedAt)
	t.NextRetryAt = timePtr(nextRetryAt)
	return &t, nil
}

func (db *DB) CreateNotificationTask(ctx context.Context, task *models.NotificationTask) error {
	if task.Status == "" {
		task.Status = TaskStatusPending
	}
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, `INSERT INTO notification_queue (
			task_type, appointment_id, recipient, payload, status, retry_count, last_error, created_at, next_retry_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.TaskType,
		task.AppointmentID,
		task.Recipient,
		task.Payload,
		task.Status,
		task.RetryCount,
		nullableString(task.LastError),
		now,
		nullableTime(task.NextRetryAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create notification task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	return nil
}

// GetPendingNotificationTasks returns tasks due at or before now, oldest first.
func (db *DB) GetPendingNotificationTasks(ctx context.Context, now time.Time, limit int) ([]*models.NotificationTask, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+notificationColumns+`
		FROM notification_queue
		WHERE status IN (?, ?) AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at ASC, id ASC LIMIT ?`,
		TaskStatusPending, TaskStatusRetry, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending notification tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.NotificationTask
	for rows.Next() {
		t, err := scanNotificationTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateNotificationTaskStatus records an attempt outcome. Retries bump
// retry_count; completed and failed stamp processed_at.
func (db *DB) UpdateNotificationTaskStatus(
	ctx context.Context,
	id int64,
	status, errMsg string,
	nextRetryAt *time.Time,
) error {
	var (
		query string
		args  []any
	)
	lastError := sql.NullString{String: errMsg, Valid: errMsg != ""}

	switch status {
	case TaskStatusRetry:
		query = `UPDATE notification_queue SET status = ?, last_error = ?, next_retry_at = ?, retry_count = retry_count + 1 WHERE id = ?`
		args = []any{status, lastError, nullableTime(nextRetryAt), id}
	case TaskStatusCompleted, TaskStatusFailed:
		query = `UPDATE notification_queue SET status = ?, last_error = ?, next_retry_at = NULL, processed_at = ? WHERE id = ?`
		args = []any{status, lastError, time.Now().UTC(), id}
	default:
		query = `UPDATE notification_queue SET status = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
		args = []any{status, lastError, nullableTime(nextRetryAt), id}
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update notification task status: %w", err)
	}
	return nil
}

func (db *DB) GetFailedNotificationTasks(ctx context.Context) ([]*models.NotificationTask, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+notificationColumns+`
		FROM notification_queue WHERE status = ? ORDER BY created_at DESC`, TaskStatusFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to get failed notification tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.NotificationTask
	for rows.Next() {
		t, err := scanNotificationTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
