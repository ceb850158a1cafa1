package domain

import (
	"context"
	"time"

	"meetmed/internal/models"
)

// Clock returns the current instant. Services take one so rules that
// depend on "today" and "now" can be exercised deterministically.
type Clock func() time.Time

type AppointmentRepository interface {
	CreateAppointmentWithLock(ctx context.Context, appt *models.Appointment, check func(existing []*models.Appointment) error) error
	GetAppointment(ctx context.Context, id int64) (*models.Appointment, error)
	UpdateAppointmentWithVersion(ctx context.Context, appt *models.Appointment) error
	ListPatientAppointments(ctx context.Context, patientID int64) ([]*models.AppointmentView, error)
	ListDoctorAppointments(ctx context.Context, doctorID int64, filter models.AppointmentFilter) ([]*models.AppointmentView, error)
}

// RecipientDirectory resolves the people an appointment notification goes to.
type RecipientDirectory interface {
	GetPatient(ctx context.Context, id int64) (*models.Patient, error)
	GetDoctor(ctx context.Context, id int64) (*models.Doctor, error)
}

type ReminderRepository interface {
	ListConfirmedAppointmentsOn(ctx context.Context, date string) ([]*models.AppointmentView, error)
}

type AccountRepository interface {
	GetCredentials(ctx context.Context, role, email string) (*models.Credentials, error)
	GetCredentialsByID(ctx context.Context, role string, id int64) (*models.Credentials, error)
	UpdatePassword(ctx context.Context, role string, id int64, hash string) error
	CreatePatient(ctx context.Context, p *models.Patient) error
	GetPatient(ctx context.Context, id int64) (*models.Patient, error)
	UpdatePatient(ctx context.Context, p *models.Patient) error
	CreateDoctor(ctx context.Context, d *models.Doctor) error
	GetDoctor(ctx context.Context, id int64) (*models.Doctor, error)
	UpdateDoctor(ctx context.Context, d *models.Doctor) error
	CreateClinic(ctx context.Context, c *models.Clinic) error
	GetClinic(ctx context.Context, id int64) (*models.Clinic, error)
	UpdateClinic(ctx context.Context, c *models.Clinic) error
}

type DoctorRepository interface {
	ListDoctors(ctx context.Context, filter models.DoctorFilter) ([]*models.Doctor, error)
	GetDoctor(ctx context.Context, id int64) (*models.Doctor, error)
	GetDoctorSchedule(ctx context.Context, doctorID int64) (models.WorkingHours, error)
	ReplaceDoctorSchedule(ctx context.Context, doctorID int64, hours models.WorkingHours) error
	GetActiveAppointmentsOn(ctx context.Context, date string, patientID, doctorID int64) ([]*models.Appointment, error)
}

type ClinicRepository interface {
	GetClinic(ctx context.Context, id int64) (*models.Clinic, error)
	ListClinics(ctx context.Context, city string) ([]*models.Clinic, error)
	GetDoctor(ctx context.Context, id int64) (*models.Doctor, error)
	AttachDoctor(ctx context.Context, clinicID, doctorID int64, role string) error
	DetachDoctor(ctx context.Context, clinicID, doctorID int64) error
	ListClinicDoctors(ctx context.Context, clinicID int64) ([]*models.ClinicDoctor, error)
}

type ReviewRepository interface {
	GetDoctor(ctx context.Context, id int64) (*models.Doctor, error)
	CreateReview(ctx context.Context, r *models.Review) error
	GetReview(ctx context.Context, id int64) (*models.Review, error)
	UpdateReview(ctx context.Context, r *models.Review) error
	DeleteReview(ctx context.Context, id int64) error
	ListDoctorReviews(ctx context.Context, doctorID int64) ([]*models.Review, error)
	DoctorReviewStats(ctx context.Context, doctorID int64) (*models.ReviewStats, error)
	CountReviewsSince(ctx context.Context, patientID, doctorID int64, since time.Time) (int, error)
}

type FavoriteRepository interface {
	GetDoctor(ctx context.Context, id int64) (*models.Doctor, error)
	AddFavorite(ctx context.Context, patientID, doctorID int64) (bool, error)
	RemoveFavorite(ctx context.Context, patientID, doctorID int64) error
	IsFavorite(ctx context.Context, patientID, doctorID int64) (bool, error)
	ListFavoriteDoctors(ctx context.Context, patientID int64) ([]*models.Doctor, error)
}

type NotificationRepository interface {
	CreateNotificationTask(ctx context.Context, task *models.NotificationTask) error
	GetPendingNotificationTasks(ctx context.Context, now time.Time, limit int) ([]*models.NotificationTask, error)
	UpdateNotificationTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// SessionStore keeps short-lived auth state: login throttling counters
// and per-account token revocation marks.
type SessionStore interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	ResetRateLimit(ctx context.Context, key string) error
	RevokeTokens(ctx context.Context, subject string, at time.Time, ttl time.Duration) error
	RevokedAt(ctx context.Context, subject string) (time.Time, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// NotificationQueue accepts notification jobs for asynchronous delivery.
type NotificationQueue interface {
	Enqueue(ctx context.Context, taskType string, appointmentID int64, recipient string, payload interface{}) error
}
