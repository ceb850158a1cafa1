package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleClinic  = "clinic"
)

const (
	// DefaultRejectionReason is stored when a doctor rejects without a reason.
	DefaultRejectionReason = "reason not specified"

	// MaxConsultationTypeLength bounds the free-form consultation type.
	MaxConsultationTypeLength = 255

	// MinPasswordLength applies to registration and password changes.
	MinPasswordLength = 6

	// MaxReviewCommentLength bounds review comments.
	MaxReviewCommentLength = 1000

	// WorkerQueueSize is the buffer of the in-memory notification queue.
	WorkerQueueSize = 1000

	// ReminderHour is the default hour for appointment reminders.
	ReminderHour = 18

	// DefaultSlotStepMinutes spaces availability candidates.
	DefaultSlotStepMinutes = 30
)
