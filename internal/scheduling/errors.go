package scheduling

import "errors"

var (
	ErrUnauthenticated           = errors.New("unauthenticated")
	ErrNotFound                  = errors.New("appointment not found")
	ErrInvalidRequest            = errors.New("invalid booking request")
	ErrInvalidDate               = errors.New("appointments can be booked from today up to the booking horizon, except on closed days")
	ErrInvalidTime               = errors.New("appointment time is outside opening hours")
	ErrPatientConflict           = errors.New("you already have an appointment on this date")
	ErrDoctorConflict            = errors.New("the doctor is not available at this time")
	ErrAlreadyProcessed          = errors.New("appointment has already been processed")
	ErrInvalidState              = errors.New("appointment cannot be cancelled in its current state")
	ErrCancellationWindowExpired = errors.New("appointments can only be cancelled at least 24 hours in advance")
)

// Kind returns a stable machine-readable name for a scheduling error.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, ErrInvalidTime):
		return "invalid_time"
	case errors.Is(err, ErrPatientConflict):
		return "patient_conflict"
	case errors.Is(err, ErrDoctorConflict):
		return "doctor_conflict"
	case errors.Is(err, ErrAlreadyProcessed):
		return "already_processed"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrCancellationWindowExpired):
		return "cancellation_window_expired"
	default:
		return "internal"
	}
}
