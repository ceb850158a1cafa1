package scheduling

import (
	"fmt"
	"strings"
	"time"

	"meetmed/internal/models"
)

// BookingRequest is what a patient submits to book a doctor.
type BookingRequest struct {
	PatientID        int64
	DoctorID         int64
	Date             string
	Time             string
	ConsultationType string
}

// ValidateBookingRequest checks req against the date and time rules and
// against existing appointments. existing may contain any appointments;
// only active ones of the same patient or doctor on the requested date
// are considered. The result is a pending appointment ready to persist,
// with its time zero-padded to HH:MM and its timestamps set to now.
func (r Rules) ValidateBookingRequest(
	req BookingRequest,
	existing []*models.Appointment,
	now time.Time,
) (*models.Appointment, error) {
	req.ConsultationType = strings.TrimSpace(req.ConsultationType)
	if req.PatientID <= 0 || req.DoctorID <= 0 {
		return nil, fmt.Errorf("%w: patient and doctor are required", ErrInvalidRequest)
	}
	if req.ConsultationType == "" || len(req.ConsultationType) > models.MaxConsultationTypeLength {
		return nil, fmt.Errorf("%w: consultation type must be 1-%d characters",
			ErrInvalidRequest, models.MaxConsultationTypeLength)
	}

	if err := r.CheckDate(req.Date, now); err != nil {
		return nil, err
	}
	if err := r.CheckTime(req.Time); err != nil {
		return nil, err
	}
	// "9:05" parses as 09:05; store the zero-padded form so times sort as text.
	offset, _ := ParseClock(req.Time)
	req.Time = FormatClock(offset)
	if err := r.CheckConflicts(req, existing); err != nil {
		return nil, err
	}

	return &models.Appointment{
		PatientID:        req.PatientID,
		DoctorID:         req.DoctorID,
		Date:             req.Date,
		Time:             req.Time,
		ConsultationType: req.ConsultationType,
		Status:           models.StatusPending,
		CreatedBy:        models.RolePatient,
		CreatedAt:        now.UTC(),
		UpdatedAt:        now.UTC(),
	}, nil
}

// CheckConflicts runs the patient same-day check, then the doctor window
// check. Stores call it again inside the insert transaction.
func (r Rules) CheckConflicts(req BookingRequest, existing []*models.Appointment) error {
	for _, a := range existing {
		if a.IsActive() && a.PatientID == req.PatientID && a.Date == req.Date {
			return ErrPatientConflict
		}
	}

	requested, err := ParseClock(req.Time)
	if err != nil {
		return ErrInvalidTime
	}
	for _, a := range existing {
		if !a.IsActive() || a.DoctorID != req.DoctorID || a.Date != req.Date {
			continue
		}
		booked, err := ParseClock(a.Time)
		if err != nil {
			continue
		}
		if r.withinWindow(requested, booked) {
			return ErrDoctorConflict
		}
	}
	return nil
}

func (r Rules) withinWindow(a, b time.Duration) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= r.ConflictWindow
}
