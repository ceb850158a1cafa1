package models

import (
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Appointment struct {
	ID               int64      `json:"id"`
	PatientID        int64      `json:"patient_id"`
	DoctorID         int64      `json:"doctor_id"`
	Date             string     `json:"date"` // YYYY-MM-DD
	Time             string     `json:"time"` // HH:MM
	ConsultationType string     `json:"consultation_type"`
	Status           string     `json:"status"`
	CreatedBy        string     `json:"created_by"`
	ConfirmedAt      *time.Time `json:"confirmed_at"`
	RejectedAt       *time.Time `json:"rejected_at"`
	CancelledAt      *time.Time `json:"cancelled_at"`
	RejectionReason  *string    `json:"rejection_reason"`
	CancelledBy      *string    `json:"cancelled_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Version          int64      `json:"version"`
}

// IsActive reports whether the appointment still blocks its slot.
func (a *Appointment) IsActive() bool {
	return a.Status == StatusPending || a.Status == StatusConfirmed
}

// ScheduledAt combines Date and Time into an instant in loc.
func (a *Appointment) ScheduledAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, a.Date+" "+a.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse appointment schedule: %w", err)
	}
	return t, nil
}

// AppointmentView is an appointment annotated for listings.
type AppointmentView struct {
	Appointment
	CanCancel bool            `json:"can_cancel"`
	Patient   *PatientSummary `json:"patient,omitempty"`
	Doctor    *DoctorSummary  `json:"doctor,omitempty"`
}

type PatientSummary struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type DoctorSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Address   string `json:"address"`
	City      string `json:"city"`
}

// AppointmentFilter narrows doctor listings. Zero values mean no filter.
type AppointmentFilter struct {
	Status string
	From   string // inclusive YYYY-MM-DD
	To     string // inclusive YYYY-MM-DD
}
