// Package scheduling holds the booking rules for appointments: request
// validation, conflict detection, status transitions and cancellation
// cutoffs. Every function takes the current time as an argument and does
// no I/O; callers load existing appointments and persist results.
package scheduling

import (
	"fmt"
	"time"

	"meetmed/internal/models"
)

// Rules parameterises the booking policy.
type Rules struct {
	// OpensAt and ClosesAt are offsets from midnight. Both bounds are bookable.
	OpensAt  time.Duration
	ClosesAt time.Duration
	// HorizonMonths is how far ahead of today a date may be booked.
	HorizonMonths int
	// ConflictWindow is the distance within which two active appointments
	// of the same doctor on the same date conflict, inclusive: with 45m,
	// appointments 45m apart conflict and 46m apart do not.
	ConflictWindow time.Duration
	// CancellationWindow is the minimum lead time for a cancellation.
	CancellationWindow time.Duration
	ClosedDays         []time.Weekday
	Location           *time.Location
}

func DefaultRules() Rules {
	return Rules{
		OpensAt:            8 * time.Hour,
		ClosesAt:           19*time.Hour + 30*time.Minute,
		HorizonMonths:      3,
		ConflictWindow:     45 * time.Minute,
		CancellationWindow: 24 * time.Hour,
		ClosedDays:         []time.Weekday{time.Sunday},
		Location:           time.UTC,
	}
}

func (r Rules) location() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

// ParseClock converts "HH:MM" into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse(models.TimeLayout, s)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// FormatClock is the inverse of ParseClock.
func FormatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}

func (r Rules) parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(models.DateLayout, s, r.location())
}

func (r Rules) today(now time.Time) time.Time {
	n := now.In(r.location())
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, r.location())
}

func (r Rules) isClosed(day time.Weekday) bool {
	for _, d := range r.ClosedDays {
		if d == day {
			return true
		}
	}
	return false
}

// CheckDate enforces the closed-day and horizon constraints.
func (r Rules) CheckDate(date string, now time.Time) error {
	d, err := r.parseDate(date)
	if err != nil {
		return ErrInvalidDate
	}
	if r.isClosed(d.Weekday()) {
		return ErrInvalidDate
	}
	today := r.today(now)
	if d.Before(today) || d.After(today.AddDate(0, r.HorizonMonths, 0)) {
		return ErrInvalidDate
	}
	return nil
}

// CheckTime enforces opening hours.
func (r Rules) CheckTime(clock string) error {
	offset, err := ParseClock(clock)
	if err != nil {
		return ErrInvalidTime
	}
	if offset < r.OpensAt || offset > r.ClosesAt {
		return ErrInvalidTime
	}
	return nil
}

// ScheduledAt returns the start instant of an appointment in the rules' zone.
func (r Rules) ScheduledAt(appt *models.Appointment) (time.Time, error) {
	return appt.ScheduledAt(r.location())
}
