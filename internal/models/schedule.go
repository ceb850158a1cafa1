package models

import (
	"fmt"
	"time"
)

// WorkingDay is the time range a doctor receives patients on a weekday.
type WorkingDay struct {
	Weekday time.Weekday `json:"weekday"`
	Start   string       `json:"start"` // HH:MM
	End     string       `json:"end"`   // HH:MM
}

type WorkingHours []WorkingDay

// Validate rejects unknown weekdays, malformed times, empty ranges and duplicates.
func (w WorkingHours) Validate() error {
	seen := make(map[time.Weekday]bool, len(w))
	for _, d := range w {
		if d.Weekday < time.Sunday || d.Weekday > time.Saturday {
			return fmt.Errorf("invalid weekday %d", d.Weekday)
		}
		if seen[d.Weekday] {
			return fmt.Errorf("duplicate weekday %s", d.Weekday)
		}
		seen[d.Weekday] = true

		start, err := time.Parse(TimeLayout, d.Start)
		if err != nil {
			return fmt.Errorf("invalid start time %q for %s", d.Start, d.Weekday)
		}
		end, err := time.Parse(TimeLayout, d.End)
		if err != nil {
			return fmt.Errorf("invalid end time %q for %s", d.End, d.Weekday)
		}
		if !end.After(start) {
			return fmt.Errorf("end must be after start for %s", d.Weekday)
		}
	}
	return nil
}

// For returns the range configured for a weekday.
func (w WorkingHours) For(day time.Weekday) (WorkingDay, bool) {
	for _, d := range w {
		if d.Weekday == day {
			return d, true
		}
	}
	return WorkingDay{}, false
}
