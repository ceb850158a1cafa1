package scheduling

import (
	"time"

	"meetmed/internal/models"
)

// FreeSlots lists bookable start times for a doctor on date. Candidates
// start at the later of opening time and the doctor's working-day start,
// advance by step and stop at the earlier of closing time and the working
// day end. A nil working day means the doctor follows opening hours.
// Times that would hit the doctor window, or are already past, are skipped.
func (r Rules) FreeSlots(
	date string,
	day *models.WorkingDay,
	existing []*models.Appointment,
	step time.Duration,
	now time.Time,
) []string {
	if r.CheckDate(date, now) != nil {
		return nil
	}
	if step <= 0 {
		step = models.DefaultSlotStepMinutes * time.Minute
	}

	from, to := r.OpensAt, r.ClosesAt
	if day != nil {
		start, err := ParseClock(day.Start)
		if err != nil {
			return nil
		}
		end, err := ParseClock(day.End)
		if err != nil {
			return nil
		}
		if start > from {
			from = start
		}
		if end < to {
			to = end
		}
	}

	d, _ := r.parseDate(date)
	var slots []string
	for offset := from; offset <= to; offset += step {
		if !d.Add(offset).After(now) {
			continue
		}
		busy := false
		for _, a := range existing {
			if !a.IsActive() || a.Date != date {
				continue
			}
			booked, err := ParseClock(a.Time)
			if err == nil && r.withinWindow(offset, booked) {
				busy = true
				break
			}
		}
		if !busy {
			slots = append(slots, FormatClock(offset))
		}
	}
	return slots
}
