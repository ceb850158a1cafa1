package scheduling

import (
	"fmt"
	"strings"
	"time"

	"meetmed/internal/models"
)

type Action string

const (
	ActionConfirm Action = "confirm"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
)

// Actor is the authenticated party acting on an appointment.
type Actor struct {
	ID   int64
	Role string
}

// Authorize checks that actor may perform action on appt. Foreign
// appointments are reported as ErrNotFound so ids cannot be discovered by guessing.
func Authorize(appt *models.Appointment, actor Actor, action Action) error {
	if actor.ID <= 0 || actor.Role == "" {
		return ErrUnauthenticated
	}
	if appt == nil {
		return ErrNotFound
	}
	switch action {
	case ActionConfirm, ActionReject:
		if actor.Role == models.RoleDoctor && appt.DoctorID == actor.ID {
			return nil
		}
	case ActionCancel:
		if actor.Role == models.RolePatient && appt.PatientID == actor.ID {
			return nil
		}
	}
	return ErrNotFound
}

// Transition applies action to a copy of appt and returns it. It does not
// check ownership; call Authorize first.
func (r Rules) Transition(
	appt *models.Appointment,
	action Action,
	actor Actor,
	reason string,
	now time.Time,
) (*models.Appointment, error) {
	next := *appt
	stamp := now

	switch action {
	case ActionConfirm:
		if appt.Status != models.StatusPending {
			return nil, ErrAlreadyProcessed
		}
		next.Status = models.StatusConfirmed
		next.ConfirmedAt = &stamp

	case ActionReject:
		if appt.Status != models.StatusPending {
			return nil, ErrAlreadyProcessed
		}
		reason = strings.TrimSpace(reason)
		if reason == "" {
			reason = models.DefaultRejectionReason
		}
		next.Status = models.StatusRejected
		next.RejectedAt = &stamp
		next.RejectionReason = &reason

	case ActionCancel:
		if !appt.IsActive() {
			return nil, ErrInvalidState
		}
		ok, err := r.withinCancellationWindow(appt, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrCancellationWindowExpired
		}
		by := actor.Role
		next.Status = models.StatusCancelled
		next.CancelledAt = &stamp
		next.CancelledBy = &by

	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidRequest, action)
	}

	next.UpdatedAt = now
	return &next, nil
}

// CanBeCancelled reports whether a cancel issued at now would succeed.
func (r Rules) CanBeCancelled(appt *models.Appointment, now time.Time) bool {
	if appt == nil || !appt.IsActive() {
		return false
	}
	ok, err := r.withinCancellationWindow(appt, now)
	return err == nil && ok
}

func (r Rules) withinCancellationWindow(appt *models.Appointment, now time.Time) (bool, error) {
	at, err := r.ScheduledAt(appt)
	if err != nil {
		return false, err
	}
	return at.Sub(now) >= r.CancellationWindow, nil
}
