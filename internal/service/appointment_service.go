package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meetmed/internal/database"
	"meetmed/internal/domain"
	"meetmed/internal/events"
	"meetmed/internal/metrics"
	"meetmed/internal/models"
	"meetmed/internal/scheduling"

	"github.com/rs/zerolog"
)

type AppointmentService struct {
	repo     domain.AppointmentRepository
	eventBus domain.EventPublisher
	rules    scheduling.Rules
	clock    domain.Clock
	logger   *zerolog.Logger
}

func NewAppointmentService(
	repo domain.AppointmentRepository,
	eventBus domain.EventPublisher,
	rules scheduling.Rules,
	clock domain.Clock,
	logger *zerolog.Logger,
) *AppointmentService {
	if clock == nil {
		clock = time.Now
	}
	return &AppointmentService{
		repo:     repo,
		eventBus: eventBus,
		rules:    rules,
		clock:    clock,
		logger:   logger,
	}
}

func (s *AppointmentService) Rules() scheduling.Rules {
	return s.rules
}

// Book validates req for patientID and stores it as a pending appointment.
// Conflicts are evaluated against the rows read inside the insert
// transaction, so two concurrent requests cannot both pass.
func (s *AppointmentService) Book(ctx context.Context, patientID int64, req scheduling.BookingRequest) (*models.Appointment, error) {
	if patientID <= 0 {
		return nil, scheduling.ErrUnauthenticated
	}
	req.PatientID = patientID

	appt, err := s.rules.ValidateBookingRequest(req, nil, s.clock())
	if err != nil {
		metrics.IncBookingRejected(scheduling.Kind(err))
		return nil, err
	}

	err = s.repo.CreateAppointmentWithLock(ctx, appt, func(existing []*models.Appointment) error {
		return s.rules.CheckConflicts(req, existing)
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			metrics.IncBookingRejected(scheduling.Kind(scheduling.ErrInvalidRequest))
			return nil, fmt.Errorf("%w: doctor %d does not exist", scheduling.ErrInvalidRequest, req.DoctorID)
		}
		if kind := scheduling.Kind(err); kind != "internal" {
			metrics.IncBookingRejected(kind)
			return nil, err
		}
		s.logger.Error().Err(err).Int64("patient_id", patientID).Int64("doctor_id", req.DoctorID).Msg("failed to create appointment")
		return nil, err
	}

	metrics.IncAppointmentCreated()
	s.logger.Info().
		Int64("appointment_id", appt.ID).
		Int64("patient_id", appt.PatientID).
		Int64("doctor_id", appt.DoctorID).
		Str("date", appt.Date).
		Str("time", appt.Time).
		Msg("appointment booked")
	s.publishEvent(events.EventAppointmentCreated, appt, scheduling.Actor{ID: patientID, Role: models.RolePatient})

	return appt, nil
}

func (s *AppointmentService) Confirm(ctx context.Context, actor scheduling.Actor, id int64) (*models.Appointment, error) {
	return s.transition(ctx, actor, id, scheduling.ActionConfirm, "")
}

func (s *AppointmentService) Reject(ctx context.Context, actor scheduling.Actor, id int64, reason string) (*models.Appointment, error) {
	return s.transition(ctx, actor, id, scheduling.ActionReject, reason)
}

func (s *AppointmentService) Cancel(ctx context.Context, actor scheduling.Actor, id int64) (*models.Appointment, error) {
	return s.transition(ctx, actor, id, scheduling.ActionCancel, "")
}

func (s *AppointmentService) transition(
	ctx context.Context,
	actor scheduling.Actor,
	id int64,
	action scheduling.Action,
	reason string,
) (*models.Appointment, error) {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		s.logger.Error().Err(err).Int64("appointment_id", id).Msg("failed to load appointment")
		return nil, err
	}

	if err := scheduling.Authorize(appt, actor, action); err != nil {
		metrics.IncTransition(string(action), scheduling.Kind(err))
		return nil, err
	}

	next, err := s.rules.Transition(appt, action, actor, reason, s.clock())
	if err != nil {
		metrics.IncTransition(string(action), scheduling.Kind(err))
		return nil, err
	}

	if err := s.repo.UpdateAppointmentWithVersion(ctx, next); err != nil {
		if errors.Is(err, database.ErrConcurrentModification) {
			metrics.IncTransition(string(action), "concurrent_modification")
			return nil, err
		}
		s.logger.Error().Err(err).Int64("appointment_id", id).Str("action", string(action)).Msg("failed to persist transition")
		return nil, err
	}

	metrics.IncTransition(string(action), "ok")
	s.logger.Info().
		Int64("appointment_id", id).
		Str("action", string(action)).
		Str("status", next.Status).
		Int64("actor_id", actor.ID).
		Msg("appointment status changed")

	eventType := map[scheduling.Action]string{
		scheduling.ActionConfirm: events.EventAppointmentConfirmed,
		scheduling.ActionReject:  events.EventAppointmentRejected,
		scheduling.ActionCancel:  events.EventAppointmentCancelled,
	}[action]
	s.publishEvent(eventType, next, actor)

	return next, nil
}

func (s *AppointmentService) ListForPatient(ctx context.Context, patientID int64) ([]*models.AppointmentView, error) {
	views, err := s.repo.ListPatientAppointments(ctx, patientID)
	if err != nil {
		return nil, err
	}
	s.annotate(views)
	return views, nil
}

func (s *AppointmentService) ListForDoctor(ctx context.Context, doctorID int64, filter models.AppointmentFilter) ([]*models.AppointmentView, error) {
	if err := validateRange(filter.From, filter.To); err != nil {
		return nil, err
	}
	views, err := s.repo.ListDoctorAppointments(ctx, doctorID, filter)
	if err != nil {
		return nil, err
	}
	s.annotate(views)
	return views, nil
}

// annotate sets CanCancel against a single instant so a listing is
// internally consistent.
func (s *AppointmentService) annotate(views []*models.AppointmentView) {
	now := s.clock()
	for _, v := range views {
		v.CanCancel = s.rules.CanBeCancelled(&v.Appointment, now)
	}
}

func validateRange(from, to string) error {
	var fromDate, toDate time.Time
	var err error
	if from != "" {
		if fromDate, err = time.Parse(models.DateLayout, from); err != nil {
			return validationError("from must be YYYY-MM-DD")
		}
	}
	if to != "" {
		if toDate, err = time.Parse(models.DateLayout, to); err != nil {
			return validationError("to must be YYYY-MM-DD")
		}
	}
	if from != "" && to != "" && toDate.Before(fromDate) {
		return validationError("to must not be before from")
	}
	return nil
}

func (s *AppointmentService) publishEvent(eventType string, appt *models.Appointment, actor scheduling.Actor) {
	payload := events.AppointmentEventPayload{
		AppointmentID:    appt.ID,
		PatientID:        appt.PatientID,
		DoctorID:         appt.DoctorID,
		Date:             appt.Date,
		Time:             appt.Time,
		ConsultationType: appt.ConsultationType,
		Status:           appt.Status,
		ChangedBy:        actor.Role,
		ChangedByID:      actor.ID,
	}
	if appt.RejectionReason != nil {
		payload.Reason = *appt.RejectionReason
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Int64("appointment_id", appt.ID).Msg("failed to publish event")
	}
}
