package worker

import (
	"context"
	"fmt"
	"time"

	"meetmed/internal/domain"
	"meetmed/internal/models"
	"meetmed/internal/notify"

	"github.com/rs/zerolog"
)

// ReminderScheduler enqueues reminder emails once a day for the next
// day's confirmed appointments.
type ReminderScheduler struct {
	repo     domain.ReminderRepository
	queue    domain.NotificationQueue
	at       time.Duration
	location *time.Location
	now      func() time.Time
	logger   *zerolog.Logger
}

// NewReminderScheduler runs daily at the given offset from midnight in loc.
func NewReminderScheduler(
	repo domain.ReminderRepository,
	queue domain.NotificationQueue,
	at time.Duration,
	loc *time.Location,
	logger *zerolog.Logger,
) *ReminderScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ReminderScheduler{repo: repo, queue: queue, at: at, location: loc, now: time.Now, logger: logger}
}

func (s *ReminderScheduler) Start(ctx context.Context) {
	s.logger.Info().Dur("at", s.at).Msg("reminder scheduler started")
	for {
		wait := s.nextRun(s.now()).Sub(s.now())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Msg("reminder scheduler stopped")
			return
		case <-timer.C:
			if n, err := s.RunOnce(ctx); err != nil {
				s.logger.Error().Err(err).Msg("reminder run failed")
			} else {
				s.logger.Info().Int("reminders", n).Msg("reminders enqueued")
			}
		}
	}
}

// nextRun is the first scheduled instant strictly after now.
func (s *ReminderScheduler) nextRun(now time.Time) time.Time {
	local := now.In(s.location)
	run := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location).Add(s.at)
	if !run.After(local) {
		run = time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, s.location).Add(s.at)
	}
	return run
}

// RunOnce enqueues a reminder for every confirmed appointment tomorrow and
// returns how many were enqueued.
func (s *ReminderScheduler) RunOnce(ctx context.Context) (int, error) {
	local := s.now().In(s.location)
	tomorrow := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, s.location).Format(models.DateLayout)

	appts, err := s.repo.ListConfirmedAppointmentsOn(ctx, tomorrow)
	if err != nil {
		return 0, fmt.Errorf("list appointments on %s: %w", tomorrow, err)
	}

	sent := 0
	for _, a := range appts {
		if a.Patient == nil || a.Patient.Email == "" {
			continue
		}
		data := notify.MessageData{
			Recipient:        notify.RecipientPatient,
			RecipientName:    a.Patient.Name,
			PatientName:      a.Patient.Name,
			Date:             a.Date,
			Time:             a.Time,
			ConsultationType: a.ConsultationType,
		}
		if a.Doctor != nil {
			data.DoctorName = a.Doctor.Name
			data.Specialty = a.Doctor.Specialty
			data.Address = a.Doctor.Address
			data.City = a.Doctor.City
		}
		if err := s.queue.Enqueue(ctx, notify.KindAppointmentReminder, a.ID, a.Patient.Email, data); err != nil {
			s.logger.Error().Err(err).Int64("appointment_id", a.ID).Msg("failed to enqueue reminder")
			continue
		}
		sent++
	}
	return sent, nil
}
