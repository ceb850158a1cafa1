package service

import (
	"context"
	"errors"
	"time"

	"meetmed/internal/database"
	"meetmed/internal/domain"
	"meetmed/internal/models"
	"meetmed/internal/scheduling"

	"github.com/rs/zerolog"
)

// Availability lists the free start times of a doctor on a date.
type Availability struct {
	DoctorID int64    `json:"doctor_id"`
	Date     string   `json:"date"`
	Slots    []string `json:"slots"`
}

type DoctorService struct {
	repo     domain.DoctorRepository
	rules    scheduling.Rules
	slotStep time.Duration
	clock    domain.Clock
	logger   *zerolog.Logger
}

func NewDoctorService(
	repo domain.DoctorRepository,
	rules scheduling.Rules,
	slotStep time.Duration,
	clock domain.Clock,
	logger *zerolog.Logger,
) *DoctorService {
	if slotStep <= 0 {
		slotStep = models.DefaultSlotStepMinutes * time.Minute
	}
	if clock == nil {
		clock = time.Now
	}
	return &DoctorService{repo: repo, rules: rules, slotStep: slotStep, clock: clock, logger: logger}
}

func (s *DoctorService) List(ctx context.Context, filter models.DoctorFilter) ([]*models.Doctor, error) {
	doctors, err := s.repo.ListDoctors(ctx, filter)
	if err != nil {
		return nil, err
	}
	if doctors == nil {
		doctors = []*models.Doctor{}
	}
	return doctors, nil
}

// Get returns the doctor profile with working hours attached.
func (s *DoctorService) Get(ctx context.Context, id int64) (*models.Doctor, error) {
	d, err := s.repo.GetDoctor(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("doctor")
	}
	if err != nil {
		return nil, err
	}
	hours, err := s.repo.GetDoctorSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	d.WorkingHours = hours
	return d, nil
}

func (s *DoctorService) SetWorkingHours(ctx context.Context, doctorID int64, hours models.WorkingHours) (models.WorkingHours, error) {
	if err := hours.Validate(); err != nil {
		return nil, validationError("%v", err)
	}
	if err := s.repo.ReplaceDoctorSchedule(ctx, doctorID, hours); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("doctor")
		}
		return nil, err
	}
	s.logger.Info().Int64("doctor_id", doctorID).Int("days", len(hours)).Msg("working hours updated")
	return hours, nil
}

// Availability computes bookable start times on date. A doctor without
// configured hours follows opening hours on every open day; a doctor with
// hours is unavailable on days not listed. Dates that fail the booking
// date rules yield no slots.
func (s *DoctorService) Availability(ctx context.Context, doctorID int64, date string) (*Availability, error) {
	parsed, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, validationError("date must be YYYY-MM-DD")
	}
	d, err := s.Get(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	result := &Availability{DoctorID: doctorID, Date: date, Slots: []string{}}

	var day *models.WorkingDay
	if len(d.WorkingHours) > 0 {
		wd, ok := d.WorkingHours.For(parsed.Weekday())
		if !ok {
			return result, nil
		}
		day = &wd
	}

	existing, err := s.repo.GetActiveAppointmentsOn(ctx, date, 0, doctorID)
	if err != nil {
		return nil, err
	}
	if slots := s.rules.FreeSlots(date, day, existing, s.slotStep, s.clock()); slots != nil {
		result.Slots = slots
	}
	return result, nil
}
