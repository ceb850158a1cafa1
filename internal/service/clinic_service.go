package service

import (
	"context"
	"errors"
	"strings"

	"meetmed/internal/database"
	"meetmed/internal/domain"
	"meetmed/internal/models"

	"github.com/rs/zerolog"
)

const defaultClinicRole = "doctor"

// ClinicDetails is a clinic profile with its attached doctors.
type ClinicDetails struct {
	*models.Clinic
	Doctors []*models.ClinicDoctor `json:"doctors"`
}

type ClinicService struct {
	repo   domain.ClinicRepository
	logger *zerolog.Logger
}

func NewClinicService(repo domain.ClinicRepository, logger *zerolog.Logger) *ClinicService {
	return &ClinicService{repo: repo, logger: logger}
}

func (s *ClinicService) List(ctx context.Context, city string) ([]*models.Clinic, error) {
	clinics, err := s.repo.ListClinics(ctx, strings.TrimSpace(city))
	if err != nil {
		return nil, err
	}
	if clinics == nil {
		clinics = []*models.Clinic{}
	}
	return clinics, nil
}

func (s *ClinicService) Get(ctx context.Context, id int64) (*ClinicDetails, error) {
	clinic, err := s.repo.GetClinic(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("clinic")
	}
	if err != nil {
		return nil, err
	}
	doctors, err := s.Doctors(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ClinicDetails{Clinic: clinic, Doctors: doctors}, nil
}

func (s *ClinicService) Doctors(ctx context.Context, clinicID int64) ([]*models.ClinicDoctor, error) {
	doctors, err := s.repo.ListClinicDoctors(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	if doctors == nil {
		doctors = []*models.ClinicDoctor{}
	}
	return doctors, nil
}

// Attach links a doctor to the clinic. Re-attaching updates the role.
func (s *ClinicService) Attach(ctx context.Context, clinicID, doctorID int64, role string) error {
	role = strings.TrimSpace(role)
	if role == "" {
		role = defaultClinicRole
	}
	if len(role) > 100 {
		return validationError("role must be at most 100 characters")
	}
	if _, err := s.repo.GetDoctor(ctx, doctorID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return notFound("doctor")
		}
		return err
	}
	if err := s.repo.AttachDoctor(ctx, clinicID, doctorID, role); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return notFound("clinic")
		}
		return err
	}
	s.logger.Info().Int64("clinic_id", clinicID).Int64("doctor_id", doctorID).Str("role", role).Msg("doctor attached")
	return nil
}

func (s *ClinicService) Detach(ctx context.Context, clinicID, doctorID int64) error {
	err := s.repo.DetachDoctor(ctx, clinicID, doctorID)
	if errors.Is(err, database.ErrNotFound) {
		return notFound("doctor attachment")
	}
	if err == nil {
		s.logger.Info().Int64("clinic_id", clinicID).Int64("doctor_id", doctorID).Msg("doctor detached")
	}
	return err
}
