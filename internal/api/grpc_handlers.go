package api

import (
	"context"
	"errors"
	"strings"

	"meetmed/internal/models"
	"meetmed/internal/service"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AvailabilityService answers partner availability queries from the
// doctor directory.
type AvailabilityService struct {
	doctors *service.DoctorService
	logger  *zerolog.Logger
}

func NewAvailabilityService(doctors *service.DoctorService, logger *zerolog.Logger) *AvailabilityService {
	return &AvailabilityService{doctors: doctors, logger: logger}
}

func (s *AvailabilityService) GetAvailability(ctx context.Context, req *GetAvailabilityRequest) (*GetAvailabilityResponse, error) {
	if req.DoctorID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "doctor_id is required")
	}
	date := strings.TrimSpace(req.Date)
	if date == "" {
		return nil, status.Error(codes.InvalidArgument, "date is required")
	}
	return s.availability(ctx, req.DoctorID, date)
}

func (s *AvailabilityService) GetAvailabilityBulk(ctx context.Context, req *GetAvailabilityBulkRequest) (*GetAvailabilityBulkResponse, error) {
	if len(req.DoctorIDs) == 0 {
		return nil, status.Error(codes.InvalidArgument, "doctor_ids is required")
	}
	if len(req.Dates) == 0 {
		return nil, status.Error(codes.InvalidArgument, "dates is required")
	}
	if len(req.DoctorIDs)*len(req.Dates) > maxBulkQueries {
		return nil, status.Errorf(codes.InvalidArgument, "at most %d doctor/date pairs per request", maxBulkQueries)
	}

	results := make([]*Availability, 0, len(req.DoctorIDs)*len(req.Dates))
	for _, doctorID := range req.DoctorIDs {
		for _, date := range req.Dates {
			a, err := s.availability(ctx, doctorID, strings.TrimSpace(date))
			if status.Code(err) == codes.NotFound {
				// Skip unknown doctors rather than failing the whole request.
				break
			}
			if err != nil {
				return nil, err
			}
			results = append(results, a)
		}
	}
	return &GetAvailabilityBulkResponse{Results: results}, nil
}

func (s *AvailabilityService) ListDoctors(ctx context.Context, req *ListDoctorsRequest) (*ListDoctorsResponse, error) {
	doctors, err := s.doctors.List(ctx, models.DoctorFilter{
		Specialty: strings.TrimSpace(req.Specialty),
		City:      strings.TrimSpace(req.City),
		Query:     strings.TrimSpace(req.Query),
	})
	if err != nil {
		return nil, s.statusError(err)
	}
	out := make([]*DoctorInfo, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, &DoctorInfo{
			ID:              d.ID,
			Name:            d.Name,
			Specialty:       d.Specialty,
			City:            d.City,
			Address:         d.Address,
			ConsultationFee: d.ConsultationFee,
		})
	}
	return &ListDoctorsResponse{Doctors: out}, nil
}

func (s *AvailabilityService) availability(ctx context.Context, doctorID int64, date string) (*Availability, error) {
	result, err := s.doctors.Availability(ctx, doctorID, date)
	if err != nil {
		return nil, s.statusError(err)
	}
	return &Availability{
		DoctorID:  result.DoctorID,
		Date:      result.Date,
		Available: len(result.Slots) > 0,
		Slots:     result.Slots,
	}, nil
}

func (s *AvailabilityService) statusError(err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		s.logger.Error().Err(err).Msg("availability query failed")
		return status.Error(codes.Internal, "internal error")
	}
}
