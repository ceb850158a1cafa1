package service

import (
	"context"
	"io"
	"time"

	"meetmed/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) // Sunday

func fixedClock() time.Time { return testNow }

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

type mockAppointmentRepo struct {
	mock.Mock
}

func (m *mockAppointmentRepo) CreateAppointmentWithLock(ctx context.Context, appt *models.Appointment, check func([]*models.Appointment) error) error {
	return m.Called(ctx, appt, check).Error(0)
}

func (m *mockAppointmentRepo) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) UpdateAppointmentWithVersion(ctx context.Context, appt *models.Appointment) error {
	return m.Called(ctx, appt).Error(0)
}

func (m *mockAppointmentRepo) ListPatientAppointments(ctx context.Context, patientID int64) ([]*models.AppointmentView, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AppointmentView), args.Error(1)
}

func (m *mockAppointmentRepo) ListDoctorAppointments(ctx context.Context, doctorID int64, filter models.AppointmentFilter) ([]*models.AppointmentView, error) {
	args := m.Called(ctx, doctorID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AppointmentView), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

type mockAccountRepo struct {
	mock.Mock
}

func (m *mockAccountRepo) GetCredentials(ctx context.Context, role, email string) (*models.Credentials, error) {
	args := m.Called(ctx, role, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Credentials), args.Error(1)
}

func (m *mockAccountRepo) GetCredentialsByID(ctx context.Context, role string, id int64) (*models.Credentials, error) {
	args := m.Called(ctx, role, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Credentials), args.Error(1)
}

func (m *mockAccountRepo) UpdatePassword(ctx context.Context, role string, id int64, hash string) error {
	return m.Called(ctx, role, id, hash).Error(0)
}

func (m *mockAccountRepo) CreatePatient(ctx context.Context, p *models.Patient) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockAccountRepo) GetPatient(ctx context.Context, id int64) (*models.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Patient), args.Error(1)
}

func (m *mockAccountRepo) UpdatePatient(ctx context.Context, p *models.Patient) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockAccountRepo) CreateDoctor(ctx context.Context, d *models.Doctor) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockAccountRepo) GetDoctor(ctx context.Context, id int64) (*models.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Doctor), args.Error(1)
}

func (m *mockAccountRepo) UpdateDoctor(ctx context.Context, d *models.Doctor) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockAccountRepo) CreateClinic(ctx context.Context, c *models.Clinic) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockAccountRepo) GetClinic(ctx context.Context, id int64) (*models.Clinic, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Clinic), args.Error(1)
}

func (m *mockAccountRepo) UpdateClinic(ctx context.Context, c *models.Clinic) error {
	return m.Called(ctx, c).Error(0)
}

type mockDoctorRepo struct {
	mock.Mock
}

func (m *mockDoctorRepo) ListDoctors(ctx context.Context, filter models.DoctorFilter) ([]*models.Doctor, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Doctor), args.Error(1)
}

func (m *mockDoctorRepo) GetDoctor(ctx context.Context, id int64) (*models.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Doctor), args.Error(1)
}

func (m *mockDoctorRepo) GetDoctorSchedule(ctx context.Context, doctorID int64) (models.WorkingHours, error) {
	args := m.Called(ctx, doctorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.WorkingHours), args.Error(1)
}

func (m *mockDoctorRepo) ReplaceDoctorSchedule(ctx context.Context, doctorID int64, hours models.WorkingHours) error {
	return m.Called(ctx, doctorID, hours).Error(0)
}

func (m *mockDoctorRepo) GetActiveAppointmentsOn(ctx context.Context, date string, patientID, doctorID int64) ([]*models.Appointment, error) {
	args := m.Called(ctx, date, patientID, doctorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) GetDoctor(ctx context.Context, id int64) (*models.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Doctor), args.Error(1)
}

func (m *mockReviewRepo) CreateReview(ctx context.Context, r *models.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockReviewRepo) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *mockReviewRepo) UpdateReview(ctx context.Context, r *models.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockReviewRepo) DeleteReview(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockReviewRepo) ListDoctorReviews(ctx context.Context, doctorID int64) ([]*models.Review, error) {
	args := m.Called(ctx, doctorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Review), args.Error(1)
}

func (m *mockReviewRepo) DoctorReviewStats(ctx context.Context, doctorID int64) (*models.ReviewStats, error) {
	args := m.Called(ctx, doctorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewStats), args.Error(1)
}

func (m *mockReviewRepo) CountReviewsSince(ctx context.Context, patientID, doctorID int64, since time.Time) (int, error) {
	args := m.Called(ctx, patientID, doctorID, since)
	return args.Int(0), args.Error(1)
}

type mockFavoriteRepo struct {
	mock.Mock
}

func (m *mockFavoriteRepo) GetDoctor(ctx context.Context, id int64) (*models.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Doctor), args.Error(1)
}

func (m *mockFavoriteRepo) AddFavorite(ctx context.Context, patientID, doctorID int64) (bool, error) {
	args := m.Called(ctx, patientID, doctorID)
	return args.Bool(0), args.Error(1)
}

func (m *mockFavoriteRepo) RemoveFavorite(ctx context.Context, patientID, doctorID int64) error {
	return m.Called(ctx, patientID, doctorID).Error(0)
}

func (m *mockFavoriteRepo) IsFavorite(ctx context.Context, patientID, doctorID int64) (bool, error) {
	args := m.Called(ctx, patientID, doctorID)
	return args.Bool(0), args.Error(1)
}

func (m *mockFavoriteRepo) ListFavoriteDoctors(ctx context.Context, patientID int64) ([]*models.Doctor, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Doctor), args.Error(1)
}

type mockClinicRepo struct {
	mock.Mock
}

func (m *mockClinicRepo) GetClinic(ctx context.Context, id int64) (*models.Clinic, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Clinic), args.Error(1)
}

func (m *mockClinicRepo) ListClinics(ctx context.Context, city string) ([]*models.Clinic, error) {
	args := m.Called(ctx, city)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Clinic), args.Error(1)
}

func (m *mockClinicRepo) GetDoctor(ctx context.Context, id int64) (*models.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Doctor), args.Error(1)
}

func (m *mockClinicRepo) AttachDoctor(ctx context.Context, clinicID, doctorID int64, role string) error {
	return m.Called(ctx, clinicID, doctorID, role).Error(0)
}

func (m *mockClinicRepo) DetachDoctor(ctx context.Context, clinicID, doctorID int64) error {
	return m.Called(ctx, clinicID, doctorID).Error(0)
}

func (m *mockClinicRepo) ListClinicDoctors(ctx context.Context, clinicID int64) ([]*models.ClinicDoctor, error) {
	args := m.Called(ctx, clinicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ClinicDoctor), args.Error(1)
}
