package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"meetmed/internal/database"
	"meetmed/internal/domain"
	"meetmed/internal/models"

	"github.com/rs/zerolog"
)

// ReviewUpdate is a partial review edit. Nil fields are kept.
type ReviewUpdate struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

type ReviewService struct {
	repo     domain.ReviewRepository
	location *time.Location
	clock    domain.Clock
	logger   *zerolog.Logger
}

// NewReviewService builds the service. loc decides where a calendar day
// starts for the one-review-per-day limit.
func NewReviewService(repo domain.ReviewRepository, loc *time.Location, clock domain.Clock, logger *zerolog.Logger) *ReviewService {
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = time.Now
	}
	return &ReviewService{repo: repo, location: loc, clock: clock, logger: logger}
}

func (s *ReviewService) List(ctx context.Context, doctorID int64) ([]*models.Review, error) {
	if err := s.ensureDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	reviews, err := s.repo.ListDoctorReviews(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []*models.Review{}
	}
	return reviews, nil
}

func (s *ReviewService) Stats(ctx context.Context, doctorID int64) (*models.ReviewStats, error) {
	if err := s.ensureDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.repo.DoctorReviewStats(ctx, doctorID)
}

// Create adds a review. A patient may review the same doctor at most once
// per calendar day.
func (s *ReviewService) Create(ctx context.Context, patientID, doctorID int64, rating int, comment string) (*models.Review, error) {
	comment = strings.TrimSpace(comment)
	if err := validateReview(rating, comment); err != nil {
		return nil, err
	}
	if err := s.ensureDoctor(ctx, doctorID); err != nil {
		return nil, err
	}

	now := s.clock().In(s.location)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	count, err := s.repo.CountReviewsSince(ctx, patientID, doctorID, dayStart)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrReviewLimit
	}

	review := &models.Review{
		PatientID:  patientID,
		DoctorID:   doctorID,
		Rating:     rating,
		Comment:    comment,
		IsVerified: true,
	}
	if err := s.repo.CreateReview(ctx, review); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("doctor")
		}
		return nil, err
	}
	s.logger.Info().Int64("review_id", review.ID).Int64("doctor_id", doctorID).Int("rating", rating).Msg("review created")
	return review, nil
}

func (s *ReviewService) Update(ctx context.Context, patientID, reviewID int64, upd ReviewUpdate) (*models.Review, error) {
	review, err := s.owned(ctx, patientID, reviewID)
	if err != nil {
		return nil, err
	}
	if upd.Rating != nil {
		review.Rating = *upd.Rating
	}
	if upd.Comment != nil {
		review.Comment = strings.TrimSpace(*upd.Comment)
	}
	if err := validateReview(review.Rating, review.Comment); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateReview(ctx, review); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("review")
		}
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) Delete(ctx context.Context, patientID, reviewID int64) error {
	if _, err := s.owned(ctx, patientID, reviewID); err != nil {
		return err
	}
	if err := s.repo.DeleteReview(ctx, reviewID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return notFound("review")
		}
		return err
	}
	return nil
}

// owned loads a review written by patientID. Reviews of other patients
// are reported as missing.
func (s *ReviewService) owned(ctx context.Context, patientID, reviewID int64) (*models.Review, error) {
	review, err := s.repo.GetReview(ctx, reviewID)
	if errors.Is(err, database.ErrNotFound) || (err == nil && review.PatientID != patientID) {
		return nil, notFound("review")
	}
	return review, err
}

func (s *ReviewService) ensureDoctor(ctx context.Context, doctorID int64) error {
	_, err := s.repo.GetDoctor(ctx, doctorID)
	if errors.Is(err, database.ErrNotFound) {
		return notFound("doctor")
	}
	return err
}

func validateReview(rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return validationError("rating must be between 1 and 5")
	}
	if len([]rune(comment)) > models.MaxReviewCommentLength {
		return validationError("comment must be at most %d characters", models.MaxReviewCommentLength)
	}
	return nil
}
