package service

import (
	"context"
	"errors"

	"meetmed/internal/database"
	"meetmed/internal/domain"
	"meetmed/internal/models"

	"github.com/rs/zerolog"
)

type FavoriteService struct {
	repo   domain.FavoriteRepository
	logger *zerolog.Logger
}

func NewFavoriteService(repo domain.FavoriteRepository, logger *zerolog.Logger) *FavoriteService {
	return &FavoriteService{repo: repo, logger: logger}
}

func (s *FavoriteService) List(ctx context.Context, patientID int64) ([]*models.Doctor, error) {
	doctors, err := s.repo.ListFavoriteDoctors(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if doctors == nil {
		doctors = []*models.Doctor{}
	}
	return doctors, nil
}

// Add stores the favorite and reports whether it is new.
func (s *FavoriteService) Add(ctx context.Context, patientID, doctorID int64) (bool, error) {
	if _, err := s.repo.GetDoctor(ctx, doctorID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, notFound("doctor")
		}
		return false, err
	}
	created, err := s.repo.AddFavorite(ctx, patientID, doctorID)
	if errors.Is(err, database.ErrNotFound) {
		return false, notFound("doctor")
	}
	return created, err
}

func (s *FavoriteService) Remove(ctx context.Context, patientID, doctorID int64) error {
	err := s.repo.RemoveFavorite(ctx, patientID, doctorID)
	if errors.Is(err, database.ErrNotFound) {
		return notFound("favorite")
	}
	return err
}

func (s *FavoriteService) IsFavorite(ctx context.Context, patientID, doctorID int64) (bool, error) {
	return s.repo.IsFavorite(ctx, patientID, doctorID)
}
