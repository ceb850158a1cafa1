package service

import (
	"context"
	"testing"

	"meetmed/internal/database"
	"meetmed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFavoriteService(t *testing.T) {
	ctx := context.Background()

	t.Run("AddNewAndRepeat", func(t *testing.T) {
		repo := new(mockFavoriteRepo)
		repo.On("GetDoctor", ctx, int64(2)).Return(&models.Doctor{ID: 2}, nil)
		repo.On("AddFavorite", ctx, int64(1), int64(2)).Return(true, nil).Once()
		repo.On("AddFavorite", ctx, int64(1), int64(2)).Return(false, nil).Once()
		svc := NewFavoriteService(repo, testLogger())

		created, err := svc.Add(ctx, 1, 2)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = svc.Add(ctx, 1, 2)
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("AddUnknownDoctor", func(t *testing.T) {
		repo := new(mockFavoriteRepo)
		repo.On("GetDoctor", ctx, int64(9)).Return(nil, database.ErrNotFound).Once()
		_, err := NewFavoriteService(repo, testLogger()).Add(ctx, 1, 9)
		assert.ErrorIs(t, err, ErrNotFound)
		repo.AssertNotCalled(t, "AddFavorite", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("RemoveMissing", func(t *testing.T) {
		repo := new(mockFavoriteRepo)
		repo.On("RemoveFavorite", ctx, int64(1), int64(2)).Return(database.ErrNotFound).Once()
		err := NewFavoriteService(repo, testLogger()).Remove(ctx, 1, 2)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "favorite")
	})

	t.Run("ListEmpty", func(t *testing.T) {
		repo := new(mockFavoriteRepo)
		repo.On("ListFavoriteDoctors", ctx, int64(1)).Return(nil, nil).Once()
		doctors, err := NewFavoriteService(repo, testLogger()).List(ctx, 1)
		require.NoError(t, err)
		assert.NotNil(t, doctors)
	})

	t.Run("IsFavorite", func(t *testing.T) {
		repo := new(mockFavoriteRepo)
		repo.On("IsFavorite", ctx, int64(1), int64(2)).Return(true, nil).Once()
		ok, err := NewFavoriteService(repo, testLogger()).IsFavorite(ctx, 1, 2)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
