package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavorites(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	p := seedPatient(t, db, "p@example.com")
	d1 := seedDoctor(t, db, "d1@example.com")
	d2 := seedDoctor(t, db, "d2@example.com")

	created, err := db.AddFavorite(ctx, p.ID, d1.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = db.AddFavorite(ctx, p.ID, d1.ID)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = db.AddFavorite(ctx, p.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := db.IsFavorite(ctx, p.ID, d1.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = db.IsFavorite(ctx, p.ID, d2.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := db.ListFavoriteDoctors(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, d1.ID, list[0].ID)

	require.NoError(t, db.RemoveFavorite(ctx, p.ID, d1.ID))
	assert.ErrorIs(t, db.RemoveFavorite(ctx, p.ID, d1.ID), ErrNotFound)
}
