package database

import (
	"context"
	"testing"
	"time"

	"meetmed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviews(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	p1 := seedPatient(t, db, "p1@example.com")
	p2 := seedPatient(t, db, "p2@example.com")
	d := seedDoctor(t, db, "d@example.com")

	start := time.Now().UTC().Add(-time.Minute)

	r1 := &models.Review{PatientID: p1.ID, DoctorID: d.ID, Rating: 5, Comment: "great", IsVerified: true}
	r2 := &models.Review{PatientID: p2.ID, DoctorID: d.ID, Rating: 4, Comment: "good", IsVerified: true}
	hidden := &models.Review{PatientID: p2.ID, DoctorID: d.ID, Rating: 1, Comment: "spam", IsVerified: false}
	for _, r := range []*models.Review{r1, r2, hidden} {
		require.NoError(t, db.CreateReview(ctx, r))
	}

	t.Run("ListVerifiedOnly", func(t *testing.T) {
		list, err := db.ListDoctorReviews(ctx, d.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, r2.ID, list[0].ID)
		assert.Equal(t, p2.Name, list[0].PatientName)
	})

	t.Run("Stats", func(t *testing.T) {
		stats, err := db.DoctorReviewStats(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalReviews)
		assert.InDelta(t, 4.5, stats.AverageRating, 0.0001)
		assert.Equal(t, 1, stats.FiveStars)
		assert.Equal(t, 1, stats.FourStars)
		assert.Equal(t, 0, stats.OneStars)

		empty, err := db.DoctorReviewStats(ctx, 999)
		require.NoError(t, err)
		assert.Equal(t, 0, empty.TotalReviews)
		assert.Zero(t, empty.AverageRating)
	})

	t.Run("CountSince", func(t *testing.T) {
		n, err := db.CountReviewsSince(ctx, p2.ID, d.ID, start)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = db.CountReviewsSince(ctx, p2.ID, d.ID, time.Now().UTC().Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("UpdateDelete", func(t *testing.T) {
		r1.Rating = 3
		r1.Comment = "changed my mind"
		require.NoError(t, db.UpdateReview(ctx, r1))

		got, err := db.GetReview(ctx, r1.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Rating)
		assert.Equal(t, "changed my mind", got.Comment)

		require.NoError(t, db.DeleteReview(ctx, r1.ID))
		_, err = db.GetReview(ctx, r1.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, db.DeleteReview(ctx, r1.ID), ErrNotFound)
		assert.ErrorIs(t, db.UpdateReview(ctx, r1), ErrNotFound)
	})
}

func TestStatsRounding(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	d := seedDoctor(t, db, "d@example.com")

	for i, rating := range []int{5, 4, 4} {
		p := seedPatient(t, db, "r"+string(rune('a'+i))+"@example.com")
		require.NoError(t, db.CreateReview(ctx, &models.Review{PatientID: p.ID, DoctorID: d.ID, Rating: rating, IsVerified: true}))
	}

	stats, err := db.DoctorReviewStats(ctx, d.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.3, stats.AverageRating, 0.0001)
}
