package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"meetmed/internal/auth"
	"meetmed/internal/config"
	"meetmed/internal/database"
	"meetmed/internal/models"
	"meetmed/internal/repository"
	"meetmed/internal/scheduling"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type accountFixture struct {
	svc      *AccountService
	repo     *mockAccountRepo
	sessions *repository.MemorySessionStore
	hasher   *auth.Hasher
	now      *time.Time
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	repo := new(mockAccountRepo)
	sessions := repository.NewMemorySessionStore()
	tokens := auth.NewTokenManager(config.APIAuthConfig{
		JWTSecret: "0123456789abcdef0123",
		Issuer:    "meetmed",
		TokenTTL:  time.Hour,
	}, clock)
	hasher := auth.NewHasher(bcrypt.MinCost)
	svc := NewAccountService(repo, sessions, tokens, hasher, LoginLimits{Attempts: 3, Window: time.Minute}, clock, testLogger())

	return &accountFixture{svc: svc, repo: repo, sessions: sessions, hasher: hasher, now: &now}
}

func TestAccountService_RegisterPatient(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newAccountFixture(t)
		f.repo.On("CreatePatient", ctx, mock.MatchedBy(func(p *models.Patient) bool {
			return p.PasswordHash != "" && p.PasswordHash != "secret1"
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Patient).ID = 11
		}).Return(nil).Once()

		res, err := f.svc.RegisterPatient(ctx, &models.Patient{Name: "Amina", Email: "amina@example.com"}, "secret1")
		require.NoError(t, err)
		assert.Equal(t, "Bearer", res.TokenType)
		assert.NotEmpty(t, res.AccessToken)
		assert.Equal(t, models.Account{ID: 11, Role: models.RolePatient, Email: "amina@example.com"}, res.Account)

		account, err := f.svc.Authenticate(ctx, res.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, int64(11), account.ID)
		f.repo.AssertExpectations(t)
	})

	t.Run("Validation", func(t *testing.T) {
		f := newAccountFixture(t)
		cases := []struct {
			name, email, password string
		}{
			{"", "a@example.com", "secret1"},
			{"Amina", "not-an-email", "secret1"},
			{"Amina", "Amina <a@example.com>", "secret1"},
			{"Amina", "a@example.com", "short"},
		}
		for _, tc := range cases {
			_, err := f.svc.RegisterPatient(ctx, &models.Patient{Name: tc.name, Email: tc.email}, tc.password)
			assert.ErrorIs(t, err, ErrValidation, "%+v", tc)
		}
		f.repo.AssertNotCalled(t, "CreatePatient", mock.Anything, mock.Anything)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		f := newAccountFixture(t)
		f.repo.On("CreatePatient", ctx, mock.Anything).Return(database.ErrDuplicateEmail).Once()
		_, err := f.svc.RegisterPatient(ctx, &models.Patient{Name: "Amina", Email: "amina@example.com"}, "secret1")
		assert.ErrorIs(t, err, ErrEmailTaken)
	})
}

func TestAccountService_RegisterDoctorAndClinic(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)

	_, err := f.svc.RegisterDoctor(ctx, &models.Doctor{Name: "Dr. Sara", Email: "sara@example.com"}, "secret1")
	assert.ErrorIs(t, err, ErrValidation, "specialty required")

	_, err = f.svc.RegisterDoctor(ctx, &models.Doctor{Name: "Dr. Sara", Email: "sara@example.com", Specialty: "cardiology", ConsultationFee: -1}, "secret1")
	assert.ErrorIs(t, err, ErrValidation)

	f.repo.On("CreateDoctor", ctx, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Doctor).ID = 2
	}).Return(nil).Once()
	res, err := f.svc.RegisterDoctor(ctx, &models.Doctor{Name: "Dr. Sara", Email: "sara@example.com", Specialty: "cardiology"}, "secret1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleDoctor, res.Account.Role)

	f.repo.On("CreateClinic", ctx, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Clinic).ID = 4
	}).Return(nil).Once()
	res, err = f.svc.RegisterClinic(ctx, &models.Clinic{Name: "Clinique Atlas", Email: "atlas@example.com"}, "secret1")
	require.NoError(t, err)
	assert.Equal(t, models.Account{ID: 4, Role: models.RoleClinic, Email: "atlas@example.com"}, res.Account)
	f.repo.AssertExpectations(t)
}

func TestAccountService_Login(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) *accountFixture {
		f := newAccountFixture(t)
		hash, err := f.hasher.Hash("secret1")
		require.NoError(t, err)
		f.repo.On("GetCredentials", ctx, models.RolePatient, "amina@example.com").
			Return(&models.Credentials{ID: 11, Email: "amina@example.com", PasswordHash: hash}, nil)
		f.repo.On("GetCredentials", ctx, models.RolePatient, "nobody@example.com").
			Return(nil, database.ErrNotFound)
		f.repo.On("GetPatient", ctx, int64(11)).Return(&models.Patient{ID: 11, Name: "Amina"}, nil)
		return f
	}

	t.Run("Success", func(t *testing.T) {
		f := setup(t)
		res, err := f.svc.Login(ctx, models.RolePatient, " AMINA@example.com ", "secret1")
		require.NoError(t, err)
		assert.Equal(t, int64(11), res.Account.ID)
		profile, ok := res.Profile.(*models.Patient)
		require.True(t, ok)
		assert.Equal(t, "Amina", profile.Name)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		f := setup(t)
		_, err := f.svc.Login(ctx, models.RolePatient, "amina@example.com", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		f := setup(t)
		_, err := f.svc.Login(ctx, models.RolePatient, "nobody@example.com", "secret1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownRole", func(t *testing.T) {
		f := setup(t)
		_, err := f.svc.Login(ctx, "admin", "amina@example.com", "secret1")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("Throttled", func(t *testing.T) {
		f := setup(t)
		for i := 0; i < 3; i++ {
			_, err := f.svc.Login(ctx, models.RolePatient, "amina@example.com", "nope")
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		}
		_, err := f.svc.Login(ctx, models.RolePatient, "amina@example.com", "secret1")
		assert.ErrorIs(t, err, ErrTooManyAttempts)
	})

	t.Run("SuccessResetsCounter", func(t *testing.T) {
		f := setup(t)
		for i := 0; i < 2; i++ {
			_, _ = f.svc.Login(ctx, models.RolePatient, "amina@example.com", "nope")
		}
		_, err := f.svc.Login(ctx, models.RolePatient, "amina@example.com", "secret1")
		require.NoError(t, err)
		for i := 0; i < 2; i++ {
			_, err = f.svc.Login(ctx, models.RolePatient, "amina@example.com", "nope")
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		}
	})
}

func TestAccountService_Authenticate(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)

	_, err := f.svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, scheduling.ErrUnauthenticated)

	token, _, err := f.svc.tokens.Issue(models.Account{ID: 3, Role: models.RoleDoctor})
	require.NoError(t, err)
	account, err := f.svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleDoctor, account.Role)

	require.NoError(t, f.sessions.RevokeTokens(ctx, auth.Subject(models.RoleDoctor, 3), f.now.Add(time.Second), time.Hour))
	_, err = f.svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, scheduling.ErrUnauthenticated)
}

func TestAccountService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	account := models.Account{ID: 11, Role: models.RolePatient, Email: "amina@example.com"}

	setup := func(t *testing.T) *accountFixture {
		f := newAccountFixture(t)
		hash, err := f.hasher.Hash("secret1")
		require.NoError(t, err)
		f.repo.On("GetCredentialsByID", ctx, models.RolePatient, int64(11)).
			Return(&models.Credentials{ID: 11, Email: account.Email, PasswordHash: hash}, nil)
		return f
	}

	t.Run("RevokesOldTokens", func(t *testing.T) {
		f := setup(t)
		old, _, err := f.svc.tokens.Issue(account)
		require.NoError(t, err)

		f.repo.On("UpdatePassword", ctx, models.RolePatient, int64(11), mock.MatchedBy(func(h string) bool {
			return f.hasher.Compare(h, "secret2") == nil
		})).Return(nil).Once()

		*f.now = f.now.Add(5 * time.Second)
		res, err := f.svc.ChangePassword(ctx, account, "secret1", "secret2")
		require.NoError(t, err)

		_, err = f.svc.Authenticate(ctx, old)
		assert.ErrorIs(t, err, scheduling.ErrUnauthenticated)

		fresh, err := f.svc.Authenticate(ctx, res.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, account.ID, fresh.ID)
		f.repo.AssertExpectations(t)
	})

	t.Run("WrongCurrent", func(t *testing.T) {
		f := setup(t)
		_, err := f.svc.ChangePassword(ctx, account, "wrong", "secret2")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("SameOrShort", func(t *testing.T) {
		f := setup(t)
		_, err := f.svc.ChangePassword(ctx, account, "secret1", "secret1")
		assert.ErrorIs(t, err, ErrValidation)
		_, err = f.svc.ChangePassword(ctx, account, "secret1", "abc")
		assert.ErrorIs(t, err, ErrValidation)
		f.repo.AssertNotCalled(t, "GetCredentialsByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("StoreFailure", func(t *testing.T) {
		f := setup(t)
		f.repo.On("UpdatePassword", ctx, models.RolePatient, int64(11), mock.Anything).Return(errors.New("readonly")).Once()
		_, err := f.svc.ChangePassword(ctx, account, "secret1", "secret2")
		assert.Error(t, err)
	})
}

func TestAccountService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	str := func(s string) *string { return &s }

	t.Run("DoctorPartial", func(t *testing.T) {
		f := newAccountFixture(t)
		f.repo.On("GetDoctor", ctx, int64(2)).Return(&models.Doctor{ID: 2, Name: "Dr. Sara", Specialty: "cardiology", City: "Rabat"}, nil).Once()
		f.repo.On("UpdateDoctor", ctx, mock.MatchedBy(func(d *models.Doctor) bool {
			return d.City == "Casablanca" && d.Specialty == "cardiology" && d.Name == "Dr. Sara"
		})).Return(nil).Once()

		profile, err := f.svc.UpdateProfile(ctx, models.Account{ID: 2, Role: models.RoleDoctor}, ProfileUpdate{City: str(" Casablanca ")})
		require.NoError(t, err)
		assert.Equal(t, "Casablanca", profile.(*models.Doctor).City)
		f.repo.AssertExpectations(t)
	})

	t.Run("ClinicLists", func(t *testing.T) {
		f := newAccountFixture(t)
		services := []string{"radiology"}
		yes := true
		f.repo.On("GetClinic", ctx, int64(4)).Return(&models.Clinic{ID: 4, Name: "Atlas"}, nil).Once()
		f.repo.On("UpdateClinic", ctx, mock.MatchedBy(func(c *models.Clinic) bool {
			return len(c.Services) == 1 && c.Parking
		})).Return(nil).Once()

		_, err := f.svc.UpdateProfile(ctx, models.Account{ID: 4, Role: models.RoleClinic}, ProfileUpdate{Services: &services, Parking: &yes})
		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("EmailTaken", func(t *testing.T) {
		f := newAccountFixture(t)
		f.repo.On("GetPatient", ctx, int64(11)).Return(&models.Patient{ID: 11, Name: "Amina"}, nil).Once()
		f.repo.On("UpdatePatient", ctx, mock.Anything).Return(database.ErrDuplicateEmail).Once()

		_, err := f.svc.UpdateProfile(ctx, models.Account{ID: 11, Role: models.RolePatient}, ProfileUpdate{Email: str("taken@example.com")})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("Invalid", func(t *testing.T) {
		f := newAccountFixture(t)
		_, err := f.svc.UpdateProfile(ctx, models.Account{ID: 11, Role: models.RolePatient}, ProfileUpdate{Email: str("bad")})
		assert.ErrorIs(t, err, ErrValidation)
		_, err = f.svc.UpdateProfile(ctx, models.Account{ID: 11, Role: models.RolePatient}, ProfileUpdate{Name: str("  ")})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("MissingAccount", func(t *testing.T) {
		f := newAccountFixture(t)
		f.repo.On("GetPatient", ctx, int64(11)).Return(nil, database.ErrNotFound).Once()
		_, err := f.svc.UpdateProfile(ctx, models.Account{ID: 11, Role: models.RolePatient}, ProfileUpdate{})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
