package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"meetmed/internal/auth"
	"meetmed/internal/database"
	"meetmed/internal/domain"
	"meetmed/internal/models"
	"meetmed/internal/scheduling"

	"github.com/rs/zerolog"
)

// LoginLimits bounds login attempts per account email.
type LoginLimits struct {
	Attempts int
	Window   time.Duration
}

// AuthResult is returned by registration, login and password change.
type AuthResult struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresAt   time.Time      `json:"expires_at"`
	Account     models.Account `json:"-"`
	Profile     any            `json:"-"`
}

// ProfileUpdate carries a partial profile change. Nil fields are kept.
// Fields that do not apply to the caller's role are ignored.
type ProfileUpdate struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	City    *string `json:"city"`

	DateOfBirth *string `json:"date_of_birth"`
	Gender      *string `json:"gender"`

	Specialty       *string  `json:"specialty"`
	LicenseNumber   *string  `json:"license_number"`
	Bio             *string  `json:"bio"`
	ConsultationFee *float64 `json:"consultation_fee"`
	YearsExperience *int     `json:"years_experience"`

	Type         *string   `json:"type"`
	Description  *string   `json:"description"`
	Website      *string   `json:"website"`
	Services     *[]string `json:"services"`
	Equipment    *[]string `json:"equipment"`
	Emergency24h *bool     `json:"emergency_24h"`
	Parking      *bool     `json:"parking"`
}

type AccountService struct {
	repo     domain.AccountRepository
	sessions domain.SessionStore
	tokens   *auth.TokenManager
	hasher   *auth.Hasher
	limits   LoginLimits
	clock    domain.Clock
	logger   *zerolog.Logger
}

func NewAccountService(
	repo domain.AccountRepository,
	sessions domain.SessionStore,
	tokens *auth.TokenManager,
	hasher *auth.Hasher,
	limits LoginLimits,
	clock domain.Clock,
	logger *zerolog.Logger,
) *AccountService {
	if limits.Attempts <= 0 {
		limits.Attempts = 5
	}
	if limits.Window <= 0 {
		limits.Window = 15 * time.Minute
	}
	if clock == nil {
		clock = time.Now
	}
	return &AccountService{
		repo:     repo,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		limits:   limits,
		clock:    clock,
		logger:   logger,
	}
}

func (s *AccountService) RegisterPatient(ctx context.Context, p *models.Patient, password string) (*AuthResult, error) {
	if err := validateRegistration(p.Name, p.Email, password); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	p.PasswordHash = hash
	if err := s.repo.CreatePatient(ctx, p); err != nil {
		return nil, mapAccountError(err)
	}
	s.logger.Info().Int64("patient_id", p.ID).Msg("patient registered")
	return s.issue(models.Account{ID: p.ID, Role: models.RolePatient, Email: p.Email}, p)
}

func (s *AccountService) RegisterDoctor(ctx context.Context, d *models.Doctor, password string) (*AuthResult, error) {
	if err := validateRegistration(d.Name, d.Email, password); err != nil {
		return nil, err
	}
	if strings.TrimSpace(d.Specialty) == "" {
		return nil, validationError("specialty is required")
	}
	if d.ConsultationFee < 0 || d.YearsExperience < 0 {
		return nil, validationError("fee and experience must not be negative")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	d.PasswordHash = hash
	if err := s.repo.CreateDoctor(ctx, d); err != nil {
		return nil, mapAccountError(err)
	}
	s.logger.Info().Int64("doctor_id", d.ID).Msg("doctor registered")
	return s.issue(models.Account{ID: d.ID, Role: models.RoleDoctor, Email: d.Email}, d)
}

func (s *AccountService) RegisterClinic(ctx context.Context, c *models.Clinic, password string) (*AuthResult, error) {
	if err := validateRegistration(c.Name, c.Email, password); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	c.PasswordHash = hash
	if err := s.repo.CreateClinic(ctx, c); err != nil {
		return nil, mapAccountError(err)
	}
	s.logger.Info().Int64("clinic_id", c.ID).Msg("clinic registered")
	return s.issue(models.Account{ID: c.ID, Role: models.RoleClinic, Email: c.Email}, c)
}

// Login checks credentials for role. Every attempt counts against the
// per-email limit; a successful login clears the counter.
func (s *AccountService) Login(ctx context.Context, role, email, password string) (*AuthResult, error) {
	if !validRole(role) {
		return nil, validationError("unknown account type %q", role)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	limitKey := "login:" + role + ":" + email

	allowed, err := s.sessions.CheckRateLimit(ctx, limitKey, s.limits.Attempts, s.limits.Window)
	if err != nil {
		s.logger.Warn().Err(err).Msg("login rate limit check failed")
	} else if !allowed {
		return nil, ErrTooManyAttempts
	}

	creds, err := s.repo.GetCredentials(ctx, role, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := s.hasher.Compare(creds.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.sessions.ResetRateLimit(ctx, limitKey); err != nil {
		s.logger.Warn().Err(err).Msg("failed to reset login counter")
	}

	account := models.Account{ID: creds.ID, Role: role, Email: creds.Email}
	profile, err := s.Profile(ctx, account)
	if err != nil {
		return nil, err
	}
	return s.issue(account, profile)
}

// Authenticate resolves a bearer token into an account, rejecting tokens
// issued before the account's last revocation.
func (s *AccountService) Authenticate(ctx context.Context, raw string) (models.Account, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return models.Account{}, scheduling.ErrUnauthenticated
	}
	account, err := claims.Account()
	if err != nil {
		return models.Account{}, scheduling.ErrUnauthenticated
	}

	revoked, err := s.sessions.RevokedAt(ctx, auth.Subject(account.Role, account.ID))
	if err != nil {
		return models.Account{}, err
	}
	if !revoked.IsZero() && claims.IssuedAt != nil && claims.IssuedAt.Time.Before(revoked) {
		return models.Account{}, scheduling.ErrUnauthenticated
	}
	return account, nil
}

func (s *AccountService) Profile(ctx context.Context, account models.Account) (any, error) {
	var (
		profile any
		err     error
	)
	switch account.Role {
	case models.RolePatient:
		profile, err = s.repo.GetPatient(ctx, account.ID)
	case models.RoleDoctor:
		profile, err = s.repo.GetDoctor(ctx, account.ID)
	case models.RoleClinic:
		profile, err = s.repo.GetClinic(ctx, account.ID)
	default:
		return nil, scheduling.ErrUnauthenticated
	}
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("account")
	}
	return profile, err
}

func (s *AccountService) UpdateProfile(ctx context.Context, account models.Account, upd ProfileUpdate) (any, error) {
	if upd.Email != nil {
		if !validEmail(*upd.Email) {
			return nil, validationError("email is invalid")
		}
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, validationError("name must not be empty")
	}

	profile, err := s.Profile(ctx, account)
	if err != nil {
		return nil, err
	}

	switch p := profile.(type) {
	case *models.Patient:
		applyCommon(upd, &p.Name, &p.Email, &p.Phone, &p.Address)
		setString(&p.DateOfBirth, upd.DateOfBirth)
		setString(&p.Gender, upd.Gender)
		err = s.repo.UpdatePatient(ctx, p)
	case *models.Doctor:
		applyCommon(upd, &p.Name, &p.Email, &p.Phone, &p.Address)
		setString(&p.City, upd.City)
		setString(&p.Specialty, upd.Specialty)
		setString(&p.LicenseNumber, upd.LicenseNumber)
		setString(&p.Bio, upd.Bio)
		if upd.ConsultationFee != nil {
			if *upd.ConsultationFee < 0 {
				return nil, validationError("consultation fee must not be negative")
			}
			p.ConsultationFee = *upd.ConsultationFee
		}
		if upd.YearsExperience != nil {
			if *upd.YearsExperience < 0 {
				return nil, validationError("years of experience must not be negative")
			}
			p.YearsExperience = *upd.YearsExperience
		}
		err = s.repo.UpdateDoctor(ctx, p)
	case *models.Clinic:
		applyCommon(upd, &p.Name, &p.Email, &p.Phone, &p.Address)
		setString(&p.City, upd.City)
		setString(&p.Type, upd.Type)
		setString(&p.Description, upd.Description)
		setString(&p.Website, upd.Website)
		if upd.Services != nil {
			p.Services = *upd.Services
		}
		if upd.Equipment != nil {
			p.Equipment = *upd.Equipment
		}
		if upd.Emergency24h != nil {
			p.Emergency24h = *upd.Emergency24h
		}
		if upd.Parking != nil {
			p.Parking = *upd.Parking
		}
		err = s.repo.UpdateClinic(ctx, p)
	}
	if err != nil {
		return nil, mapAccountError(err)
	}
	return profile, nil
}

// ChangePassword replaces the password and revokes every token issued
// before the change. The returned token is valid for the new password.
func (s *AccountService) ChangePassword(ctx context.Context, account models.Account, current, next string) (*AuthResult, error) {
	if len(next) < models.MinPasswordLength {
		return nil, validationError("new password must be at least %d characters", models.MinPasswordLength)
	}
	if current == next {
		return nil, validationError("new password must differ from the current one")
	}

	creds, err := s.repo.GetCredentialsByID(ctx, account.Role, account.ID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("account")
	}
	if err != nil {
		return nil, err
	}
	if err := s.hasher.Compare(creds.PasswordHash, current); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, validationError("current password is incorrect")
		}
		return nil, err
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePassword(ctx, account.Role, account.ID, hash); err != nil {
		return nil, mapAccountError(err)
	}

	if err := s.sessions.RevokeTokens(ctx, auth.Subject(account.Role, account.ID), s.clock(), s.tokens.TTL()); err != nil {
		s.logger.Error().Err(err).Int64("account_id", account.ID).Str("role", account.Role).Msg("failed to revoke tokens")
		return nil, err
	}
	s.logger.Info().Int64("account_id", account.ID).Str("role", account.Role).Msg("password changed")

	return s.issue(account, nil)
}

func (s *AccountService) issue(account models.Account, profile any) (*AuthResult, error) {
	token, expires, err := s.tokens.Issue(account)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expires,
		Account:     account,
		Profile:     profile,
	}, nil
}

func validateRegistration(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return validationError("name is required")
	}
	if !validEmail(email) {
		return validationError("email is invalid")
	}
	if len(password) < models.MinPasswordLength {
		return validationError("password must be at least %d characters", models.MinPasswordLength)
	}
	return nil
}

// validEmail accepts a bare address only, not "Name <addr>".
func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func validRole(role string) bool {
	return role == models.RolePatient || role == models.RoleDoctor || role == models.RoleClinic
}

func mapAccountError(err error) error {
	switch {
	case errors.Is(err, database.ErrDuplicateEmail):
		return ErrEmailTaken
	case errors.Is(err, database.ErrNotFound):
		return notFound("account")
	default:
		return err
	}
}

func applyCommon(upd ProfileUpdate, name, email, phone, address *string) {
	setString(name, upd.Name)
	setString(email, upd.Email)
	setString(phone, upd.Phone)
	setString(address, upd.Address)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
