package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"meetmed/internal/models"
	"meetmed/internal/service"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object from the body. An empty body is
// accepted when optional is true.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON body: %v", service.ErrValidation, err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", service.ErrValidation, name)
	}
	return id, nil
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`

	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`

	Specialty       string  `json:"specialty"`
	LicenseNumber   string  `json:"license_number"`
	Bio             string  `json:"bio"`
	ConsultationFee float64 `json:"consultation_fee"`
	YearsExperience int     `json:"years_experience"`

	Type         string   `json:"type"`
	Description  string   `json:"description"`
	Website      string   `json:"website"`
	Services     []string `json:"services"`
	Equipment    []string `json:"equipment"`
	Emergency24h bool     `json:"emergency_24h"`
	Parking      bool     `json:"parking"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// authResponse carries the token and, keyed by role, the account profile.
func authResponse(result *service.AuthResult) map[string]any {
	resp := map[string]any{
		"access_token": result.AccessToken,
		"token_type":   result.TokenType,
		"expires_at":   result.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if result.Profile != nil {
		resp[result.Account.Role] = result.Profile
	}
	return resp
}

func (h *handler) registerPatient(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	result, err := h.Accounts.RegisterPatient(r.Context(), &models.Patient{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
	}, req.Password)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse(result))
}

func (h *handler) registerDoctor(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	result, err := h.Accounts.RegisterDoctor(r.Context(), &models.Doctor{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Specialty:       req.Specialty,
		LicenseNumber:   req.LicenseNumber,
		Address:         req.Address,
		City:            req.City,
		Bio:             req.Bio,
		ConsultationFee: req.ConsultationFee,
		YearsExperience: req.YearsExperience,
	}, req.Password)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse(result))
}

func (h *handler) registerClinic(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	result, err := h.Accounts.RegisterClinic(r.Context(), &models.Clinic{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		City:         req.City,
		Type:         req.Type,
		Description:  req.Description,
		Website:      req.Website,
		Services:     req.Services,
		Equipment:    req.Equipment,
		Emergency24h: req.Emergency24h,
		Parking:      req.Parking,
	}, req.Password)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse(result))
}

func (h *handler) login(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req, false); err != nil {
			respondError(w, r, h.logger, err)
			return
		}
		result, err := h.Accounts.Login(r.Context(), role, req.Email, req.Password)
		if err != nil {
			respondError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, authResponse(result))
	}
}

func (h *handler) profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Accounts.Profile(r.Context(), currentAccount(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var upd service.ProfileUpdate
	if err := decodeJSON(w, r, &upd, false); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	profile, err := h.Accounts.UpdateProfile(r.Context(), currentAccount(r), upd)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	result, err := h.Accounts.ChangePassword(r.Context(), currentAccount(r), req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse(result))
}
