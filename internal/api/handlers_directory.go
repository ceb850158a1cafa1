package api

import (
	"net/http"
	"strings"

	"meetmed/internal/models"
	"meetmed/internal/service"
)

// Doctors

func (h *handler) listDoctors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	doctors, err := h.Doctors.List(r.Context(), models.DoctorFilter{
		Specialty: strings.TrimSpace(q.Get("specialty")),
		City:      strings.TrimSpace(q.Get("city")),
		Query:     strings.TrimSpace(q.Get("q")),
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(doctors))
}

func (h *handler) getDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	doctor, err := h.Doctors.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doctor)
}

func (h *handler) doctorAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	availability, err := h.Doctors.Availability(r.Context(), id, strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, availability)
}

func (h *handler) setWorkingHours(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WorkingHours models.WorkingHours `json:"working_hours"`
	}
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	hours, err := h.Doctors.SetWorkingHours(r.Context(), currentAccount(r).ID, req.WorkingHours)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"working_hours": nonNil(hours)})
}

// Clinics

func (h *handler) listClinics(w http.ResponseWriter, r *http.Request) {
	clinics, err := h.Clinics.List(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(clinics))
}

func (h *handler) getClinic(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	clinic, err := h.Clinics.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, clinic)
}

func (h *handler) listClinicDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.Clinics.Doctors(r.Context(), currentAccount(r).ID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(doctors))
}

func (h *handler) attachDoctor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DoctorID int64  `json:"doctor_id"`
		Role     string `json:"role"`
	}
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := h.Clinics.Attach(r.Context(), currentAccount(r).ID, req.DoctorID, req.Role); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "doctor attached"})
}

func (h *handler) detachDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID, err := pathID(r, "doctorId")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := h.Clinics.Detach(r.Context(), currentAccount(r).ID, doctorID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "doctor detached"})
}

// Reviews

func (h *handler) listReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	reviews, err := h.Reviews.List(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(reviews))
}

func (h *handler) reviewStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	stats, err := h.Reviews.Stats(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handler) createReview(w http.ResponseWriter, r *http.Request) {
	doctorID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	review, err := h.Reviews.Create(r.Context(), currentAccount(r).ID, doctorID, req.Rating, req.Comment)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *handler) updateReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	var upd service.ReviewUpdate
	if err := decodeJSON(w, r, &upd, false); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	review, err := h.Reviews.Update(r.Context(), currentAccount(r).ID, id, upd)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (h *handler) deleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := h.Reviews.Delete(r.Context(), currentAccount(r).ID, id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "review deleted"})
}

// Favorites

func (h *handler) listFavorites(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.Favorites.List(r.Context(), currentAccount(r).ID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(doctors))
}

func (h *handler) addFavorite(w http.ResponseWriter, r *http.Request) {
	doctorID, err := pathID(r, "doctorId")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	added, err := h.Favorites.Add(r.Context(), currentAccount(r).ID, doctorID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if !added {
		writeJSON(w, http.StatusOK, map[string]any{"message": "doctor already in favorites", "is_favorite": true})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "doctor added to favorites", "is_favorite": true})
}

func (h *handler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	doctorID, err := pathID(r, "doctorId")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := h.Favorites.Remove(r.Context(), currentAccount(r).ID, doctorID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "doctor removed from favorites", "is_favorite": false})
}

func (h *handler) checkFavorite(w http.ResponseWriter, r *http.Request) {
	doctorID, err := pathID(r, "doctorId")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	ok, err := h.Favorites.IsFavorite(r.Context(), currentAccount(r).ID, doctorID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_favorite": ok})
}
