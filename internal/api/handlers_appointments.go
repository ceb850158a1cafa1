package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"meetmed/internal/export"
	"meetmed/internal/models"
	"meetmed/internal/scheduling"
	"meetmed/internal/service"
)

type bookingRequest struct {
	DoctorID         int64  `json:"doctor_id"`
	Date             string `json:"date"`
	Time             string `json:"time"`
	ConsultationType string `json:"consultation_type"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func actorFrom(r *http.Request) scheduling.Actor {
	account := currentAccount(r)
	return scheduling.Actor{ID: account.ID, Role: account.Role}
}

func (h *handler) bookAppointment(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	appt, err := h.Appointments.Book(r.Context(), currentAccount(r).ID, scheduling.BookingRequest{
		DoctorID:         req.DoctorID,
		Date:             strings.TrimSpace(req.Date),
		Time:             strings.TrimSpace(req.Time),
		ConsultationType: req.ConsultationType,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

func (h *handler) listPatientAppointments(w http.ResponseWriter, r *http.Request) {
	views, err := h.Appointments.ListForPatient(r.Context(), currentAccount(r).ID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(views))
}

func (h *handler) listDoctorAppointments(w http.ResponseWriter, r *http.Request) {
	views, err := h.Appointments.ListForDoctor(r.Context(), currentAccount(r).ID, appointmentFilter(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(views))
}

func appointmentFilter(r *http.Request) models.AppointmentFilter {
	q := r.URL.Query()
	return models.AppointmentFilter{
		Status: strings.TrimSpace(q.Get("status")),
		From:   strings.TrimSpace(q.Get("from")),
		To:     strings.TrimSpace(q.Get("to")),
	}
}

func (h *handler) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int64) (*models.Appointment, error) {
		return h.Appointments.Cancel(r.Context(), actorFrom(r), id)
	})
}

func (h *handler) confirmAppointment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int64) (*models.Appointment, error) {
		return h.Appointments.Confirm(r.Context(), actorFrom(r), id)
	})
}

func (h *handler) rejectAppointment(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.transition(w, r, func(id int64) (*models.Appointment, error) {
		return h.Appointments.Reject(r.Context(), actorFrom(r), id, req.Reason)
	})
}

func (h *handler) transition(w http.ResponseWriter, r *http.Request, apply func(id int64) (*models.Appointment, error)) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	appt, err := apply(id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// exportAppointments streams the doctor's appointments in [from, to] as
// a spreadsheet.
func (h *handler) exportAppointments(w http.ResponseWriter, r *http.Request) {
	filter := appointmentFilter(r)
	if filter.From == "" || filter.To == "" {
		respondError(w, r, h.logger, fmt.Errorf("%w: from and to are required", service.ErrValidation))
		return
	}
	views, err := h.Appointments.ListForDoctor(r.Context(), currentAccount(r).ID, filter)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteAppointments(&buf, filter.From, filter.To, views); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(filter.From, filter.To)))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// nonNil keeps empty listings encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
