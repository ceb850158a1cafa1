package api

import (
	"context"
	"net/http"

	"meetmed/internal/config"
	"meetmed/internal/models"
	"meetmed/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// HealthChecker reports whether a dependency is ready to serve.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Services are the use cases exposed over HTTP.
type Services struct {
	Accounts     *service.AccountService
	Appointments *service.AppointmentService
	Doctors      *service.DoctorService
	Clinics      *service.ClinicService
	Reviews      *service.ReviewService
	Favorites    *service.FavoriteService
	Health       HealthChecker
}

type handler struct {
	Services
	logger *zerolog.Logger
}

// NewRouter wires every REST route.
func NewRouter(svc Services, cfg config.APIConfig, logger *zerolog.Logger) http.Handler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	httpLogger := logger.With().Str("component", "http").Logger()
	h := &handler{Services: svc, logger: &httpLogger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(h.logger))
	r.Use(middleware.Recoverer)
	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors(cfg.CORS.AllowedOrigins))
	}
	if cfg.HTTP.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))
	}

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimit(newRateLimiter(cfg.RateLimit)))
		authenticated := authenticate(h.Accounts, h.logger)

		// public directory
		r.Get("/doctors", h.listDoctors)
		r.Route("/doctors/{id}", func(r chi.Router) {
			r.Get("/", h.getDoctor)
			r.Get("/availability", h.doctorAvailability)
			r.Get("/reviews", h.listReviews)
			r.Get("/reviews/stats", h.reviewStats)
			r.With(authenticated, requireRole(models.RolePatient)).Post("/reviews", h.createReview)
		})
		r.Get("/clinics", h.listClinics)
		r.Get("/clinics/{id}", h.getClinic)

		r.Route("/patient", func(r chi.Router) {
			r.Post("/register", h.registerPatient)
			r.Post("/login", h.login(models.RolePatient))
			r.Group(func(r chi.Router) {
				r.Use(authenticated, requireRole(models.RolePatient))
				h.accountRoutes(r)
				r.Get("/appointments", h.listPatientAppointments)
				r.Patch("/appointments/{id}/cancel", h.cancelAppointment)
			})
		})

		r.Route("/doctor", func(r chi.Router) {
			r.Post("/register", h.registerDoctor)
			r.Post("/login", h.login(models.RoleDoctor))
			r.Group(func(r chi.Router) {
				r.Use(authenticated, requireRole(models.RoleDoctor))
				h.accountRoutes(r)
				r.Put("/working-hours", h.setWorkingHours)
				r.Get("/appointments", h.listDoctorAppointments)
				r.Get("/appointments/export", h.exportAppointments)
				r.Patch("/appointments/{id}/confirm", h.confirmAppointment)
				r.Patch("/appointments/{id}/reject", h.rejectAppointment)
			})
		})

		r.Route("/clinic", func(r chi.Router) {
			r.Post("/register", h.registerClinic)
			r.Post("/login", h.login(models.RoleClinic))
			r.Group(func(r chi.Router) {
				r.Use(authenticated, requireRole(models.RoleClinic))
				h.accountRoutes(r)
				r.Get("/doctors", h.listClinicDoctors)
				r.Post("/doctors", h.attachDoctor)
				r.Delete("/doctors/{doctorId}", h.detachDoctor)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticated, requireRole(models.RolePatient))
			r.Post("/appointments", h.bookAppointment)

			r.Put("/reviews/{id}", h.updateReview)
			r.Delete("/reviews/{id}", h.deleteReview)

			r.Get("/favorites", h.listFavorites)
			r.Post("/favorites/{doctorId}", h.addFavorite)
			r.Delete("/favorites/{doctorId}", h.removeFavorite)
			r.Get("/favorites/check/{doctorId}", h.checkFavorite)
		})
	})

	return r
}

func (h *handler) accountRoutes(r chi.Router) {
	r.Get("/profile", h.profile)
	r.Put("/profile", h.updateProfile)
	r.Put("/password", h.changePassword)
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health.HealthCheck(r.Context()); err != nil {
			h.logger.Warn().Err(err).Msg("readiness check failed")
			writeError(w, http.StatusServiceUnavailable, "not_ready", "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
