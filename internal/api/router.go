package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Mateen-Abid/carelinx-app/internal/booking"
	"github.com/Mateen-Abid/carelinx-app/internal/catalog"
)

type RouterConfig struct {
	Lifecycle *booking.Lifecycle
	Creator   booking.Creator
	Resolver  *catalog.Resolver
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Logger    zerolog.Logger
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Catalog resolution needs no actor; it backs the booking flow
	// before an identity-scoped record exists.
	r.Get("/catalog/resolve", resolveServiceHandler(cfg.Resolver))
	r.Get("/catalog/clinics/{id}/doctors", matchDoctorsHandler(cfg.Resolver))

	r.Group(func(r chi.Router) {
		r.Use(ActorMiddleware)

		r.Post("/appointments", createAppointmentHandler(cfg.Creator))
		r.Get("/patients/{id}/appointments", listPatientAppointmentsHandler(cfg.Lifecycle))
		r.Get("/patients/{id}/appointments/views", patientViewsHandler(cfg.Lifecycle))
		r.Get("/clinics/{id}/appointments", listClinicAppointmentsHandler(cfg.Lifecycle))

		lc := cfg.Lifecycle
		r.Post("/appointments/{id}/approve", transitionHandler(func(req *http.Request, actor booking.Actor, id uuid.UUID) (*booking.Appointment, error) {
			return lc.Approve(req.Context(), actor, id)
		}))
		r.Post("/appointments/{id}/cancel", transitionHandler(func(req *http.Request, actor booking.Actor, id uuid.UUID) (*booking.Appointment, error) {
			return lc.Cancel(req.Context(), actor, id)
		}))
		r.Post("/appointments/{id}/reschedule", rescheduleHandler(lc))
		r.Post("/appointments/{id}/accept-reschedule", transitionHandler(func(req *http.Request, actor booking.Actor, id uuid.UUID) (*booking.Appointment, error) {
			return lc.AcceptReschedule(req.Context(), actor, id)
		}))
		r.Post("/appointments/{id}/request-reschedule", transitionHandler(func(req *http.Request, actor booking.Actor, id uuid.UUID) (*booking.Appointment, error) {
			return lc.RequestReschedule(req.Context(), actor, id)
		}))
		r.Post("/appointments/{id}/complete", transitionHandler(func(req *http.Request, actor booking.Actor, id uuid.UUID) (*booking.Appointment, error) {
			return lc.Complete(req.Context(), actor, id)
		}))
	})

	return r
}
