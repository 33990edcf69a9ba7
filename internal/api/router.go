package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pielarmonia/booking-service/internal/booking"
)

type RouterConfig struct {
	Service *booking.Service
	Store   booking.Store
	Redis   *redis.Client // optional; enables the booking rate limiter
	Logger  *zap.Logger

	RateLimit int // booking writes per minute per client
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.Store, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Get("/appointments", listAppointmentsHandler(cfg.Store))
	r.Get("/booked-slots", bookedSlotsHandler(cfg.Store))

	r.Group(func(r chi.Router) {
		if cfg.Redis != nil && cfg.RateLimit > 0 {
			r.Use(RateLimitMiddleware(cfg.Redis, cfg.RateLimit, cfg.Logger))
		}
		r.Post("/appointments", createAppointmentHandler(cfg.Service))
		r.Patch("/appointments", updateAppointmentHandler(cfg.Service))
		r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Service))
		r.Post("/reschedule", rescheduleHandler(cfg.Service))
	})

	return r
}
