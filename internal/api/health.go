package api

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pielarmonia/booking-service/internal/booking"
)

type HealthHandler struct {
	store   booking.Store
	redis   *redis.Client // nil when the rate limiter is disabled
	env     string
	version string
}

func NewHealthHandler(store booking.Store, rdb *redis.Client, env, version string) *HealthHandler {
	return &HealthHandler{
		store:   store,
		redis:   rdb,
		env:     env,
		version: version,
	}
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Env     string `json:"env,omitempty"`
}

type ReadinessResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	resp := LivenessResponse{
		Status:  "ok",
		Version: h.version,
		Env:     h.env,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	deps := make(map[string]string)
	status := "ok"

	// The store must be readable, or nothing works.
	if _, err := h.store.Load(); err != nil {
		deps["store"] = "down"
		status = "error"
	} else {
		deps["store"] = "ok"
	}

	// Redis only degrades the service: the limiter fails open.
	if h.redis != nil {
		redisCtx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		err := h.redis.Ping(redisCtx).Err()
		cancel()
		if err != nil {
			deps["redis"] = "down"
			if status == "ok" {
				status = "degraded"
			}
		} else {
			deps["redis"] = "ok"
		}
	}

	resp := ReadinessResponse{
		Status:       status,
		Version:      h.version,
		Env:          h.env,
		Dependencies: deps,
	}

	httpStatus := http.StatusOK
	if status == "error" {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, resp)
}
