package controllers

import (
	"context"
	"net/http"

	"github.com/perfuman/storefront-backend/api/responses"
	"github.com/perfuman/storefront-backend/pkg/config"
)

// Pinger is any backing store that can answer a liveness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Perfuman-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when the backing stores answer.
func HealthReady(cfg *config.Config, db, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Perfuman-Env", cfg.App.Env)

		checks := map[string]string{"db": "ok", "redis": "ok"}
		healthy := true

		if db == nil || db.Ping(r.Context()) != nil {
			checks["db"] = "unreachable"
			healthy = false
		}
		if cache == nil || cache.Ping(r.Context()) != nil {
			checks["redis"] = "unreachable"
			healthy = false
		}

		status := http.StatusOK
		state := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		responses.WriteJSON(w, status, map[string]any{
			"status": state,
			"checks": checks,
		})
	}
}
