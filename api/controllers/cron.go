package controllers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/perfuman/storefront-backend/api/responses"
	pkgerrors "github.com/perfuman/storefront-backend/pkg/errors"
	"github.com/perfuman/storefront-backend/pkg/logger"
)

type StaleOrderExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

// TriggerOrderExpiration runs the pending-order sweep on demand. The
// endpoint is meant for hosted schedulers and requires the shared cron
// secret as a bearer token.
func TriggerOrderExpiration(expirer StaleOrderExpirer, secret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if expirer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "expirer unavailable"))
			return
		}
		if secret == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cron secret not configured"))
			return
		}

		token := bearerToken(r)
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid cron credentials"))
			return
		}

		expired, err := expirer.ExpireStale(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"success":        true,
			"expired_orders": expired,
			"ran_at":         time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
