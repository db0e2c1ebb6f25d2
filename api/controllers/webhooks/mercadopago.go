package webhooks

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/perfuman/storefront-backend/api/responses"
	"github.com/perfuman/storefront-backend/pkg/logger"
)

type PaymentNotificationService interface {
	HandleNotification(ctx context.Context, paymentID string) error
}

type notificationPayload struct {
	Type string `json:"type"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// MercadoPago receives payment notifications. The gateway retries on
// any non-2xx answer, so every outcome is acknowledged with 200 and
// failures are only logged. Nothing in the payload is trusted beyond
// the payment id, which the service re-fetches from the gateway.
func MercadoPago(svc PaymentNotificationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ack := func() {
			responses.WriteSuccess(w, map[string]bool{"received": true})
		}

		if svc == nil {
			if logg != nil {
				logg.Warn(ctx, "payment notification dropped, service unavailable")
			}
			ack()
			return
		}

		var payload notificationPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "decode_error", err.Error()), "payment notification with unreadable body")
			}
			ack()
			return
		}

		if !strings.EqualFold(payload.Type, "payment") {
			if logg != nil {
				logg.Info(logg.WithField(ctx, "notification_type", payload.Type), "ignoring non-payment notification")
			}
			ack()
			return
		}

		paymentID := payload.Data.ID.String()
		if logg != nil {
			ctx = logg.WithPaymentID(ctx, paymentID)
		}
		if err := svc.HandleNotification(ctx, paymentID); err != nil {
			if logg != nil {
				logg.Error(ctx, "payment notification failed", err)
			}
		}
		ack()
	}
}

// MercadoPagoVerify answers the gateway's endpoint liveness probe.
func MercadoPagoVerify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
