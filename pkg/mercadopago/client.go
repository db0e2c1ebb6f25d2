package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/mperror"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"

	"github.com/perfuman/storefront-backend/pkg/config"
	"github.com/perfuman/storefront-backend/pkg/enums"
	pkgerrors "github.com/perfuman/storefront-backend/pkg/errors"
	"github.com/perfuman/storefront-backend/pkg/logger"
)

var (
	errAccessTokenRequired = errors.New("mercadopago access token is required")
	errLoggerRequired      = errors.New("mercadopago logger is required")
)

type preferenceAPI interface {
	Create(ctx context.Context, req preference.Request) (*preference.Response, error)
}

type paymentAPI interface {
	Get(ctx context.Context, id int) (*payment.Response, error)
}

// Client exposes Mercado Pago primitives with centralized auth, logging,
// and error mapping. The payment lookup is the trust boundary for
// webhooks: notification payloads are never believed, only re-fetched
// payments are.
type Client struct {
	preferences preferenceAPI
	payments    paymentAPI
	checkout    config.CheckoutConfig
	logger      *logger.Logger
}

// NewClient initializes the Mercado Pago wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.MercadoPagoConfig, checkout config.CheckoutConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	accessToken := strings.TrimSpace(cfg.AccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}

	sdkCfg, err := mpconfig.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("initializing mercadopago sdk: %w", err)
	}

	c := &Client{
		preferences: preference.NewClient(sdkCfg),
		payments:    payment.NewClient(sdkCfg),
		checkout:    checkout,
		logger:      logg,
	}

	logg.Info(ctx, "mercadopago client initialized")
	return c, nil
}

// CreatePreference registers a hosted-checkout session for an order and
// returns the redirect URL the storefront sends the buyer to.
func (c *Client) CreatePreference(ctx context.Context, params PreferenceCreateParams) (*PreferenceResult, error) {
	req := params.toRequest(c.checkout)
	c.log(ctx, "request", "create_preference", map[string]any{
		"order_id":   params.OrderID,
		"item_count": len(params.Items),
	})

	resp, err := c.preferences.Create(ctx, req)
	if err != nil {
		c.log(ctx, "error", "create_preference", map[string]any{"error": err.Error()})
		return nil, c.mapGatewayError(err, "create preference")
	}
	if resp == nil || resp.ID == "" || resp.InitPoint == "" {
		// a preference without an id or redirect URL cannot be paid
		c.log(ctx, "error", "create_preference", map[string]any{"error": "incomplete preference response"})
		return nil, pkgerrors.New(pkgerrors.CodePaymentGateway, "gateway returned an incomplete preference")
	}

	result := &PreferenceResult{
		ID:        resp.ID,
		InitPoint: resp.InitPoint,
	}
	c.log(ctx, "response", "create_preference", map[string]any{
		"preference_id": result.ID,
	})
	return result, nil
}

// GetPayment re-fetches a payment by its gateway id.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*PaymentInfo, error) {
	id, err := strconv.Atoi(strings.TrimSpace(paymentID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment id must be numeric")
	}

	c.log(ctx, "request", "get_payment", map[string]any{"payment_id": paymentID})

	resp, err := c.payments.Get(ctx, id)
	if err != nil {
		c.log(ctx, "error", "get_payment", map[string]any{"error": err.Error()})
		return nil, c.mapGatewayError(err, "get payment")
	}

	info := &PaymentInfo{
		ID:                strconv.Itoa(resp.ID),
		Status:            enums.GatewayPaymentStatus(resp.Status),
		StatusDetail:      resp.StatusDetail,
		ExternalReference: resp.ExternalReference,
		TransactionAmount: resp.TransactionAmount,
	}
	c.log(ctx, "response", "get_payment", map[string]any{
		"payment_id": info.ID,
		"status":     string(info.Status),
	})
	return info, nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("mercadopago %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("mercadopago %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "secret", "email", "phone", "card"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func (c *Client) mapGatewayError(err error, op string) error {
	if err == nil {
		return nil
	}
	var respErr *mperror.ResponseError
	if errors.As(err, &respErr) {
		code := pkgerrors.CodePaymentGateway
		switch respErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			code = pkgerrors.CodeUnauthorized
		case http.StatusNotFound:
			code = pkgerrors.CodeNotFound
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			code = pkgerrors.CodeValidation
		}
		return pkgerrors.Wrap(code, err, fmt.Sprintf("mercadopago %s failed", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodePaymentGateway, err, fmt.Sprintf("mercadopago %s failed", op))
}
