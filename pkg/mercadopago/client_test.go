package mercadopago

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/mercadopago/sdk-go/pkg/mperror"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfuman/storefront-backend/pkg/config"
	"github.com/perfuman/storefront-backend/pkg/enums"
	pkgerrors "github.com/perfuman/storefront-backend/pkg/errors"
)

func checkoutConfig() config.CheckoutConfig {
	return config.CheckoutConfig{
		BaseURL:          "https://shop.example.com",
		Currency:         "ARS",
		StatementName:    "PerfuMan",
		PreferenceExpiry: 24 * time.Hour,
	}
}

type stubPreferenceAPI struct {
	lastRequest preference.Request
	response    *preference.Response
	err         error
}

func (s *stubPreferenceAPI) Create(ctx context.Context, req preference.Request) (*preference.Response, error) {
	s.lastRequest = req
	return s.response, s.err
}

type stubPaymentAPI struct {
	lastID   int
	response *payment.Response
	err      error
}

func (s *stubPaymentAPI) Get(ctx context.Context, id int) (*payment.Response, error) {
	s.lastID = id
	return s.response, s.err
}

func TestCreatePreferenceBuildsRequest(t *testing.T) {
	stub := &stubPreferenceAPI{
		response: &preference.Response{ID: "pref-123", InitPoint: "https://mp.example/init"},
	}
	client := &Client{preferences: stub, checkout: checkoutConfig()}

	result, err := client.CreatePreference(context.Background(), PreferenceCreateParams{
		OrderID: 42,
		Items: []PreferenceItem{
			{ProductID: 7, Title: "Eau de Parfum", Quantity: 2, UnitPrice: decimal.NewFromFloat(150.50)},
		},
		Payer: PreferencePayer{Name: "Ana", Email: "ana@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pref-123", result.ID)
	assert.Equal(t, "https://mp.example/init", result.InitPoint)

	req := stub.lastRequest
	assert.Equal(t, "42", req.ExternalReference)
	assert.Equal(t, "https://shop.example.com/api/webhooks/mercadopago", req.NotificationURL)
	assert.Equal(t, "PerfuMan", req.StatementDescriptor)
	require.NotNil(t, req.BackURLs)
	assert.Equal(t, "https://shop.example.com/checkout/success", req.BackURLs.Success)
	assert.Equal(t, "https://shop.example.com/checkout/failure", req.BackURLs.Failure)
	assert.Equal(t, "https://shop.example.com/checkout/pending", req.BackURLs.Pending)

	require.Len(t, req.Items, 1)
	assert.Equal(t, "7", req.Items[0].ID)
	assert.Equal(t, 2, req.Items[0].Quantity)
	assert.InDelta(t, 150.50, req.Items[0].UnitPrice, 0.001)
	assert.Equal(t, "ARS", req.Items[0].CurrencyID)

	assert.True(t, req.Expires)
	require.NotNil(t, req.ExpirationDateFrom)
	require.NotNil(t, req.ExpirationDateTo)
	window := req.ExpirationDateTo.Sub(*req.ExpirationDateFrom)
	assert.Equal(t, 24*time.Hour, window)
}

func TestCreatePreferenceMapsGatewayError(t *testing.T) {
	stub := &stubPreferenceAPI{
		err: &mperror.ResponseError{StatusCode: http.StatusInternalServerError, Message: "boom"},
	}
	client := &Client{preferences: stub, checkout: checkoutConfig()}

	_, err := client.CreatePreference(context.Background(), PreferenceCreateParams{OrderID: 1})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodePaymentGateway, pkgerrors.CodeOf(err))
}

func TestCreatePreferenceRejectsIncompleteResponse(t *testing.T) {
	cases := map[string]*preference.Response{
		"nil response":     nil,
		"missing id":       {InitPoint: "https://mp.example/init"},
		"missing redirect": {ID: "pref-123"},
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			client := &Client{preferences: &stubPreferenceAPI{response: resp}, checkout: checkoutConfig()}

			_, err := client.CreatePreference(context.Background(), PreferenceCreateParams{OrderID: 1})
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodePaymentGateway, pkgerrors.CodeOf(err))
		})
	}
}

func TestGetPaymentReturnsInfo(t *testing.T) {
	stub := &stubPaymentAPI{
		response: &payment.Response{
			ID:                9001,
			Status:            "approved",
			StatusDetail:      "accredited",
			ExternalReference: "42",
			TransactionAmount: 301.00,
		},
	}
	client := &Client{payments: stub, checkout: checkoutConfig()}

	info, err := client.GetPayment(context.Background(), "9001")
	require.NoError(t, err)
	assert.Equal(t, 9001, stub.lastID)
	assert.Equal(t, "9001", info.ID)
	assert.Equal(t, enums.GatewayPaymentStatusApproved, info.Status)

	orderID, err := info.OrderID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), orderID)
}

func TestGetPaymentRejectsNonNumericID(t *testing.T) {
	client := &Client{payments: &stubPaymentAPI{}, checkout: checkoutConfig()}

	_, err := client.GetPayment(context.Background(), "abc")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestGetPaymentMapsNotFound(t *testing.T) {
	stub := &stubPaymentAPI{
		err: &mperror.ResponseError{StatusCode: http.StatusNotFound, Message: "not found"},
	}
	client := &Client{payments: stub, checkout: checkoutConfig()}

	_, err := client.GetPayment(context.Background(), "123")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}
