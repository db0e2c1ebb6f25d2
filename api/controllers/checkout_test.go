package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	checkoutsvc "github.com/perfuman/storefront-backend/internal/checkout"
	pkgerrors "github.com/perfuman/storefront-backend/pkg/errors"
	"github.com/perfuman/storefront-backend/pkg/logger"
)

type stubCheckoutService struct {
	result *checkoutsvc.CheckoutResult
	err    error

	lastInput checkoutsvc.CheckoutInput
	calls     int
}

func (s *stubCheckoutService) Execute(ctx context.Context, input checkoutsvc.CheckoutInput) (*checkoutsvc.CheckoutResult, error) {
	s.calls++
	s.lastInput = input
	return s.result, s.err
}

func newTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func TestCheckoutSuccess(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{result: &checkoutsvc.CheckoutResult{
		OrderID:      42,
		InitPoint:    "https://pay.example/init/abc",
		PreferenceID: "pref-123",
		TotalAmount:  decimal.RequireFromString("381.00"),
	}}

	body := `{
		"items": [{"id": 1, "quantity": 3, "price": 127.00}],
		"customer_info": {
			"name": "Ana Gomez",
			"email": "ana@example.com",
			"phone": "+54 11 5555-0000",
			"address": {"street": "Av. Siempreviva 742", "city": "Buenos Aires", "postal_code": "C1000"},
			"extra_details": "ring the bell twice"
		}
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	Checkout(svc, newTestLogger())(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	var resp checkoutResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success=true")
	}
	if resp.OrderID != 42 {
		t.Fatalf("expected order_id 42, got %d", resp.OrderID)
	}
	if resp.InitPoint != "https://pay.example/init/abc" {
		t.Fatalf("unexpected init_point %q", resp.InitPoint)
	}
	if resp.PreferenceID != "pref-123" {
		t.Fatalf("unexpected preference_id %q", resp.PreferenceID)
	}
	if resp.TotalAmount != 381.00 {
		t.Fatalf("unexpected total_amount %v", resp.TotalAmount)
	}

	if svc.calls != 1 {
		t.Fatalf("expected one service call, got %d", svc.calls)
	}
	input := svc.lastInput
	if len(input.Items) != 1 || input.Items[0].ProductID != 1 || input.Items[0].Quantity != 3 {
		t.Fatalf("unexpected items %+v", input.Items)
	}
	if input.Items[0].UnitPrice == nil || !input.Items[0].UnitPrice.Equal(decimal.RequireFromString("127")) {
		t.Fatalf("expected displayed price forwarded, got %v", input.Items[0].UnitPrice)
	}
	if input.Customer.Name != "Ana Gomez" || input.Customer.Email != "ana@example.com" {
		t.Fatalf("unexpected customer %+v", input.Customer)
	}
	if input.Customer.Address != "Av. Siempreviva 742" || input.Customer.ZipCode != "C1000" {
		t.Fatalf("address block not mapped: %+v", input.Customer)
	}
	if input.Customer.Notes != "ring the bell twice" {
		t.Fatalf("extra_details not mapped: %+v", input.Customer)
	}
}

func TestCheckoutValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"empty items", `{"items": [], "customer_info": {"name": "A", "email": "a@b.c"}}`},
		{"zero quantity", `{"items": [{"id": 1, "quantity": 0}], "customer_info": {"name": "A", "email": "a@b.c"}}`},
		{"missing email", `{"items": [{"id": 1, "quantity": 1}], "customer_info": {"name": "A"}}`},
		{"bad email", `{"items": [{"id": 1, "quantity": 1}], "customer_info": {"name": "A", "email": "nope"}}`},
		{"malformed json", `{"items": [`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := &stubCheckoutService{}
			req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			Checkout(svc, newTestLogger())(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
			}
			if svc.calls != 0 {
				t.Fatalf("service should not run on invalid payload")
			}

			var payload map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if payload["error"] != string(pkgerrors.CodeValidation) {
				t.Fatalf("expected validation_error, got %v", payload["error"])
			}
		})
	}
}

func TestCheckoutInsufficientStock(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock").
		WithDetails([]map[string]any{{"product_id": 1, "requested": 5, "available": 2}})}

	body := `{"items": [{"id": 1, "quantity": 5}], "customer_info": {"name": "A", "email": "a@b.c"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body))
	rec := httptest.NewRecorder()

	Checkout(svc, newTestLogger())(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if payload["error"] != string(pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient_stock, got %v", payload["error"])
	}
	if payload["details"] == nil {
		t.Fatalf("expected shortage details in body")
	}
}

func TestCheckoutMissingProducts(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeProductsNotFound, "some products do not exist").
		WithMissingProducts([]int64{7, 9})}

	body := `{"items": [{"id": 7, "quantity": 1}, {"id": 9, "quantity": 1}], "customer_info": {"name": "A", "email": "a@b.c"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body))
	rec := httptest.NewRecorder()

	Checkout(svc, newTestLogger())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var payload struct {
		Error           string  `json:"error"`
		MissingProducts []int64 `json:"missing_products"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if payload.Error != string(pkgerrors.CodeProductsNotFound) {
		t.Fatalf("expected products_not_found, got %v", payload.Error)
	}
	if len(payload.MissingProducts) != 2 || payload.MissingProducts[0] != 7 || payload.MissingProducts[1] != 9 {
		t.Fatalf("unexpected missing_products %v", payload.MissingProducts)
	}
}

func TestCheckoutGatewayFailure(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodePaymentGateway, "payment provider rejected the request")}

	body := `{"items": [{"id": 1, "quantity": 1}], "customer_info": {"name": "A", "email": "a@b.c"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body))
	rec := httptest.NewRecorder()

	Checkout(svc, newTestLogger())(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestCheckoutIgnoresUnknownFields(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{result: &checkoutsvc.CheckoutResult{OrderID: 1, TotalAmount: decimal.New(10, 0)}}

	body := `{"items": [{"id": 1, "quantity": 1, "name": "client supplied"}], "customer_info": {"name": "A", "email": "a@b.c"}, "coupon": "FREE"}`
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body))
	rec := httptest.NewRecorder()

	Checkout(svc, newTestLogger())(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("unknown client fields must be ignored, got %d (%s)", rec.Code, rec.Body.String())
	}
}
