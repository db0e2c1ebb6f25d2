package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/perfuman/storefront-backend/api/responses"
	"github.com/perfuman/storefront-backend/api/validators"
	checkoutsvc "github.com/perfuman/storefront-backend/internal/checkout"
	pkgerrors "github.com/perfuman/storefront-backend/pkg/errors"
	"github.com/perfuman/storefront-backend/pkg/logger"
)

// Checkout handles submission of a storefront cart. On success the buyer
// is handed the hosted payment page URL for the freshly created order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(result))
	}
}

type checkoutItemRequest struct {
	ID       int64            `json:"id" validate:"required,gt=0"`
	Quantity int              `json:"quantity" validate:"required,gt=0"`
	Price    *decimal.Decimal `json:"price,omitempty"`
}

type checkoutAddressRequest struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

type checkoutCustomerRequest struct {
	Name         string                  `json:"name" validate:"required"`
	Email        string                  `json:"email" validate:"required,email"`
	Phone        string                  `json:"phone,omitempty"`
	Address      *checkoutAddressRequest `json:"address,omitempty"`
	ExtraDetails string                  `json:"extra_details,omitempty"`
}

type checkoutRequest struct {
	Items        []checkoutItemRequest   `json:"items" validate:"required,min=1,dive"`
	CustomerInfo checkoutCustomerRequest `json:"customer_info" validate:"required"`
}

func (req checkoutRequest) toInput() checkoutsvc.CheckoutInput {
	items := make([]checkoutsvc.CheckoutItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, checkoutsvc.CheckoutItem{
			ProductID: item.ID,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}

	customer := checkoutsvc.CustomerInput{
		Name:  req.CustomerInfo.Name,
		Email: req.CustomerInfo.Email,
		Phone: req.CustomerInfo.Phone,
		Notes: req.CustomerInfo.ExtraDetails,
	}
	if addr := req.CustomerInfo.Address; addr != nil {
		customer.Address = addr.Street
		customer.City = addr.City
		customer.State = addr.State
		customer.ZipCode = addr.PostalCode
		customer.Country = addr.Country
	}

	return checkoutsvc.CheckoutInput{Items: items, Customer: customer}
}

type checkoutResponse struct {
	Success      bool    `json:"success"`
	OrderID      int64   `json:"order_id"`
	InitPoint    string  `json:"init_point"`
	PreferenceID string  `json:"preference_id"`
	TotalAmount  float64 `json:"total_amount"`
}

func newCheckoutResponse(result *checkoutsvc.CheckoutResult) checkoutResponse {
	if result == nil {
		return checkoutResponse{}
	}
	return checkoutResponse{
		Success:      true,
		OrderID:      result.OrderID,
		InitPoint:    result.InitPoint,
		PreferenceID: result.PreferenceID,
		TotalAmount:  result.TotalAmount.InexactFloat64(),
	}
}
