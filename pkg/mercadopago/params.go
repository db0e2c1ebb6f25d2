package mercadopago

import (
	"strconv"
	"time"

	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/shopspring/decimal"

	"github.com/perfuman/storefront-backend/pkg/config"
	"github.com/perfuman/storefront-backend/pkg/enums"
)

// PreferenceItem is one order line priced from the catalog.
type PreferenceItem struct {
	ProductID   int64
	Title       string
	Description string
	PictureURL  string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// PreferencePayer identifies the buyer on the hosted checkout page.
type PreferencePayer struct {
	Name  string
	Email string
}

// PreferenceCreateParams contains the fields required to open a
// hosted-checkout session. OrderID travels as external_reference and
// comes back on every payment notification.
type PreferenceCreateParams struct {
	OrderID int64
	Items   []PreferenceItem
	Payer   PreferencePayer
}

func (p PreferenceCreateParams) toRequest(checkout config.CheckoutConfig) preference.Request {
	items := make([]preference.ItemRequest, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, preference.ItemRequest{
			ID:          strconv.FormatInt(item.ProductID, 10),
			Title:       item.Title,
			Description: item.Description,
			PictureURL:  item.PictureURL,
			Quantity:    item.Quantity,
			CurrencyID:  checkout.Currency,
			UnitPrice:   item.UnitPrice.InexactFloat64(),
		})
	}

	now := time.Now().UTC()
	expiresAt := now.Add(checkout.PreferenceExpiry)

	return preference.Request{
		Items: items,
		Payer: &preference.PayerRequest{
			Name:  p.Payer.Name,
			Email: p.Payer.Email,
		},
		BackURLs: &preference.BackURLsRequest{
			Success: checkout.SuccessURL(),
			Failure: checkout.FailureURL(),
			Pending: checkout.PendingURL(),
		},
		AutoReturn:          "approved",
		ExternalReference:   strconv.FormatInt(p.OrderID, 10),
		NotificationURL:     checkout.NotificationURL(),
		StatementDescriptor: checkout.StatementName,
		Expires:             true,
		ExpirationDateFrom:  &now,
		ExpirationDateTo:    &expiresAt,
	}
}

// PreferenceResult is the subset of the gateway response the checkout
// flow needs.
type PreferenceResult struct {
	ID        string
	InitPoint string
}

// PaymentInfo is a re-fetched payment as reported by the gateway.
type PaymentInfo struct {
	ID                string
	Status            enums.GatewayPaymentStatus
	StatusDetail      string
	ExternalReference string
	TransactionAmount float64
}

// OrderID parses the external reference back into the order id.
func (p PaymentInfo) OrderID() (int64, error) {
	return strconv.ParseInt(p.ExternalReference, 10, 64)
}
