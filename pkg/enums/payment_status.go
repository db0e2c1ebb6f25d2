package enums

import "fmt"

// GatewayPaymentStatus is the payment status vocabulary reported by
// Mercado Pago when a payment is re-fetched by id.
type GatewayPaymentStatus string

const (
	GatewayPaymentStatusPending     GatewayPaymentStatus = "pending"
	GatewayPaymentStatusInProcess   GatewayPaymentStatus = "in_process"
	GatewayPaymentStatusAuthorized  GatewayPaymentStatus = "authorized"
	GatewayPaymentStatusApproved    GatewayPaymentStatus = "approved"
	GatewayPaymentStatusRejected    GatewayPaymentStatus = "rejected"
	GatewayPaymentStatusCancelled   GatewayPaymentStatus = "cancelled"
	GatewayPaymentStatusRefunded    GatewayPaymentStatus = "refunded"
	GatewayPaymentStatusChargedBack GatewayPaymentStatus = "charged_back"
)

// PaymentOutcome buckets gateway statuses for reconciliation.
type PaymentOutcome int

const (
	// PaymentOutcomeOpen means the gateway has not resolved the payment;
	// it will notify again, so the order stays pending.
	PaymentOutcomeOpen PaymentOutcome = iota
	// PaymentOutcomeApproved is the terminal success bucket.
	PaymentOutcomeApproved
	// PaymentOutcomeFailed covers every terminal failure bucket.
	PaymentOutcomeFailed
)

// Outcome classifies the gateway status. Unknown statuses are treated
// as open so a later, well-formed notification can still resolve them.
func (g GatewayPaymentStatus) Outcome() PaymentOutcome {
	switch g {
	case GatewayPaymentStatusApproved:
		return PaymentOutcomeApproved
	case GatewayPaymentStatusRejected,
		GatewayPaymentStatusCancelled,
		GatewayPaymentStatusRefunded,
		GatewayPaymentStatusChargedBack:
		return PaymentOutcomeFailed
	default:
		return PaymentOutcomeOpen
	}
}

// OrderStatus maps a terminal gateway status onto the order lifecycle.
func (g GatewayPaymentStatus) OrderStatus() (OrderStatus, error) {
	switch g {
	case GatewayPaymentStatusApproved:
		return OrderStatusApproved, nil
	case GatewayPaymentStatusRejected:
		return OrderStatusRejected, nil
	case GatewayPaymentStatusCancelled:
		return OrderStatusCancelled, nil
	case GatewayPaymentStatusRefunded:
		return OrderStatusRefunded, nil
	case GatewayPaymentStatusChargedBack:
		return OrderStatusChargedBack, nil
	default:
		return "", fmt.Errorf("gateway status %q has no order status", g)
	}
}
