package orders

import (
	"github.com/perfuman/storefront-backend/pkg/enums"
	pkgerrors "github.com/perfuman/storefront-backend/pkg/errors"
)

// Decision describes the side effects of applying a status change.
type Decision struct {
	Next    enums.OrderStatus
	Restock bool
	NoOp    bool
}

// Transition validates a status change against the order lifecycle.
//
// Reserved stock is only returned when a pending order fails. Every
// non-pending status is absorbing: once an order is approved the sale
// stands, and a late failure notification (including refunds and
// chargebacks, which the gateway settles on its own side) must neither
// change the status nor touch stock.
func Transition(current, next enums.OrderStatus) (Decision, error) {
	if !current.IsValid() {
		return Decision{}, pkgerrors.New(pkgerrors.CodeInternal, "unknown current order status "+current.String())
	}
	if !next.IsValid() {
		return Decision{}, pkgerrors.New(pkgerrors.CodeInternal, "unknown target order status "+next.String())
	}

	if current == next {
		return Decision{Next: next, NoOp: true}, nil
	}

	if current == enums.OrderStatusPending {
		if next == enums.OrderStatusApproved {
			return Decision{Next: next}, nil
		}
		// every terminal failure out of pending releases the reservation
		return Decision{Next: next, Restock: true}, nil
	}

	return Decision{}, pkgerrors.New(
		pkgerrors.CodeInternal,
		"invalid order transition "+current.String()+" -> "+next.String(),
	)
}
