package checkout

import (
	"context"

	"github.com/perfuman/storefront-backend/internal/orders"
	"github.com/perfuman/storefront-backend/internal/products"
	"github.com/perfuman/storefront-backend/pkg/logger"
)

type reservationStep struct {
	ProductID int64
	Quantity  int
}

// saga tracks the side effects of a checkout attempt so a failure at
// any step can unwind everything already done. Compensation order is
// fixed: stock first, in reservation order, then order items, then the
// order row itself.
type saga struct {
	productsRepo products.Repository
	ordersRepo   orders.Repository
	logger       *logger.Logger

	reservations []reservationStep
	orderID      int64
	itemsCreated bool
}

func newSaga(productsRepo products.Repository, ordersRepo orders.Repository, logg *logger.Logger) *saga {
	return &saga{
		productsRepo: productsRepo,
		ordersRepo:   ordersRepo,
		logger:       logg,
	}
}

func (s *saga) trackReservation(productID int64, quantity int) {
	s.reservations = append(s.reservations, reservationStep{ProductID: productID, Quantity: quantity})
}

func (s *saga) trackOrder(orderID int64) {
	s.orderID = orderID
}

func (s *saga) trackItems() {
	s.itemsCreated = true
}

// unwind compensates every tracked step. Individual failures are
// logged and skipped so one broken compensation does not strand the
// rest.
func (s *saga) unwind(ctx context.Context) {
	for _, step := range s.reservations {
		if err := s.productsRepo.Restore(ctx, step.ProductID, step.Quantity); err != nil {
			fctx := s.logger.WithFields(ctx, map[string]any{
				"product_id": step.ProductID,
				"quantity":   step.Quantity,
			})
			s.logger.Error(fctx, "checkout rollback: restore stock failed", err)
		}
	}

	if s.orderID == 0 {
		return
	}
	octx := s.logger.WithOrderID(ctx, s.orderID)

	if s.itemsCreated {
		if err := s.ordersRepo.DeleteOrderItems(ctx, s.orderID); err != nil {
			s.logger.Error(octx, "checkout rollback: delete order items failed", err)
			// keep the order row so the leftovers stay discoverable
			return
		}
	}

	if err := s.ordersRepo.DeleteOrder(ctx, s.orderID); err != nil {
		s.logger.Error(octx, "checkout rollback: delete order failed", err)
	}
}
