package payments

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/perfuman/storefront-backend/internal/orders"
	"github.com/perfuman/storefront-backend/internal/products"
	"github.com/perfuman/storefront-backend/pkg/enums"
	pkgerrors "github.com/perfuman/storefront-backend/pkg/errors"
	"github.com/perfuman/storefront-backend/pkg/logger"
	"github.com/perfuman/storefront-backend/pkg/mercadopago"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type paymentFetcher interface {
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.PaymentInfo, error)
}

// Service reconciles gateway payment notifications with orders.
//
// Notification payloads are untrusted: the only thing taken from them
// is the payment id, which is re-fetched from the gateway before any
// order is touched.
type Service interface {
	HandleNotification(ctx context.Context, paymentID string) error
}

type service struct {
	tx           txRunner
	ordersRepo   orders.Repository
	productsRepo products.Repository
	gateway      paymentFetcher
	logger       *logger.Logger
}

// NewService builds the payment reconciliation service.
func NewService(
	tx txRunner,
	ordersRepo orders.Repository,
	productsRepo products.Repository,
	gateway paymentFetcher,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if productsRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:           tx,
		ordersRepo:   ordersRepo,
		productsRepo: productsRepo,
		gateway:      gateway,
		logger:       logg,
	}, nil
}

func (s *service) HandleNotification(ctx context.Context, paymentID string) error {
	if paymentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	ctx = s.logger.WithPaymentID(ctx, paymentID)

	info, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}

	orderID, err := info.OrderID()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment carries no usable order reference")
	}
	ctx = s.logger.WithOrderID(ctx, orderID)

	switch info.Status.Outcome() {
	case enums.PaymentOutcomeOpen:
		// the gateway is still deciding; acknowledge and change nothing
		fctx := s.logger.WithField(ctx, "gateway_status", string(info.Status))
		s.logger.Info(fctx, "payment still open, order stays pending")
		return nil
	default:
		target, err := info.Status.OrderStatus()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "classifying gateway status")
		}
		return s.applyResolution(ctx, orderID, info, target)
	}
}

// applyResolution moves the order to its terminal status. The flip is
// a conditional update keyed on the status read at the start of the
// transaction, so a concurrent notification or expiration sweep makes
// the predicate miss and no side effect runs twice.
func (s *service) applyResolution(ctx context.Context, orderID int64, info *mercadopago.PaymentInfo, target enums.OrderStatus) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)
		productsRepo := s.productsRepo.WithTx(tx)

		current, err := ordersRepo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order for payment not found")
			}
			return err
		}

		decision, err := orders.Transition(current.Status, target)
		if err != nil {
			// late or contradictory notification; the recorded
			// resolution wins
			fctx := s.logger.WithFields(ctx, map[string]any{
				"current_status": current.Status.String(),
				"target_status":  target.String(),
			})
			s.logger.Warn(fctx, "ignoring notification that conflicts with recorded order status")
			return nil
		}
		if decision.NoOp {
			s.logger.Info(ctx, "notification already applied")
			return nil
		}

		ok, err := ordersRepo.TransitionStatus(ctx, orderID, current.Status, decision.Next)
		if err != nil {
			return err
		}
		if !ok {
			// a concurrent writer resolved the order first
			s.logger.Warn(ctx, "order changed under notification, leaving recorded resolution")
			return nil
		}

		if decision.Restock {
			items, err := ordersRepo.FindItemsByOrder(ctx, orderID)
			if err != nil {
				return err
			}
			for _, item := range items {
				if err := productsRepo.Restore(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		if err := ordersRepo.SetPaymentReference(ctx, orderID, info.ID); err != nil {
			return err
		}

		fctx := s.logger.WithFields(ctx, map[string]any{
			"order_status":   decision.Next.String(),
			"gateway_status": string(info.Status),
			"restocked":      decision.Restock,
		})
		s.logger.Info(fctx, "payment notification applied")
		return nil
	})
}
