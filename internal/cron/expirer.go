package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/perfuman/storefront-backend/internal/orders"
	"github.com/perfuman/storefront-backend/internal/products"
	"github.com/perfuman/storefront-backend/pkg/enums"
	"github.com/perfuman/storefront-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ExpirerParams configure the pending order expirer.
type ExpirerParams struct {
	Logger       *logger.Logger
	DB           txRunner
	OrdersRepo   orders.Repository
	ProductsRepo products.Repository
	PendingTTL   time.Duration
	Now          func() time.Time
}

// Expirer sweeps pending orders whose payment window has lapsed. It is
// shared by the cron worker and the HTTP trigger endpoint.
type Expirer struct {
	logg         *logger.Logger
	db           txRunner
	ordersRepo   orders.Repository
	productsRepo products.Repository
	pendingTTL   time.Duration
	now          func() time.Time
}

// NewExpirer builds the order expirer.
func NewExpirer(params ExpirerParams) (*Expirer, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.ProductsRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if params.PendingTTL <= 0 {
		return nil, fmt.Errorf("pending ttl must be positive")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Expirer{
		logg:         params.Logger,
		db:           params.DB,
		ordersRepo:   params.OrdersRepo,
		productsRepo: params.ProductsRepo,
		pendingTTL:   params.PendingTTL,
		now:          now,
	}, nil
}

// ExpireStale expires every pending order older than the TTL and
// returns how many it moved. One broken order does not stop the sweep.
func (e *Expirer) ExpireStale(ctx context.Context) (int, error) {
	cutoff := e.now().UTC().Add(-e.pendingTTL)
	stale, err := e.ordersRepo.FindPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("query stale pending orders: %w", err)
	}

	expired := 0
	var firstErr error
	for _, order := range stale {
		ok, err := e.expireOrder(ctx, order.ID)
		if err != nil {
			octx := e.logg.WithOrderID(ctx, order.ID)
			e.logg.Error(octx, "expiring order failed", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			expired++
		}
	}

	lctx := e.logg.WithFields(ctx, map[string]any{"scanned": len(stale), "expired": expired})
	e.logg.Info(lctx, "order expiration sweep complete")
	return expired, firstErr
}

// expireOrder flips the status with a conditional update before
// restocking. The predicate holds the order row lock for the rest of
// the transaction, so a payment notification or second sweep racing
// this one sees zero affected rows and restores nothing.
func (e *Expirer) expireOrder(ctx context.Context, orderID int64) (bool, error) {
	applied := false
	err := e.db.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := e.ordersRepo.WithTx(tx)
		productsRepo := e.productsRepo.WithTx(tx)

		decision, err := orders.Transition(enums.OrderStatusPending, enums.OrderStatusExpired)
		if err != nil {
			return err
		}

		ok, err := ordersRepo.TransitionStatus(ctx, orderID, enums.OrderStatusPending, decision.Next)
		if err != nil {
			return err
		}
		if !ok {
			// resolved or gone since the scan; nothing to reclaim
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

		applied = true
		return nil
	})
	return applied, err
}
