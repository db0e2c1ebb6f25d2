package orders

import (
	"context"
	"time"

	"github.com/perfuman/storefront-backend/pkg/db/models"
	"github.com/perfuman/storefront-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	DeleteOrderItems(ctx context.Context, orderID int64) error
	DeleteOrder(ctx context.Context, orderID int64) error
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	FindWithItems(ctx context.Context, id int64) (*models.Order, error)
	FindItemsByOrder(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
	TransitionStatus(ctx context.Context, orderID int64, from, to enums.OrderStatus) (bool, error)
	SetPaymentReference(ctx context.Context, orderID int64, paymentID string) error
	SetPreferenceReference(ctx context.Context, orderID int64, preferenceID string) error
}
