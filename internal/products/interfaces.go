package products

import (
	"context"

	"github.com/perfuman/storefront-backend/pkg/db/models"
	"github.com/perfuman/storefront-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the catalog and its
// stock counters.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	List(ctx context.Context, params pagination.Params, onlyActive bool) (*ProductList, error)
	Reserve(ctx context.Context, productID int64, quantity int) (bool, error)
	Restore(ctx context.Context, productID int64, quantity int) error
}

// ProductList is one page of catalog rows plus the cursor for the next.
type ProductList struct {
	Products   []models.Product
	NextCursor string
}
