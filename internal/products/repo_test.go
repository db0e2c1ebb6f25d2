package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/perfuman/storefront-backend/pkg/db/models"
	"github.com/perfuman/storefront-backend/pkg/pagination"
)

func TestReserveDecrementsOnlyWithEnoughStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	product := seedProduct(t, db, "Oud Intense", 5)

	reserved, err := repo.Reserve(ctx, product.ID, 3)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if !reserved {
		t.Fatalf("expected reservation to succeed")
	}

	reserved, err = repo.Reserve(ctx, product.ID, 3)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if reserved {
		t.Fatalf("expected reservation to fail when stock is short")
	}

	var got models.Product
	if err := db.First(&got, product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if got.Stock != 2 {
		t.Fatalf("expected stock 2 after one reservation, got %d", got.Stock)
	}
}

func TestRestoreReturnsStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	product := seedProduct(t, db, "Citrus Bloom", 1)

	if ok, err := repo.Reserve(ctx, product.ID, 1); err != nil || !ok {
		t.Fatalf("reserve: ok=%v err=%v", ok, err)
	}
	if err := repo.Restore(ctx, product.ID, 1); err != nil {
		t.Fatalf("restore: %v", err)
	}

	var got models.Product
	if err := db.First(&got, product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if got.Stock != 1 {
		t.Fatalf("expected stock back to 1, got %d", got.Stock)
	}
}

func TestFindByIDsReturnsOnlyExisting(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	a := seedProduct(t, db, "Amber Noir", 10)
	b := seedProduct(t, db, "Velvet Rose", 10)

	found, err := repo.FindByIDs(ctx, []int64{a.ID, b.ID, 99999})
	if err != nil {
		t.Fatalf("find by ids: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 products, got %d", len(found))
	}

	found, err = repo.FindByIDs(ctx, nil)
	if err != nil {
		t.Fatalf("find by empty ids: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("expected no products for empty id list")
	}
}

func TestListPaginatesActiveProducts(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	for i := 0; i < 3; i++ {
		seedProduct(t, db, "Layered Musk", 5)
	}
	inactive := seedProduct(t, db, "Discontinued", 0)
	if err := db.Model(&models.Product{}).Where("id = ?", inactive.ID).Update("active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	page, err := repo.List(ctx, pagination.Params{Limit: 2}, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Products) != 2 {
		t.Fatalf("expected 2 products on first page, got %d", len(page.Products))
	}
	if page.NextCursor == "" {
		t.Fatalf("expected next cursor on first page")
	}

	rest, err := repo.List(ctx, pagination.Params{Limit: 2, Cursor: page.NextCursor}, true)
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(rest.Products) != 1 {
		t.Fatalf("expected 1 product on second page, got %d", len(rest.Products))
	}
	if rest.NextCursor != "" {
		t.Fatalf("expected no cursor on the last page")
	}
}

func seedProduct(t *testing.T, db *gorm.DB, name string, stock int) models.Product {
	t.Helper()
	product := models.Product{
		Name:   name,
		Price:  decimal.NewFromFloat(120.50),
		Stock:  stock,
		Active: true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate products: %v", err)
	}
	return db
}
