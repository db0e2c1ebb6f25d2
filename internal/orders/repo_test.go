package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/perfuman/storefront-backend/pkg/db/models"
	"github.com/perfuman/storefront-backend/pkg/enums"
)

func TestCreateAndFindWithItems(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	order, err := repo.CreateOrder(ctx, &models.Order{
		Status:      enums.OrderStatusPending,
		TotalAmount: decimal.NewFromFloat(301.00),
		CustomerDetails: models.CustomerDetails{
			Name:  "Ana",
			Email: "ana@example.com",
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.ID == 0 {
		t.Fatalf("expected generated order id")
	}

	items := []models.OrderItem{
		{OrderID: order.ID, ProductID: 1, Quantity: 2, UnitPrice: decimal.NewFromFloat(150.50)},
	}
	if err := repo.CreateOrderItems(ctx, items); err != nil {
		t.Fatalf("create items: %v", err)
	}

	got, err := repo.FindWithItems(ctx, order.ID)
	if err != nil {
		t.Fatalf("find with items: %v", err)
	}
	if got.Status != enums.OrderStatusPending {
		t.Fatalf("unexpected status %s", got.Status)
	}
	if got.CustomerDetails.Email != "ana@example.com" {
		t.Fatalf("customer details did not round trip: %+v", got.CustomerDetails)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", got.Items)
	}
}

func TestDeleteOrderAndItems(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	order, err := repo.CreateOrder(ctx, &models.Order{
		Status:      enums.OrderStatusPending,
		TotalAmount: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if err := repo.CreateOrderItems(ctx, []models.OrderItem{
		{OrderID: order.ID, ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(100)},
	}); err != nil {
		t.Fatalf("create items: %v", err)
	}

	if err := repo.DeleteOrderItems(ctx, order.ID); err != nil {
		t.Fatalf("delete items: %v", err)
	}
	if err := repo.DeleteOrder(ctx, order.ID); err != nil {
		t.Fatalf("delete order: %v", err)
	}

	if _, err := repo.FindByID(ctx, order.ID); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected record not found, got %v", err)
	}
	items, err := repo.FindItemsByOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("find items: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items after delete")
	}
}

func TestFindPendingBefore(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	stale, err := repo.CreateOrder(ctx, &models.Order{
		Status:      enums.OrderStatusPending,
		TotalAmount: decimal.NewFromInt(50),
	})
	if err != nil {
		t.Fatalf("create stale order: %v", err)
	}
	old := time.Now().Add(-time.Hour)
	if err := db.Model(&models.Order{}).Where("id = ?", stale.ID).Update("created_at", old).Error; err != nil {
		t.Fatalf("backdate order: %v", err)
	}

	if _, err := repo.CreateOrder(ctx, &models.Order{
		Status:      enums.OrderStatusPending,
		TotalAmount: decimal.NewFromInt(60),
	}); err != nil {
		t.Fatalf("create fresh order: %v", err)
	}

	approved, err := repo.CreateOrder(ctx, &models.Order{
		Status:      enums.OrderStatusApproved,
		TotalAmount: decimal.NewFromInt(70),
	})
	if err != nil {
		t.Fatalf("create approved order: %v", err)
	}
	if err := db.Model(&models.Order{}).Where("id = ?", approved.ID).Update("created_at", old).Error; err != nil {
		t.Fatalf("backdate approved order: %v", err)
	}

	cutoff := time.Now().Add(-30 * time.Minute)
	found, err := repo.FindPendingBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("find pending before: %v", err)
	}
	if len(found) != 1 || found[0].ID != stale.ID {
		t.Fatalf("expected only the stale pending order, got %+v", found)
	}
}

func TestTransitionStatusAndReferences(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	order, err := repo.CreateOrder(ctx, &models.Order{
		Status:      enums.OrderStatusPending,
		TotalAmount: decimal.NewFromInt(200),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if err := repo.SetPreferenceReference(ctx, order.ID, "pref-1"); err != nil {
		t.Fatalf("set preference: %v", err)
	}
	if err := repo.SetPaymentReference(ctx, order.ID, "pay-9"); err != nil {
		t.Fatalf("set payment: %v", err)
	}

	ok, err := repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusApproved)
	if err != nil {
		t.Fatalf("transition status: %v", err)
	}
	if !ok {
		t.Fatalf("expected the pending order to flip")
	}

	got, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if got.Status != enums.OrderStatusApproved {
		t.Fatalf("unexpected status %s", got.Status)
	}
	if got.PreferenceID == nil || *got.PreferenceID != "pref-1" {
		t.Fatalf("preference reference not stored")
	}
	if got.PaymentID == nil || *got.PaymentID != "pay-9" {
		t.Fatalf("payment reference not stored")
	}
}

func TestTransitionStatusMissesOnStaleStatus(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	order, err := repo.CreateOrder(ctx, &models.Order{
		Status:      enums.OrderStatusApproved,
		TotalAmount: decimal.NewFromInt(200),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	ok, err := repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusExpired)
	if err != nil {
		t.Fatalf("transition status: %v", err)
	}
	if ok {
		t.Fatalf("flip must miss when the status no longer matches")
	}

	got, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if got.Status != enums.OrderStatusApproved {
		t.Fatalf("status changed to %s, expected approved", got.Status)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate orders: %v", err)
	}
	return db
}
