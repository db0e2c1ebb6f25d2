package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem records one reserved line of an order. UnitPrice is the
// catalog price at reservation time, not the client-sent price.
type OrderItem struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID   int64           `gorm:"column:order_id;not null;index" json:"order_id"`
	ProductID int64           `gorm:"column:product_id;not null" json:"product_id"`
	Quantity  int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unit_price"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
