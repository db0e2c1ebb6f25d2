package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog row. Stock is the authoritative available
// quantity: reservations decrement it and rollbacks restore it.
type Product struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"column:name;not null" json:"name"`
	Description string          `gorm:"column:description" json:"description"`
	Brand       string          `gorm:"column:brand" json:"brand"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Stock       int             `gorm:"column:stock;not null;default:0" json:"stock"`
	ImageURL    string          `gorm:"column:image_url" json:"image_url"`
	Active      bool            `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}
