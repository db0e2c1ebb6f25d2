package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/perfuman/storefront-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// CustomerDetails is the buyer snapshot captured at checkout. It is
// stored as a jsonb column so the order survives later profile edits.
type CustomerDetails struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Country string `json:"country,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

func (c CustomerDetails) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *CustomerDetails) Scan(value any) error {
	if value == nil {
		*c = CustomerDetails{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("unsupported customer_details type %T", value)
	}
}

// Order is the transactional root. Status transitions are driven by
// the orders state machine, never written ad hoc.
type Order struct {
	ID              int64             `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Status          enums.OrderStatus `gorm:"column:status;not null;default:pending" json:"status"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null" json:"total_amount"`
	CustomerEmail   string            `gorm:"column:customer_email" json:"customer_email"`
	CustomerDetails CustomerDetails   `gorm:"column:customer_details;type:jsonb" json:"customer_details"`
	PaymentID       *string           `gorm:"column:payment_id" json:"payment_id,omitempty"`
	PreferenceID    *string           `gorm:"column:preference_id" json:"preference_id,omitempty"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}
