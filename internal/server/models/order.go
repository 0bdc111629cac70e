package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is owned by the principal whose email it carries.
// PaymentID is set if and only if Paid is true; a paid order is read-only.
type Order struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	EquipmentID string          `json:"equipment_id"`
	Quantity    int64           `json:"quantity"`
	Paid        bool            `json:"paid"`
	PaymentID   *string         `json:"payment_id,omitempty"`
	Details     Document        `json:"details"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// OrderUpdate holds the owner-editable fields. Nil means unchanged.
type OrderUpdate struct {
	Quantity *int64   `json:"quantity,omitempty"`
	Details  Document `json:"details,omitempty"`
}
