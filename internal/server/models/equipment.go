package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Equipment is a catalog item. AvailableQuantity is never negative.
type Equipment struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Image             string          `json:"image"`
	ImageURL          string          `json:"image_url,omitempty"`
	Price             decimal.Decimal `json:"price"`
	AvailableQuantity int64           `json:"available_quantity"`
	MinOrderQuantity  int64           `json:"min_order_quantity"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ImageUploadTask hands the admin client a presigned URL for the image blob.
type ImageUploadTask struct {
	EquipmentID string `json:"equipment_id"`
	StorageKey  string `json:"storage_key"`
	URL         string `json:"url"`
}
