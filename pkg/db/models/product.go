package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a vendor listing. Price is integer minor units; orders snapshot
// it at creation time and never read it back. Stock is mutated only by the
// order orchestrator when a payment is confirmed.
type Product struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID    uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;index"`
	Name        string    `gorm:"column:name;not null"`
	Description *string   `gorm:"column:description"`
	Price       int       `gorm:"column:price;not null"`
	Stock       int       `gorm:"column:stock;not null;default:0"`
	ImageURL    *string   `gorm:"column:image_url"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
