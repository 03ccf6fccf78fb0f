package models

import (
	"time"

	"github.com/google/uuid"
)

// Vendor is a storefront controlled by exactly one owner account.
// PayoutBalance is integer minor units and only ever grows through the order
// orchestrator's payment-confirmation transaction; external payouts are out of
// band.
type Vendor struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID       uuid.UUID `gorm:"column:owner_id;type:uuid;uniqueIndex;not null"`
	Name          string    `gorm:"column:name;not null"`
	Slug          string    `gorm:"column:slug;uniqueIndex;not null"`
	Description   *string   `gorm:"column:description"`
	LogoURL       *string   `gorm:"column:logo_url"`
	PayoutBalance int       `gorm:"column:payout_balance;not null;default:0"`
	Products      []Product `gorm:"foreignKey:VendorID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
