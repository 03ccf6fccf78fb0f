package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rahulmenon/bazario-backend/pkg/enums"
)

// Order is the aggregate root for a single-vendor purchase. Totals are
// computed once at creation (TotalAmount == PlatformFee + VendorAmount) and
// never recomputed from live product prices. Gateway references stay nil until
// the remote order is created and the payment lands respectively.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID       uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	VendorID         uuid.UUID         `gorm:"column:vendor_id;type:uuid;not null;index"`
	Currency         enums.Currency    `gorm:"column:currency;type:text;not null;default:'INR'"`
	TotalAmount      int               `gorm:"column:total_amount;not null"`
	PlatformFee      int               `gorm:"column:platform_fee;not null"`
	VendorAmount     int               `gorm:"column:vendor_amount;not null"`
	Status           enums.OrderStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`
	GatewayOrderID   *string           `gorm:"column:gateway_order_id"`
	GatewayPaymentID *string           `gorm:"column:gateway_payment_id"`
	Items            []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
