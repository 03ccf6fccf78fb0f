package orders

import (
	"github.com/google/uuid"

	"github.com/rahulmenon/bazario-backend/pkg/db/models"
)

// OrderLineInput is one requested product line at checkout.
type OrderLineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderInput is the checkout request: one vendor, one or more lines.
type CreateOrderInput struct {
	VendorID uuid.UUID
	Items    []OrderLineInput
	Currency string
}

// CheckoutSession is what the payment widget needs to collect a payment. The
// gateway key id is the public half of the credential pair; the secret never
// appears in any response type.
type CheckoutSession struct {
	Order          *models.Order
	GatewayOrderID string
	GatewayKeyID   string
	Amount         int
	Currency       string
}

// ConfirmPaymentInput carries the gateway callback proof.
type ConfirmPaymentInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}
