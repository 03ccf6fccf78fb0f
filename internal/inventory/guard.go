package inventory

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/rahulmenon/bazario-backend/pkg/db/models"
	pkgerrors "github.com/rahulmenon/bazario-backend/pkg/errors"
)

// RequestedItem is a customer's line request before validation.
type RequestedItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// Snapshot captures a product's identity and price at validation time. Orders
// are built from snapshots, never from live product rows, so later edits to
// name or price cannot leak into existing orders.
type Snapshot struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice int
	Quantity  int
}

// ValidateAvailability checks every requested line against the loaded catalog:
// the product must exist, must belong to vendorID, and must have enough stock.
// Stock is checked but not reserved here; the decrement happens inside the
// payment-confirmation transaction with its own stock guard.
func ValidateAvailability(vendorID uuid.UUID, requested []RequestedItem, catalog []models.Product) ([]Snapshot, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if len(requested) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	byID := make(map[uuid.UUID]*models.Product, len(catalog))
	for i := range catalog {
		byID[catalog[i].ID] = &catalog[i]
	}

	// A cart may list the same product on several lines; stock is compared
	// against the combined quantity, not each line on its own.
	requestedTotals := make(map[uuid.UUID]int, len(requested))
	for _, item := range requested {
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1").WithDetails(map[string]any{
				"product_id": item.ProductID,
			})
		}
		requestedTotals[item.ProductID] += item.Quantity
	}

	snapshots := make([]Snapshot, 0, len(requested))
	for _, item := range requested {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(map[string]any{
				"product_id": item.ProductID,
			})
		}
		if product.VendorID != vendorID {
			return nil, pkgerrors.New(pkgerrors.CodeVendorMismatch, "product vendor mismatch").WithDetails(map[string]any{
				"product_id": product.ID,
				"vendor_id":  product.VendorID,
			})
		}
		if requestedTotals[product.ID] > product.Stock {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("insufficient stock for %s", product.Name)).WithDetails(map[string]any{
				"product_id": product.ID,
				"requested":  requestedTotals[product.ID],
				"available":  product.Stock,
			})
		}

		snapshots = append(snapshots, Snapshot{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  item.Quantity,
		})
	}

	return snapshots, nil
}
