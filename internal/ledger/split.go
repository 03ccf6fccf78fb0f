package ledger

import (
	"fmt"

	pkgerrors "github.com/rahulmenon/bazario-backend/pkg/errors"
)

// LineItem is the minimal monetary view of an order line: unit price in minor
// currency units and quantity.
type LineItem struct {
	UnitPrice int
	Quantity  int
}

// Split is the deterministic money breakdown of an order.
type Split struct {
	TotalAmount  int
	PlatformFee  int
	VendorAmount int
}

// ComputeSplit returns the order total, the platform's cut, and the vendor's
// remainder. All arithmetic is integer minor units; the fee is floored so that
// PlatformFee + VendorAmount == TotalAmount holds exactly. feePercent must be a
// whole number in [0,100]; fractional percents are the caller's problem.
func ComputeSplit(items []LineItem, feePercent int) (Split, error) {
	if feePercent < 0 || feePercent > 100 {
		return Split{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("fee percent must be within [0,100], got %d", feePercent))
	}
	if len(items) == 0 {
		return Split{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one line item is required")
	}

	total := 0
	for i, item := range items {
		if item.Quantity <= 0 {
			return Split{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d has non-positive quantity", i))
		}
		if item.UnitPrice < 0 {
			return Split{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d has negative price", i))
		}
		total += item.UnitPrice * item.Quantity
	}

	fee := total * feePercent / 100
	return Split{
		TotalAmount:  total,
		PlatformFee:  fee,
		VendorAmount: total - fee,
	}, nil
}
