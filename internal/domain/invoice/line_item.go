package invoice

import (
	"strings"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LineItem is one billable row of an invoice
type LineItem struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	Position    int
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

// ItemInput is the client-supplied part of a line item
type ItemInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// buildItems validates inputs and derives amounts and positions
func buildItems(invoiceID uuid.UUID, inputs []ItemInput) ([]LineItem, error) {
	if len(inputs) == 0 {
		return nil, shared.NewValidationError("At least one line item is required")
	}
	items := make([]LineItem, 0, len(inputs))
	for i, in := range inputs {
		desc := strings.TrimSpace(in.Description)
		if desc == "" {
			return nil, shared.NewValidationError("Line item description is required")
		}
		if !in.Quantity.IsPositive() {
			return nil, shared.NewValidationError("Line item quantity must be greater than zero")
		}
		if in.UnitPrice.IsNegative() {
			return nil, shared.NewValidationError("Line item unit price cannot be negative")
		}
		items = append(items, LineItem{
			ID:          uuid.New(),
			InvoiceID:   invoiceID,
			Position:    i,
			Description: desc,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Amount:      in.Quantity.Mul(in.UnitPrice),
		})
	}
	return items, nil
}
