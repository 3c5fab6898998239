package invoice

import (
	"fmt"

	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TotalsTolerance is the largest accepted difference between client-submitted
// totals and the server computation.
var TotalsTolerance = decimal.NewFromFloat(0.01)

var hundred = decimal.NewFromInt(100)

// Totals is the computed money summary of an invoice
type Totals struct {
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// CalculateTotals computes subtotal, tax and total.
// subtotal = Σ amount, taxAmount = subtotal × taxRate/100, total = subtotal + taxAmount − discount.
// Tax is rounded to cents; line amounts are exact products.
func CalculateTotals(items []LineItem, taxRate, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Quantity.Mul(item.UnitPrice))
	}
	taxAmount := subtotal.Mul(taxRate).Div(hundred).Round(2)
	return Totals{
		Subtotal:  subtotal,
		TaxAmount: taxAmount,
		Total:     subtotal.Add(taxAmount).Sub(discount),
	}
}

// SubmittedTotals are the optional totals a client sent along with the items
type SubmittedTotals struct {
	Subtotal *decimal.Decimal
	Total    *decimal.Decimal
}

// Verify rejects submitted totals that diverge from the computed ones by more
// than TotalsTolerance. Missing values are not checked.
func (s SubmittedTotals) Verify(computed Totals) error {
	if s.Subtotal != nil && !withinTolerance(*s.Subtotal, computed.Subtotal) {
		return shared.NewValidationError(fmt.Sprintf(
			"Submitted subtotal %s does not match computed subtotal %s",
			s.Subtotal.StringFixed(2), computed.Subtotal.StringFixed(2)))
	}
	if s.Total != nil && !withinTolerance(*s.Total, computed.Total) {
		return shared.NewValidationError(fmt.Sprintf(
			"Submitted total %s does not match computed total %s",
			s.Total.StringFixed(2), computed.Total.StringFixed(2)))
	}
	return nil
}

func withinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(TotalsTolerance)
}
