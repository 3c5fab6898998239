package invoice

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/client"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Invoice is a bill sent by a user to one of their clients.
// Money fields are always derived from Items, TaxRate and Discount.
type Invoice struct {
	shared.OwnedEntity
	ClientID      uuid.UUID
	InvoiceNumber string
	IssueDate     time.Time
	DueDate       time.Time
	Items         []LineItem
	TaxRate       decimal.Decimal
	Discount      decimal.Decimal
	Subtotal      decimal.Decimal
	TaxAmount     decimal.Decimal
	Total         decimal.Decimal
	Status        Status
	Notes         string
	Terms         string
	PaidAt        *time.Time

	// Client is populated by repositories that join the client row
	Client *client.Client
}

// Draft holds everything needed to create an invoice
type Draft struct {
	ClientID      uuid.UUID
	InvoiceNumber string
	IssueDate     time.Time
	DueDate       time.Time
	Items         []ItemInput
	TaxRate       decimal.Decimal
	Discount      decimal.Decimal
	Notes         string
	Terms         string
	Submitted     SubmittedTotals
}

// NewInvoice creates a DRAFT invoice owned by userID
func NewInvoice(userID uuid.UUID, d Draft) (*Invoice, error) {
	if userID == uuid.Nil {
		return nil, shared.NewValidationError("Owner is required")
	}
	if d.ClientID == uuid.Nil {
		return nil, shared.NewValidationError("Client is required")
	}
	number, err := validateNumber(d.InvoiceNumber)
	if err != nil {
		return nil, err
	}
	if d.IssueDate.IsZero() {
		return nil, shared.NewValidationError("Issue date is required")
	}
	if d.DueDate.IsZero() {
		return nil, shared.NewValidationError("Due date is required")
	}

	inv := &Invoice{
		OwnedEntity:   shared.NewOwnedEntity(userID),
		ClientID:      d.ClientID,
		InvoiceNumber: number,
		IssueDate:     CalendarDate(d.IssueDate),
		DueDate:       CalendarDate(d.DueDate),
		Status:        StatusDraft,
		Notes:         strings.TrimSpace(d.Notes),
		Terms:         strings.TrimSpace(d.Terms),
	}

	items, err := buildItems(inv.ID, d.Items)
	if err != nil {
		return nil, err
	}
	if err := inv.setPricing(items, d.TaxRate, d.Discount, d.Submitted); err != nil {
		return nil, err
	}
	return inv, nil
}

// Update carries a partial invoice update. Nil fields are left unchanged;
// a non-nil Items replaces the whole item set.
type Update struct {
	ClientID      *uuid.UUID
	InvoiceNumber *string
	IssueDate     *time.Time
	DueDate       *time.Time
	Items         *[]ItemInput
	TaxRate       *decimal.Decimal
	Discount      *decimal.Decimal
	Notes         *string
	Terms         *string
	Submitted     SubmittedTotals
}

// ReplacesItems reports whether the update carries a new item set
func (u Update) ReplacesItems() bool {
	return u.Items != nil
}

// Apply applies a partial update and recomputes totals.
// Nothing is mutated when validation fails.
func (inv *Invoice) Apply(u Update) error {
	next := *inv

	if u.ClientID != nil {
		if *u.ClientID == uuid.Nil {
			return shared.NewValidationError("Client is required")
		}
		next.ClientID = *u.ClientID
		next.Client = nil
	}
	if u.InvoiceNumber != nil {
		number, err := validateNumber(*u.InvoiceNumber)
		if err != nil {
			return err
		}
		next.InvoiceNumber = number
	}
	if u.IssueDate != nil {
		if u.IssueDate.IsZero() {
			return shared.NewValidationError("Issue date is required")
		}
		next.IssueDate = CalendarDate(*u.IssueDate)
	}
	if u.DueDate != nil {
		if u.DueDate.IsZero() {
			return shared.NewValidationError("Due date is required")
		}
		next.DueDate = CalendarDate(*u.DueDate)
	}
	if u.Notes != nil {
		next.Notes = strings.TrimSpace(*u.Notes)
	}
	if u.Terms != nil {
		next.Terms = strings.TrimSpace(*u.Terms)
	}

	items := inv.Items
	if u.Items != nil {
		built, err := buildItems(inv.ID, *u.Items)
		if err != nil {
			return err
		}
		items = built
	}
	taxRate, discount := inv.TaxRate, inv.Discount
	if u.TaxRate != nil {
		taxRate = *u.TaxRate
	}
	if u.Discount != nil {
		discount = *u.Discount
	}
	if err := next.setPricing(items, taxRate, discount, u.Submitted); err != nil {
		return err
	}

	next.Touch()
	*inv = next
	return nil
}

// ChangeStatus moves the invoice to status. PAID stamps PaidAt with now,
// every other status clears it. Any status is reachable from any other.
func (inv *Invoice) ChangeStatus(status Status, now time.Time) error {
	if !status.IsValid() {
		return shared.NewValidationError("Invalid status")
	}
	inv.Status = status
	if status == StatusPaid {
		paidAt := now
		inv.PaidAt = &paidAt
	} else {
		inv.PaidAt = nil
	}
	inv.UpdatedAt = now
	return nil
}

// CalendarDate keeps only the calendar day of t, as midnight UTC.
// The day is read in t's own location.
func CalendarDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (inv *Invoice) setPricing(items []LineItem, taxRate, discount decimal.Decimal, submitted SubmittedTotals) error {
	if taxRate.IsNegative() || taxRate.GreaterThan(hundred) {
		return shared.NewValidationError("Tax rate must be between 0 and 100")
	}
	if discount.IsNegative() {
		return shared.NewValidationError("Discount cannot be negative")
	}

	totals := CalculateTotals(items, taxRate, discount)
	if totals.Total.IsNegative() {
		return shared.NewValidationError("Discount cannot exceed the invoice amount")
	}
	if err := submitted.Verify(totals); err != nil {
		return err
	}

	inv.Items = items
	inv.TaxRate = taxRate
	inv.Discount = discount
	inv.Subtotal = totals.Subtotal
	inv.TaxAmount = totals.TaxAmount
	inv.Total = totals.Total
	return nil
}

func validateNumber(number string) (string, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return "", shared.NewValidationError("Invoice number is required")
	}
	if len(number) > 100 {
		return "", shared.NewValidationError("Invoice number cannot exceed 100 characters")
	}
	return number, nil
}
