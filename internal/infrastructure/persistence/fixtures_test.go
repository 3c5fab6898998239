package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/client"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, email string) *identity.User {
	t.Helper()
	u, err := identity.NewUser(email, "")
	require.NoError(t, err)
	require.NoError(t, NewGormUserRepository(db).Save(context.Background(), u))
	return u
}

func seedClient(t *testing.T, db *gorm.DB, userID uuid.UUID, name string) *client.Client {
	t.Helper()
	c, err := client.NewClient(userID, name, "billing@"+name+".test")
	require.NoError(t, err)
	require.NoError(t, NewGormClientRepository(db).Save(context.Background(), c))
	return c
}

// newTestInvoice builds the 2×50 + 1×25, 10% tax, 5 discount invoice
func newTestInvoice(t *testing.T, userID, clientID uuid.UUID, number string) *invoice.Invoice {
	t.Helper()
	issue := time.Now().Truncate(time.Second)
	inv, err := invoice.NewInvoice(userID, invoice.Draft{
		ClientID:      clientID,
		InvoiceNumber: number,
		IssueDate:     issue,
		DueDate:       issue.AddDate(0, 0, 14),
		Items: []invoice.ItemInput{
			{Description: "Design", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50)},
			{Description: "Hosting", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(25)},
		},
		TaxRate:  decimal.NewFromInt(10),
		Discount: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	inv.CreatedAt = issue
	inv.UpdatedAt = issue
	return inv
}

func unlimited() invoice.Quota {
	return invoice.Quota{Unlimited: true}
}
