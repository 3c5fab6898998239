package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/client"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockClientRepository creates a GormClientRepository with a mocked SQL connection
func newMockClientRepository(t *testing.T) (*GormClientRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormClientRepository(gormDB), mock, mockDB
}

func TestGormClientRepository_FindByIDForUser_Query(t *testing.T) {
	t.Run("scopes lookup by owner and id", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		userID, clientID := uuid.New(), uuid.New()
		rows := sqlmock.NewRows([]string{"id", "user_id", "name", "email"}).
			AddRow(clientID, userID, "Acme", "a@acme.com")

		mock.ExpectQuery(`SELECT \* FROM "clients" WHERE user_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(userID, clientID, 1).
			WillReturnRows(rows)

		c, err := repo.FindByIDForUser(context.Background(), userID, clientID)
		require.NoError(t, err)
		assert.Equal(t, "Acme", c.Name)
		assert.Equal(t, userID, c.UserID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing rows to not found", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		userID, clientID := uuid.New(), uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "clients" WHERE user_id = \$1 AND id = \$2`).
			WithArgs(userID, clientID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		c, err := repo.FindByIDForUser(context.Background(), userID, clientID)
		assert.Nil(t, c)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormClientRepository_FindAllForUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormClientRepository(db)
	invoices := NewGormInvoiceRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")
	zeta := seedClient(t, db, owner.ID, "zeta")
	seedClient(t, db, owner.ID, "acme")
	seedClient(t, db, owner.ID, "mango")
	seedClient(t, db, other.ID, "foreign")

	require.NoError(t, invoices.CreateWithinQuota(ctx, newTestInvoice(t, owner.ID, zeta.ID, "Z-1"), unlimited()))
	require.NoError(t, invoices.CreateWithinQuota(ctx, newTestInvoice(t, owner.ID, zeta.ID, "Z-2"), unlimited()))

	t.Run("name ascending with invoice counts", func(t *testing.T) {
		summaries, total, err := repo.FindAllForUser(ctx, owner.ID, shared.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, summaries, 3)
		assert.Equal(t, "acme", summaries[0].Client.Name)
		assert.Equal(t, "mango", summaries[1].Client.Name)
		assert.Equal(t, "zeta", summaries[2].Client.Name)
		assert.Equal(t, int64(0), summaries[0].InvoiceCount)
		assert.Equal(t, int64(2), summaries[2].InvoiceCount)
	})

	t.Run("search", func(t *testing.T) {
		summaries, total, err := repo.FindAllForUser(ctx, owner.ID, shared.Filter{Search: "MAN"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, summaries, 1)
		assert.Equal(t, "mango", summaries[0].Client.Name)
	})
}

func TestGormClientRepository_SaveAndDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormClientRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	c := seedClient(t, db, owner.ID, "acme")

	company := "Acme Corp"
	require.NoError(t, c.Apply(client.Update{Company: &company}))
	require.NoError(t, repo.Save(ctx, c))

	found, err := repo.FindByIDForUser(ctx, owner.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", found.Company)

	_, err = repo.FindByIDForUser(ctx, uuid.New(), c.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.ErrorIs(t, repo.DeleteForUser(ctx, uuid.New(), c.ID), shared.ErrNotFound)
	require.NoError(t, repo.DeleteForUser(ctx, owner.ID, c.ID))
	_, err = repo.FindByIDForUser(ctx, owner.ID, c.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
