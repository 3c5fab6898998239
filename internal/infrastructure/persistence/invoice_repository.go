package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// invoiceColumns are the columns written by Update
var invoiceColumns = []string{
	"client_id", "invoice_number", "issue_date", "due_date",
	"tax_rate", "discount", "subtotal", "tax_amount", "total",
	"status", "notes", "terms", "paid_at", "updated_at",
}

// GormInvoiceRepository implements invoice.Repository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByIDForUser loads an invoice with its client and ordered items
func (r *GormInvoiceRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*invoice.Invoice, error) {
	var model models.InvoiceModel
	if err := r.withAssociations(r.db.WithContext(ctx)).
		Where("user_id = ? AND id = ?", userID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForUser lists invoices newest first, optionally filtered by status
func (r *GormInvoiceRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]invoice.Invoice, int64, error) {
	var total int64
	if err := r.applyFilterWithoutPagination(r.forUser(ctx, userID), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invoiceModels []models.InvoiceModel
	query := r.applyFilter(r.withAssociations(r.forUser(ctx, userID)), filter)
	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, 0, err
	}
	return toInvoices(invoiceModels), total, nil
}

// FindRecentForClient returns the newest invoices billed to a client
func (r *GormInvoiceRepository) FindRecentForClient(ctx context.Context, userID, clientID uuid.UUID, limit int) ([]invoice.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.withAssociations(r.forUser(ctx, userID)).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toInvoices(invoiceModels), nil
}

// CreateWithinQuota inserts the invoice and its items. For capped quotas the
// owning user row is locked first so concurrent creates by the same user
// count and insert one at a time.
func (r *GormInvoiceRepository) CreateWithinQuota(ctx context.Context, inv *invoice.Invoice, quota invoice.Quota) error {
	model := models.InvoiceModelFromDomain(inv)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !quota.Unlimited {
			var owner models.UserModel
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Select("id").
				Where("id = ?", inv.UserID).
				First(&owner).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return shared.ErrNotFound
				}
				return err
			}

			var count int64
			if err := tx.Model(&models.InvoiceModel{}).
				Where("user_id = ? AND created_at >= ?", inv.UserID, quota.Since).
				Count(&count).Error; err != nil {
				return err
			}
			if !quota.Allows(count) {
				return invoice.NewQuotaExceededError(count, int64(quota.Limit))
			}
		}

		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Update saves scalar fields and, when replaceItems is set, deletes and
// recreates the item set in the same transaction.
func (r *GormInvoiceRepository) Update(ctx context.Context, inv *invoice.Invoice, replaceItems bool) error {
	model := models.InvoiceModelFromDomain(inv)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(model).
			Where("user_id = ?", inv.UserID).
			Select(invoiceColumns).
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		if !replaceItems {
			return nil
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItemModel{}).Error; err != nil {
			return err
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateStatus saves status and paid_at only
func (r *GormInvoiceRepository) UpdateStatus(ctx context.Context, inv *invoice.Invoice) error {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("user_id = ? AND id = ?", inv.UserID, inv.ID).
		Select("status", "paid_at", "updated_at").
		Updates(map[string]any{
			"status":     string(inv.Status),
			"paid_at":    inv.PaidAt,
			"updated_at": inv.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteForUser deletes an invoice and its items
func (r *GormInvoiceRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.InvoiceModel{}).
			Where("user_id = ? AND id = ?", userID, id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}

		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceItemModel{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND id = ?", userID, id).Delete(&models.InvoiceModel{}).Error
	})
}

// CountForClient counts invoices referencing a client
func (r *GormInvoiceRepository) CountForClient(ctx context.Context, userID, clientID uuid.UUID) (int64, error) {
	var count int64
	if err := r.forUser(ctx, userID).Where("client_id = ?", clientID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountCreatedSince counts invoices the user created at or after since
func (r *GormInvoiceRepository) CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	if err := r.forUser(ctx, userID).Where("created_at >= ?", since).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormInvoiceRepository) forUser(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("user_id = ?", userID)
}

func (r *GormInvoiceRepository) withAssociations(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Client").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

// applyFilter applies filter options to the query
func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Paged() {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, InvoiceSortFields, "created_at")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormInvoiceRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "client_id":
			query = query.Where("client_id = ?", value)
		}
	}
	if filter.Search != "" {
		query = query.Where("LOWER(invoice_number) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	return query
}

func toInvoices(invoiceModels []models.InvoiceModel) []invoice.Invoice {
	invoices := make([]invoice.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = *invoiceModels[i].ToDomain()
	}
	return invoices
}

// Ensure GormInvoiceRepository implements invoice.Repository
var _ invoice.Repository = (*GormInvoiceRepository)(nil)
