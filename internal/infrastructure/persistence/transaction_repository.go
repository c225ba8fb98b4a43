package persistence

import (
	"context"
	"time"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTransactionRepository implements ledger.TransactionRepository using GORM.
// Rows are never updated except to backfill the items of a consume.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Create appends a ledger entry
func (r *GormTransactionRepository) Create(ctx context.Context, tx *ledger.Transaction) error {
	model, err := models.TransactionModelFromDomain(tx)
	if err != nil {
		return err
	}
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// FindByID finds a ledger entry within a tenant
func (r *GormTransactionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain()
}

// UpdateItems backfills the items column of a consume entry
func (r *GormTransactionRepository) UpdateItems(ctx context.Context, tx *ledger.Transaction) error {
	items, err := models.EncodeItems(tx.Items)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Where("tenant_id = ? AND id = ? AND type = ?", tx.TenantID, tx.ID, ledger.EntryTypeConsume).
		Update("items", items)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormTransactionRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter ledger.TransactionFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.TransactionModel{}).Where("tenant_id = ?", tenantID)
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Type != nil {
		q = q.Where("type = ?", *filter.Type)
	}
	if filter.DateFrom != nil {
		q = q.Where("created_at >= ?", filter.DateFrom.UTC())
	}
	if filter.DateTo != nil {
		q = q.Where("created_at <= ?", filter.DateTo.UTC())
	}
	return q
}

// List lists entries newest first
func (r *GormTransactionRepository) List(ctx context.Context, tenantID uuid.UUID, filter ledger.TransactionFilter) ([]*ledger.Transaction, int64, error) {
	var total int64
	if err := r.filtered(ctx, tenantID, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var rows []models.TransactionModel
	if err := r.filtered(ctx, tenantID, filter).
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	txs, err := transactionsToDomain(rows)
	return txs, total, err
}

// ListForExport returns up to limit entries oldest first
func (r *GormTransactionRepository) ListForExport(ctx context.Context, tenantID uuid.UUID, filter ledger.TransactionFilter, limit int) ([]*ledger.Transaction, error) {
	var rows []models.TransactionModel
	if err := r.filtered(ctx, tenantID, filter).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return transactionsToDomain(rows)
}

// ListByCustomerChronological returns the customer's full log in creation order
func (r *GormTransactionRepository) ListByCustomerChronological(ctx context.Context, tenantID, customerID uuid.UUID) ([]*ledger.Transaction, error) {
	var rows []models.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return transactionsToDomain(rows)
}

// CountSince counts entries created at or after since
func (r *GormTransactionRepository) CountSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Where("tenant_id = ? AND created_at >= ?", tenantID, since.UTC()).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func transactionsToDomain(rows []models.TransactionModel) ([]*ledger.Transaction, error) {
	out := make([]*ledger.Transaction, 0, len(rows))
	for i := range rows {
		tx, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

var _ ledger.TransactionRepository = (*GormTransactionRepository)(nil)
