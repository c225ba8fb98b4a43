package persistence

import (
	"context"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/order"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts a new order
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	model, err := models.OrderModelFromDomain(o)
	if err != nil {
		return err
	}
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// FindByID finds an order within a tenant
func (r *GormOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain()
}

// FindForUpdate finds an order and locks its row
func (r *GormOrderRepository) FindForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain()
}

// CompareAndSetStatus writes o.Status only while the stored status is expected
func (r *GormOrderRepository) CompareAndSetStatus(ctx context.Context, o *order.Order, expected order.Status) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("tenant_id = ? AND id = ? AND status = ?", o.TenantID, o.ID, expected).
		Updates(map[string]any{
			"status":     o.Status,
			"version":    o.Version,
			"updated_at": o.UpdatedAt,
		})
	return guarded(result)
}

// MarkHoldReleased flips hold_released from false to true exactly once
func (r *GormOrderRepository) MarkHoldReleased(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("tenant_id = ? AND id = ? AND hold_released = ?", tenantID, id, false).
		Update("hold_released", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SetDelivery records who delivered the order and the consume entry
func (r *GormOrderRepository) SetDelivery(ctx context.Context, o *order.Order) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("tenant_id = ? AND id = ?", o.TenantID, o.ID).
		Updates(map[string]any{
			"delivered_by":   o.DeliveredBy,
			"transaction_id": o.TransactionID,
			"version":        o.Version,
			"updated_at":     o.UpdatedAt,
		})
	return guarded(result)
}

func (r *GormOrderRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter order.Filter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("tenant_id = ?", tenantID)
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	return q
}

// List lists orders newest first
func (r *GormOrderRepository) List(ctx context.Context, tenantID uuid.UUID, filter order.Filter) ([]*order.Order, int64, error) {
	var total int64
	if err := r.filtered(ctx, tenantID, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page := filter.Page.Normalize()
	var rows []models.OrderModel
	if err := r.filtered(ctx, tenantID, filter).
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	orders, err := ordersToDomain(rows)
	return orders, total, err
}

// ListOutstandingByCustomer returns the customer's orders still holding funds
func (r *GormOrderRepository) ListOutstandingByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]*order.Order, error) {
	var rows []models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ? AND hold_released = ?", tenantID, customerID, false).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return ordersToDomain(rows)
}

func ordersToDomain(rows []models.OrderModel) ([]*order.Order, error) {
	out := make([]*order.Order, 0, len(rows))
	for i := range rows {
		o, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

var _ order.Repository = (*GormOrderRepository)(nil)
