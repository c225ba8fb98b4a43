package persistence

import (
	"context"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/catalog"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product within a tenant
func (r *GormProductRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the tenant's products among ids
func (r *GormProductRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*catalog.Product, error) {
	if len(ids) == 0 {
		return []*catalog.Product{}, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return productsToDomain(rows), nil
}

// List returns products by sort order
func (r *GormProductRepository) List(ctx context.Context, tenantID uuid.UUID, availableOnly bool) ([]*catalog.Product, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if availableOnly {
		q = q.Where("is_available = ?", true)
	}
	var rows []models.ProductModel
	if err := q.Order("sort_order ASC, name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return productsToDomain(rows), nil
}

// Create inserts a new product
func (r *GormProductRepository) Create(ctx context.Context, p *catalog.Product) error {
	return translateError(r.db.WithContext(ctx).Create(models.ProductModelFromDomain(p)).Error)
}

// Save writes every column of an existing product
func (r *GormProductRepository) Save(ctx context.Context, p *catalog.Product) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("tenant_id = ? AND id = ?", p.TenantID, p.ID).
		Updates(map[string]any{
			"name":         p.Name,
			"description":  p.Description,
			"category":     p.Category,
			"price":        p.Price,
			"is_available": p.IsAvailable,
			"sort_order":   p.SortOrder,
			"version":      p.Version,
			"updated_at":   p.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func productsToDomain(rows []models.ProductModel) []*catalog.Product {
	out := make([]*catalog.Product, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// GormZoneRepository implements catalog.ZoneRepository using GORM
type GormZoneRepository struct {
	db *gorm.DB
}

// NewGormZoneRepository creates a new GormZoneRepository
func NewGormZoneRepository(db *gorm.DB) *GormZoneRepository {
	return &GormZoneRepository{db: db}
}

// FindByID finds a zone within a tenant
func (r *GormZoneRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Zone, error) {
	var model models.ZoneModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// List returns zones by sort order
func (r *GormZoneRepository) List(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*catalog.Zone, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var rows []models.ZoneModel
	if err := q.Order("sort_order ASC, name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*catalog.Zone, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Create inserts a new zone
func (r *GormZoneRepository) Create(ctx context.Context, z *catalog.Zone) error {
	return translateError(r.db.WithContext(ctx).Create(models.ZoneModelFromDomain(z)).Error)
}

// Save writes every column of an existing zone
func (r *GormZoneRepository) Save(ctx context.Context, z *catalog.Zone) error {
	result := r.db.WithContext(ctx).
		Model(&models.ZoneModel{}).
		Where("tenant_id = ? AND id = ?", z.TenantID, z.ID).
		Updates(map[string]any{
			"name":       z.Name,
			"color":      z.Color,
			"is_active":  z.IsActive,
			"sort_order": z.SortOrder,
			"version":    z.Version,
			"updated_at": z.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var (
	_ catalog.ProductRepository = (*GormProductRepository)(nil)
	_ catalog.ZoneRepository    = (*GormZoneRepository)(nil)
)
