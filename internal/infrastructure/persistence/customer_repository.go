package persistence

import (
	"context"
	"strings"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCustomerRepository implements ledger.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by ID within a tenant
func (r *GormCustomerRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindForUpdate finds a customer and locks its row with SELECT ... FOR UPDATE
func (r *GormCustomerRepository) FindForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByLookupToken resolves an active customer by QR code or PIN
func (r *GormCustomerRepository) FindByLookupToken(ctx context.Context, tenantID uuid.UUID, token string) (*ledger.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ? AND (qr_code = ? OR pin = ?)", tenantID, true, token, token).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// ExistsByQRCode checks if a QR code is taken within a tenant
func (r *GormCustomerRepository) ExistsByQRCode(ctx context.Context, tenantID uuid.UUID, qrCode string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("tenant_id = ? AND qr_code = ?", tenantID, qrCode).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsByPIN checks if a PIN is taken within a tenant, ignoring excludeID
func (r *GormCustomerRepository) ExistsByPIN(ctx context.Context, tenantID uuid.UUID, pin string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("tenant_id = ? AND pin = ?", tenantID, pin)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new customer
func (r *GormCustomerRepository) Create(ctx context.Context, customer *ledger.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// SaveWithLock writes every mutable column guarded by the previous version.
// Updates takes a map so zero values (a released hold, a cleared PIN) are written.
func (r *GormCustomerRepository) SaveWithLock(ctx context.Context, customer *ledger.Customer) error {
	result := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", customer.TenantID, customer.ID, customer.Version-1).
		Updates(map[string]any{
			"name":           customer.Name,
			"email":          customer.Email,
			"phone":          customer.Phone,
			"balance":        customer.Balance,
			"balance_held":   customer.BalanceHeld,
			"allow_negative": customer.AllowNegative,
			"pin":            customer.PIN,
			"is_active":      customer.IsActive,
			"version":        customer.Version,
			"updated_at":     customer.UpdatedAt,
		})
	return guarded(result)
}

// List lists active customers (unless IncludeInactive) matching the search
func (r *GormCustomerRepository) List(ctx context.Context, tenantID uuid.UUID, filter ledger.CustomerFilter) ([]*ledger.Customer, int64, error) {
	query := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.CustomerModel{}).Where("tenant_id = ?", tenantID)
		if !filter.IncludeInactive {
			q = q.Where("is_active = ?", true)
		}
		if s := strings.TrimSpace(filter.Search); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			q = q.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ? OR qr_code = ?)", like, like, like, s)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var rows []models.CustomerModel
	if err := query().Order("name ASC").Offset(page.Offset()).Limit(page.PageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return customersToDomain(rows), total, nil
}

// ListAll returns every customer of a tenant
func (r *GormCustomerRepository) ListAll(ctx context.Context, tenantID uuid.UUID) ([]*ledger.Customer, error) {
	var rows []models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return customersToDomain(rows), nil
}

func customersToDomain(rows []models.CustomerModel) []*ledger.Customer {
	out := make([]*ledger.Customer, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ ledger.CustomerRepository = (*GormCustomerRepository)(nil)
