package persistence

import (
	"context"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/audit"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditRepository implements audit.Repository using GORM
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Create appends an audit entry
func (r *GormAuditRepository) Create(ctx context.Context, e *audit.Entry) error {
	model, err := models.AuditLogModelFromDomain(e)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// ListByEntity returns the audit trail of one entity, oldest first
func (r *GormAuditRepository) ListByEntity(ctx context.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID) ([]*audit.Entry, error) {
	var rows []models.AuditLogModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND entity_type = ? AND entity_id = ?", tenantID, entityType, entityID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*audit.Entry, 0, len(rows))
	for i := range rows {
		e, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

var _ audit.Repository = (*GormAuditRepository)(nil)
