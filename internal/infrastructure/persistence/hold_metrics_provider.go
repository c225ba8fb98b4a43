package persistence

import (
	"context"

	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/persistence/models"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormHoldMetricsProvider sums balance_held per tenant for the outstanding holds gauge
type GormHoldMetricsProvider struct {
	db *gorm.DB
}

// NewGormHoldMetricsProvider creates a new GormHoldMetricsProvider
func NewGormHoldMetricsProvider(db *gorm.DB) *GormHoldMetricsProvider {
	return &GormHoldMetricsProvider{db: db}
}

type tenantHeld struct {
	TenantID uuid.UUID
	Held     decimal.Decimal
}

// OutstandingHoldsByTenant returns the held total of every tenant with open holds
func (p *GormHoldMetricsProvider) OutstandingHoldsByTenant(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []tenantHeld
	if err := p.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Select("tenant_id, SUM(balance_held) AS held").
		Where("balance_held > 0").
		Group("tenant_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, r := range rows {
		out[r.TenantID] = r.Held
	}
	return out, nil
}

var _ telemetry.HoldMetricsProvider = (*GormHoldMetricsProvider)(nil)
