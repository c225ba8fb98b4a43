package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	// FindByIDs returns the products among ids that belong to the tenant
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*Product, error)
	// List returns products by sort_order; availableOnly hides unavailable ones
	List(ctx context.Context, tenantID uuid.UUID, availableOnly bool) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Save(ctx context.Context, p *Product) error
}

// ZoneRepository defines the interface for zone persistence
type ZoneRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Zone, error)
	// List returns zones by sort_order; activeOnly hides inactive ones
	List(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*Zone, error)
	Create(ctx context.Context, z *Zone) error
	Save(ctx context.Context, z *Zone) error
}
