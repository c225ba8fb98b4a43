package catalog

import (
	"context"

	appledger "github.com/Rmontilla83/saldobirras-pro/internal/application/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/audit"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/catalog"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/google/uuid"
)

// Service manages the products and zones offered on the portal
type Service struct {
	scope    appledger.TransactionScope
	products catalog.ProductRepository
	zones    catalog.ZoneRepository
}

// NewService creates a catalog service
func NewService(scope appledger.TransactionScope, products catalog.ProductRepository, zones catalog.ZoneRepository) *Service {
	return &Service{scope: scope, products: products, zones: zones}
}

// ListProducts lists products by sort order
func (s *Service) ListProducts(ctx context.Context, tenantID uuid.UUID, availableOnly bool) ([]ProductResponse, error) {
	products, err := s.products.List(ctx, tenantID, availableOnly)
	if err != nil {
		return nil, shared.WrapStoreError("catalog.list_products", err)
	}
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = ToProductResponse(p)
	}
	return out, nil
}

// CreateProduct adds a product
func (s *Service) CreateProduct(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, in catalog.ProductInput) (*ProductResponse, error) {
	if in.Name == nil || in.Price == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Name and price are required")
	}
	p, err := catalog.NewProduct(tenantID, *in.Name, *in.Price)
	if err != nil {
		return nil, err
	}
	in.Name, in.Price = nil, nil
	if err := p.Apply(in); err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		if err := repos.Products().Create(ctx, p); err != nil {
			return err
		}
		return repos.Audit().Create(ctx, audit.NewEntry(tenantID, userID, audit.ActionUpsertProduct, audit.EntityProduct, p.ID,
			map[string]any{"name": p.Name, "price": p.Price.String(), "created": true}))
	})
	if err != nil {
		return nil, shared.WrapStoreError("catalog.create_product", err)
	}
	resp := ToProductResponse(p)
	return &resp, nil
}

// UpdateProduct changes a product. Existing orders keep the price they were placed at.
func (s *Service) UpdateProduct(ctx context.Context, tenantID, productID uuid.UUID, userID *uuid.UUID, in catalog.ProductInput) (*ProductResponse, error) {
	var updated *catalog.Product
	err := s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		p, err := repos.Products().FindByID(ctx, tenantID, productID)
		if err != nil {
			return err
		}
		if err := p.Apply(in); err != nil {
			return err
		}
		if err := repos.Products().Save(ctx, p); err != nil {
			return err
		}
		updated = p
		return repos.Audit().Create(ctx, audit.NewEntry(tenantID, userID, audit.ActionUpsertProduct, audit.EntityProduct, p.ID,
			map[string]any{"name": p.Name, "price": p.Price.String(), "is_available": p.IsAvailable}))
	})
	if err != nil {
		return nil, shared.WrapStoreError("catalog.update_product", err)
	}
	resp := ToProductResponse(updated)
	return &resp, nil
}

// ListZones lists zones by sort order
func (s *Service) ListZones(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]ZoneResponse, error) {
	zones, err := s.zones.List(ctx, tenantID, activeOnly)
	if err != nil {
		return nil, shared.WrapStoreError("catalog.list_zones", err)
	}
	out := make([]ZoneResponse, len(zones))
	for i, z := range zones {
		out[i] = ToZoneResponse(z)
	}
	return out, nil
}

// CreateZone adds a zone
func (s *Service) CreateZone(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, in catalog.ZoneInput) (*ZoneResponse, error) {
	if in.Name == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Name is required")
	}
	z, err := catalog.NewZone(tenantID, *in.Name)
	if err != nil {
		return nil, err
	}
	in.Name = nil
	if err := z.Apply(in); err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		if err := repos.Zones().Create(ctx, z); err != nil {
			return err
		}
		return repos.Audit().Create(ctx, audit.NewEntry(tenantID, userID, audit.ActionUpsertZone, audit.EntityZone, z.ID,
			map[string]any{"name": z.Name, "created": true}))
	})
	if err != nil {
		return nil, shared.WrapStoreError("catalog.create_zone", err)
	}
	resp := ToZoneResponse(z)
	return &resp, nil
}

// UpdateZone changes a zone
func (s *Service) UpdateZone(ctx context.Context, tenantID, zoneID uuid.UUID, userID *uuid.UUID, in catalog.ZoneInput) (*ZoneResponse, error) {
	var updated *catalog.Zone
	err := s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		z, err := repos.Zones().FindByID(ctx, tenantID, zoneID)
		if err != nil {
			return err
		}
		if err := z.Apply(in); err != nil {
			return err
		}
		if err := repos.Zones().Save(ctx, z); err != nil {
			return err
		}
		updated = z
		return repos.Audit().Create(ctx, audit.NewEntry(tenantID, userID, audit.ActionUpsertZone, audit.EntityZone, z.ID,
			map[string]any{"name": z.Name, "is_active": z.IsActive}))
	})
	if err != nil {
		return nil, shared.WrapStoreError("catalog.update_zone", err)
	}
	resp := ToZoneResponse(updated)
	return &resp, nil
}
