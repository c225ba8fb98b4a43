package catalog

import (
	"strings"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCategory is used when a product is created without one
const DefaultCategory = "beer"

// Product is an item customers can order from the portal. Its price is
// copied into order lines at creation; later changes never reach existing orders.
type Product struct {
	shared.TenantAggregateRoot
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	IsAvailable bool
	SortOrder   int
}

// ProductInput carries product fields for create and update
type ProductInput struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	IsAvailable *bool
	SortOrder   *int
}

// NewProduct creates an available product
func NewProduct(tenantID uuid.UUID, name string, price decimal.Decimal) (*Product, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Tenant ID cannot be empty")
	}
	name = strings.TrimSpace(name)
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	return &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID, nil),
		Name:                name,
		Category:            DefaultCategory,
		Price:               price,
		IsAvailable:         true,
	}, nil
}

// Apply updates the fields present in in
func (p *Product) Apply(in ProductInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validateProductName(name); err != nil {
			return err
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = shared.SanitizeText(*in.Description)
	}
	if in.Category != nil {
		category := strings.TrimSpace(*in.Category)
		if category == "" {
			category = DefaultCategory
		}
		p.Category = category
	}
	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return err
		}
		p.Price = *in.Price
	}
	if in.IsAvailable != nil {
		p.IsAvailable = *in.IsAvailable
	}
	if in.SortOrder != nil {
		p.SortOrder = *in.SortOrder
	}
	p.Touch()
	return nil
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Product name cannot be empty")
	}
	if len([]rune(name)) > 200 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Product name cannot exceed 200 characters")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Price cannot be negative")
	}
	_, err := valueobject.NewMoney(price)
	return err
}
