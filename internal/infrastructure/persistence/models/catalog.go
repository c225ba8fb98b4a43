package models

import (
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product entity.
type ProductModel struct {
	TenantAggregateModel
	Name        string          `gorm:"type:varchar(200);not null"`
	Description string          `gorm:"type:text"`
	Category    string          `gorm:"type:varchar(50);not null"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	IsAvailable bool            `gorm:"not null"`
	SortOrder   int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		Name:        m.Name,
		Description: m.Description,
		Category:    m.Category,
		Price:       m.Price,
		IsAvailable: m.IsAvailable,
		SortOrder:   m.SortOrder,
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	return p
}

// ProductModelFromDomain creates a persistence model from a domain Product.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		IsAvailable: p.IsAvailable,
		SortOrder:   p.SortOrder,
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	return m
}

// ZoneModel is the persistence model for the Zone entity.
type ZoneModel struct {
	TenantAggregateModel
	Name      string `gorm:"type:varchar(100);not null"`
	Color     string `gorm:"type:varchar(7);not null"`
	IsActive  bool   `gorm:"not null"`
	SortOrder int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ZoneModel) TableName() string {
	return "zones"
}

// ToDomain converts the persistence model to a domain Zone.
func (m *ZoneModel) ToDomain() *catalog.Zone {
	z := &catalog.Zone{
		Name:      m.Name,
		Color:     m.Color,
		IsActive:  m.IsActive,
		SortOrder: m.SortOrder,
	}
	m.PopulateTenantAggregateRoot(&z.TenantAggregateRoot)
	return z
}

// ZoneModelFromDomain creates a persistence model from a domain Zone.
func ZoneModelFromDomain(z *catalog.Zone) *ZoneModel {
	m := &ZoneModel{
		Name:      z.Name,
		Color:     z.Color,
		IsActive:  z.IsActive,
		SortOrder: z.SortOrder,
	}
	m.FromDomainTenantAggregateRoot(z.TenantAggregateRoot)
	return m
}
