package catalog

import (
	"time"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable bool            `json:"is_available"`
	SortOrder   int             `json:"sort_order"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToProductResponse converts a domain Product to a response
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		IsAvailable: p.IsAvailable,
		SortOrder:   p.SortOrder,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ZoneResponse represents a zone in API responses
type ZoneResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	IsActive  bool      `json:"is_active"`
	SortOrder int       `json:"sort_order"`
}

// ToZoneResponse converts a domain Zone to a response
func ToZoneResponse(z *catalog.Zone) ZoneResponse {
	return ZoneResponse{
		ID:        z.ID,
		Name:      z.Name,
		Color:     z.Color,
		IsActive:  z.IsActive,
		SortOrder: z.SortOrder,
	}
}
