package catalog

import (
	"regexp"
	"strings"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/google/uuid"
)

const DefaultZoneColor = "#F5A623"

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Zone is a delivery location inside the venue (bar, terrace, table area)
type Zone struct {
	shared.TenantAggregateRoot
	Name      string
	Color     string
	IsActive  bool
	SortOrder int
}

// ZoneInput carries zone fields for create and update
type ZoneInput struct {
	Name      *string
	Color     *string
	IsActive  *bool
	SortOrder *int
}

// NewZone creates an active zone
func NewZone(tenantID uuid.UUID, name string) (*Zone, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Tenant ID cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Zone name cannot be empty")
	}
	return &Zone{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID, nil),
		Name:                name,
		Color:               DefaultZoneColor,
		IsActive:            true,
	}, nil
}

// Apply updates the fields present in in
func (z *Zone) Apply(in ZoneInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return shared.NewDomainError(shared.CodeInvalidInput, "Zone name cannot be empty")
		}
		z.Name = name
	}
	if in.Color != nil {
		if !colorPattern.MatchString(*in.Color) {
			return shared.NewDomainError(shared.CodeInvalidInput, "Color must be a hex value like #F5A623")
		}
		z.Color = *in.Color
	}
	if in.IsActive != nil {
		z.IsActive = *in.IsActive
	}
	if in.SortOrder != nil {
		z.SortOrder = *in.SortOrder
	}
	z.Touch()
	return nil
}
