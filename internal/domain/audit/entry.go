package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Actions recorded in the audit log
const (
	ActionCreateCustomer     = "create_customer"
	ActionUpdateCustomer     = "update_customer"
	ActionDeactivateCustomer = "deactivate_customer"
	ActionUpsertProduct      = "upsert_product"
	ActionUpsertZone         = "upsert_zone"
)

// Entity types
const (
	EntityCustomer = "customer"
	EntityProduct  = "product"
	EntityZone     = "zone"
)

// Entry is an append-only record of who changed what
type Entry struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	UserID     *uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Details    map[string]any
	CreatedAt  time.Time
}

// NewEntry creates an audit entry
func NewEntry(tenantID uuid.UUID, userID *uuid.UUID, action, entityType string, entityID uuid.UUID, details map[string]any) *Entry {
	return &Entry{
		ID:         uuid.New(),
		TenantID:   tenantID,
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}
}

// Repository persists audit entries
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	ListByEntity(ctx context.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID) ([]*Entry, error)
}
