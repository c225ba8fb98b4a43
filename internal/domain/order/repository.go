package order

import (
	"context"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter contains filter options for listing orders
type Filter struct {
	Status     *Status
	CustomerID *uuid.UUID
	shared.Page
}

// Repository defines the interface for order persistence
type Repository interface {
	// Create inserts a new order
	Create(ctx context.Context, o *Order) error

	// FindByID finds an order within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)

	// FindForUpdate loads the order and locks its row for the surrounding transaction
	FindForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)

	// CompareAndSetStatus moves the order to o.Status only if the stored
	// status still equals expected. Zero rows affected returns ErrConcurrencyConflict.
	CompareAndSetStatus(ctx context.Context, o *Order, expected Status) error

	// MarkHoldReleased flips hold_released from false to true. It returns
	// false when the flag was already set, meaning the hold is gone.
	MarkHoldReleased(ctx context.Context, tenantID, id uuid.UUID) (bool, error)

	// SetDelivery records the fulfilling staff and consume transaction
	SetDelivery(ctx context.Context, o *Order) error

	// List lists orders newest first
	List(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]*Order, int64, error)

	// ListOutstandingByCustomer returns orders whose hold has not been released
	ListOutstandingByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]*Order, error)
}
