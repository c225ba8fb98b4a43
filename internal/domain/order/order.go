package order

import (
	"fmt"
	"strings"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxItemsPerOrder = 50

// Order is a customer order whose total is held against the customer's
// balance until it is delivered (consumed) or cancelled (released).
type Order struct {
	shared.TenantAggregateRoot
	CustomerID    uuid.UUID
	Items         []ledger.LineItem
	Total         decimal.Decimal
	Status        Status
	ZoneID        *uuid.UUID
	Note          string
	DeliveredBy   *uuid.UUID
	TransactionID *uuid.UUID

	// HoldReleased flips once, when the order's hold is released. It is the
	// idempotence key for ReleaseHold.
	HoldReleased bool
}

// NewOrder creates a pending order with a frozen total
func NewOrder(tenantID, customerID uuid.UUID, items []ledger.LineItem, zoneID *uuid.UUID, note string) (*Order, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Tenant ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Customer ID cannot be empty")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Order must contain at least one item")
	}
	if len(items) > maxItemsPerOrder {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Order cannot contain more than %d items", maxItemsPerOrder))
	}
	total := ledger.SumItems(items)
	if !total.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Order total must be greater than zero")
	}

	o := &Order{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID, nil),
		CustomerID:          customerID,
		Items:               append([]ledger.LineItem(nil), items...),
		Total:               total,
		Status:              StatusPending,
		ZoneID:              zoneID,
		Note:                note,
	}
	o.AddDomainEvent(NewOrderCreatedEvent(o))
	return o, nil
}

// TransitionTo validates and applies a status change. Side effects on the
// ledger are the caller's job; this only moves the state.
func (o *Order) TransitionTo(target Status) error {
	if o.Status.IsTerminal() {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("Order is already %s", o.Status))
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot move order from %s to %s", o.Status, target))
	}
	from := o.Status
	o.Status = target
	o.Touch()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from))
	return nil
}

// MarkDelivered records who fulfilled the order and the consume entry that billed it
func (o *Order) MarkDelivered(staffID *uuid.UUID, transactionID uuid.UUID) {
	o.DeliveredBy = staffID
	o.TransactionID = &transactionID
}

// ItemsSummary renders the consume note for a delivered order,
// e.g. "Order: 2x IPA, 1x Stout".
func (o *Order) ItemsSummary() string {
	parts := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		parts = append(parts, fmt.Sprintf("%dx %s", it.Quantity, it.Name))
	}
	return "Order: " + strings.Join(parts, ", ")
}
