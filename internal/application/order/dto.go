package order

import (
	"time"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemRequest is one requested product and quantity. Prices always come
// from the catalog, never from the caller.
type ItemRequest struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderCommand places an order on behalf of the customer identified
// by CustomerID (staff orders) or else by a lookup token (QR code or PIN).
type CreateOrderCommand struct {
	TenantID       uuid.UUID
	CustomerID     *uuid.UUID
	LookupToken    string
	Items          []ItemRequest
	ZoneID         *uuid.UUID
	Note           string
	IdempotencyKey string
}

// AdvanceCommand moves an order to a new status
type AdvanceCommand struct {
	TenantID uuid.UUID
	OrderID  uuid.UUID
	Target   order.Status
	StaffID  *uuid.UUID
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID            uuid.UUID         `json:"id"`
	CustomerID    uuid.UUID         `json:"customer_id"`
	Items         []ledger.LineItem `json:"items"`
	Total         decimal.Decimal   `json:"total"`
	Status        string            `json:"status"`
	ZoneID        *uuid.UUID        `json:"zone_id,omitempty"`
	Note          string            `json:"note,omitempty"`
	DeliveredBy   *uuid.UUID        `json:"delivered_by,omitempty"`
	TransactionID *uuid.UUID        `json:"transaction_id,omitempty"`
	HoldReleased  bool              `json:"hold_released"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ToOrderResponse converts a domain Order to a response
func ToOrderResponse(o *order.Order) OrderResponse {
	return OrderResponse{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		Items:         o.Items,
		Total:         o.Total,
		Status:        string(o.Status),
		ZoneID:        o.ZoneID,
		Note:          o.Note,
		DeliveredBy:   o.DeliveredBy,
		TransactionID: o.TransactionID,
		HoldReleased:  o.HoldReleased,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// ToOrderResponses converts a slice of Orders
func ToOrderResponses(orders []*order.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = ToOrderResponse(o)
	}
	return out
}

// CreateOrderResult is returned to the portal after an order is placed
type CreateOrderResult struct {
	Order       OrderResponse   `json:"order"`
	BalanceHeld decimal.Decimal `json:"balance_held"`
	Available   decimal.Decimal `json:"available"`
}

// AdvanceResult is returned after a status change
type AdvanceResult struct {
	Order      OrderResponse    `json:"order"`
	NewBalance *decimal.Decimal `json:"new_balance,omitempty"`
}
