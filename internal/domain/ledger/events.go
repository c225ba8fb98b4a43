package ledger

import (
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateTypeCustomer = "Customer"

const (
	EventTypeCustomerRegistered  = "CustomerRegistered"
	EventTypeBalanceRecharged    = "BalanceRecharged"
	EventTypeBalanceConsumed     = "BalanceConsumed"
	EventTypeCustomerUpdated     = "CustomerUpdated"
	EventTypeCustomerDeactivated = "CustomerDeactivated"
)

// CustomerRegisteredEvent is raised when a customer is created
type CustomerRegisteredEvent struct {
	shared.BaseDomainEvent
	CustomerID     uuid.UUID       `json:"customer_id"`
	Name           string          `json:"name"`
	Email          string          `json:"email,omitempty"`
	BalanceType    BalanceType     `json:"balance_type"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	QRCode         string          `json:"qr_code"`
}

// NewCustomerRegisteredEvent creates a new CustomerRegisteredEvent
func NewCustomerRegisteredEvent(c *Customer) *CustomerRegisteredEvent {
	return &CustomerRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerRegistered, AggregateTypeCustomer, c.ID, c.TenantID),
		CustomerID:      c.ID,
		Name:            c.Name,
		Email:           c.Email,
		BalanceType:     c.BalanceType,
		InitialBalance:  c.InitialBalance,
		QRCode:          c.QRCode,
	}
}

// BalanceChangedEvent is raised after a recharge or consume commits. It is
// what the notification collaborator receives.
type BalanceChangedEvent struct {
	shared.BaseDomainEvent
	CustomerID    uuid.UUID       `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email,omitempty"`
	BalanceType   BalanceType     `json:"balance_type"`
	EntryType     EntryType       `json:"entry_type"`
	Amount        decimal.Decimal `json:"amount"`
	NewBalance    decimal.Decimal `json:"new_balance"`
	Available     decimal.Decimal `json:"available"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	OrderID       *uuid.UUID      `json:"order_id,omitempty"`
	Note          string          `json:"note"`
}

// NewBalanceChangedEvent creates the event for a committed ledger entry
func NewBalanceChangedEvent(c *Customer, tx *Transaction) *BalanceChangedEvent {
	eventType := EventTypeBalanceRecharged
	if tx.Type == EntryTypeConsume {
		eventType = EventTypeBalanceConsumed
	}
	return &BalanceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeCustomer, c.ID, c.TenantID),
		CustomerID:      c.ID,
		CustomerName:    c.Name,
		CustomerEmail:   c.Email,
		BalanceType:     c.BalanceType,
		EntryType:       tx.Type,
		Amount:          tx.Amount,
		NewBalance:      tx.BalanceAfter,
		Available:       c.Available(),
		TransactionID:   tx.ID,
		OrderID:         tx.OrderID,
		Note:            tx.Note,
	}
}

// CustomerUpdatedEvent is raised on profile changes and deactivation
type CustomerUpdatedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	IsActive   bool      `json:"is_active"`
}

// NewCustomerUpdatedEvent creates a new CustomerUpdatedEvent
func NewCustomerUpdatedEvent(c *Customer, eventType string) *CustomerUpdatedEvent {
	return &CustomerUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeCustomer, c.ID, c.TenantID),
		CustomerID:      c.ID,
		IsActive:        c.IsActive,
	}
}
