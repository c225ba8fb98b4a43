package ledger

import (
	"time"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RechargeCommand credits a customer's balance
type RechargeCommand struct {
	TenantID       uuid.UUID
	CustomerID     uuid.UUID
	Amount         decimal.Decimal
	Note           string
	Payment        *ledger.Payment
	StaffID        *uuid.UUID
	IdempotencyKey string
}

// ConsumeCommand debits a customer's balance
type ConsumeCommand struct {
	TenantID       uuid.UUID
	CustomerID     uuid.UUID
	Amount         decimal.Decimal
	Note           string
	Items          []ledger.LineItem
	StaffID        *uuid.UUID
	IdempotencyKey string
}

// EntryResult is returned by every committed balance mutation
type EntryResult struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	NewBalance    decimal.Decimal `json:"new_balance"`
	BalanceHeld   decimal.Decimal `json:"balance_held"`
	Available     decimal.Decimal `json:"available"`
	CreatedAt     time.Time       `json:"created_at"`
}

func newEntryResult(c *ledger.Customer, tx *ledger.Transaction) *EntryResult {
	return &EntryResult{
		TransactionID: tx.ID,
		CustomerID:    c.ID,
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		NewBalance:    tx.BalanceAfter,
		BalanceHeld:   c.BalanceHeld,
		Available:     c.Available(),
		CreatedAt:     tx.CreatedAt,
	}
}

// PaymentResponse is recharge payment metadata
type PaymentResponse struct {
	Method    string `json:"method,omitempty"`
	Bank      string `json:"bank,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// TransactionResponse represents a ledger entry in API responses
type TransactionResponse struct {
	ID           uuid.UUID         `json:"id"`
	CustomerID   uuid.UUID         `json:"customer_id"`
	CustomerName string            `json:"customer_name,omitempty"`
	StaffID      *uuid.UUID        `json:"staff_id,omitempty"`
	Type         string            `json:"type"`
	Amount       decimal.Decimal   `json:"amount"`
	BalanceAfter decimal.Decimal   `json:"balance_after"`
	Note         string            `json:"note"`
	Payment      *PaymentResponse  `json:"payment,omitempty"`
	Items        []ledger.LineItem `json:"items,omitempty"`
	Source       string            `json:"source"`
	OrderID      *uuid.UUID        `json:"order_id,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// ToTransactionResponse converts a domain Transaction to a response
func ToTransactionResponse(tx *ledger.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:           tx.ID,
		CustomerID:   tx.CustomerID,
		StaffID:      tx.StaffID,
		Type:         string(tx.Type),
		Amount:       tx.Amount,
		BalanceAfter: tx.BalanceAfter,
		Note:         tx.Note,
		Items:        tx.Items,
		Source:       string(tx.Source),
		OrderID:      tx.OrderID,
		CreatedAt:    tx.CreatedAt,
	}
	if tx.Payment != nil {
		resp.Payment = &PaymentResponse{
			Method:    string(tx.Payment.Method),
			Bank:      tx.Payment.Bank,
			Reference: tx.Payment.Reference,
		}
	}
	return resp
}

// ToTransactionResponses converts a slice of Transactions
func ToTransactionResponses(txs []*ledger.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txs))
	for i, tx := range txs {
		out[i] = ToTransactionResponse(tx)
	}
	return out
}

// RegisterCustomerRequest registers a new customer
type RegisterCustomerRequest struct {
	Name           string
	Email          string
	Phone          string
	BalanceType    ledger.BalanceType
	InitialBalance decimal.Decimal
	AllowNegative  bool
	PIN            string
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	BalanceType    string          `json:"balance_type"`
	Balance        decimal.Decimal `json:"balance"`
	BalanceHeld    decimal.Decimal `json:"balance_held"`
	Available      decimal.Decimal `json:"available"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	AllowNegative  bool            `json:"allow_negative"`
	QRCode         string          `json:"qr_code"`
	HasPIN         bool            `json:"has_pin"`
	IsActive       bool            `json:"is_active"`
	Version        int             `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToCustomerResponse converts a domain Customer to a response
func ToCustomerResponse(c *ledger.Customer) CustomerResponse {
	return CustomerResponse{
		ID:             c.ID,
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		BalanceType:    string(c.BalanceType),
		Balance:        c.Balance,
		BalanceHeld:    c.BalanceHeld,
		Available:      c.Available(),
		InitialBalance: c.InitialBalance,
		AllowNegative:  c.AllowNegative,
		QRCode:         c.QRCode,
		HasPIN:         c.PIN != nil,
		IsActive:       c.IsActive,
		Version:        c.Version,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// ToCustomerResponses converts a slice of Customers
func ToCustomerResponses(cs []*ledger.Customer) []CustomerResponse {
	out := make([]CustomerResponse, len(cs))
	for i, c := range cs {
		out[i] = ToCustomerResponse(c)
	}
	return out
}
