package models

import (
	"encoding/json"
	"time"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for the Customer aggregate.
type CustomerModel struct {
	TenantAggregateModel
	Name           string             `gorm:"type:varchar(200);not null"`
	Email          string             `gorm:"type:varchar(200)"`
	Phone          string             `gorm:"type:varchar(50)"`
	BalanceType    ledger.BalanceType `gorm:"type:varchar(10);not null"`
	Balance        decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	BalanceHeld    decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	InitialBalance decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	AllowNegative  bool               `gorm:"not null"`
	QRCode         string             `gorm:"column:qr_code;type:varchar(32);not null;uniqueIndex:idx_customers_qr_code"`
	PIN            *string            `gorm:"column:pin;type:varchar(4);index"`
	IsActive       bool               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer.
func (m *CustomerModel) ToDomain() *ledger.Customer {
	c := &ledger.Customer{
		Name:           m.Name,
		Email:          m.Email,
		Phone:          m.Phone,
		BalanceType:    m.BalanceType,
		Balance:        m.Balance,
		BalanceHeld:    m.BalanceHeld,
		InitialBalance: m.InitialBalance,
		AllowNegative:  m.AllowNegative,
		QRCode:         m.QRCode,
		PIN:            m.PIN,
		IsActive:       m.IsActive,
	}
	m.PopulateTenantAggregateRoot(&c.TenantAggregateRoot)
	return c
}

// CustomerModelFromDomain creates a persistence model from a domain Customer.
func CustomerModelFromDomain(c *ledger.Customer) *CustomerModel {
	m := &CustomerModel{
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		BalanceType:    c.BalanceType,
		Balance:        c.Balance,
		BalanceHeld:    c.BalanceHeld,
		InitialBalance: c.InitialBalance,
		AllowNegative:  c.AllowNegative,
		QRCode:         c.QRCode,
		PIN:            c.PIN,
		IsActive:       c.IsActive,
	}
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	return m
}

// TransactionModel is one row of the append-only ledger. Payment metadata
// is flattened into columns; consumed items are stored as a JSON array.
type TransactionModel struct {
	ID               uuid.UUID          `gorm:"type:uuid;primary_key"`
	TenantID         uuid.UUID          `gorm:"type:uuid;not null;index:idx_tx_tenant_created,priority:1"`
	CustomerID       uuid.UUID          `gorm:"type:uuid;not null;index"`
	StaffID          *uuid.UUID         `gorm:"type:uuid"`
	Type             ledger.EntryType   `gorm:"type:varchar(10);not null"`
	Amount           decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	BalanceAfter     decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	Note             string             `gorm:"type:text"`
	PaymentMethod    string             `gorm:"type:varchar(20)"`
	PaymentBank      string             `gorm:"type:varchar(100)"`
	PaymentReference string             `gorm:"type:varchar(100)"`
	Items            *string            `gorm:"type:jsonb"`
	Source           ledger.EntrySource `gorm:"type:varchar(10);not null"`
	OrderID          *uuid.UUID         `gorm:"type:uuid;index"`
	CreatedAt        time.Time          `gorm:"not null;index:idx_tx_tenant_created,priority:2"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction.
func (m *TransactionModel) ToDomain() (*ledger.Transaction, error) {
	tx := &ledger.Transaction{
		ID:           m.ID,
		TenantID:     m.TenantID,
		CustomerID:   m.CustomerID,
		StaffID:      m.StaffID,
		Type:         m.Type,
		Amount:       m.Amount,
		BalanceAfter: m.BalanceAfter,
		Note:         m.Note,
		Source:       m.Source,
		OrderID:      m.OrderID,
		CreatedAt:    m.CreatedAt,
	}
	if m.PaymentMethod != "" || m.PaymentBank != "" || m.PaymentReference != "" {
		tx.Payment = &ledger.Payment{
			Method:    ledger.PaymentMethod(m.PaymentMethod),
			Bank:      m.PaymentBank,
			Reference: m.PaymentReference,
		}
	}
	items, err := DecodeItems(m.Items)
	if err != nil {
		return nil, err
	}
	tx.Items = items
	return tx, nil
}

// TransactionModelFromDomain creates a persistence model from a domain Transaction.
func TransactionModelFromDomain(tx *ledger.Transaction) (*TransactionModel, error) {
	m := &TransactionModel{
		ID:           tx.ID,
		TenantID:     tx.TenantID,
		CustomerID:   tx.CustomerID,
		StaffID:      tx.StaffID,
		Type:         tx.Type,
		Amount:       tx.Amount,
		BalanceAfter: tx.BalanceAfter,
		Note:         tx.Note,
		Source:       tx.Source,
		OrderID:      tx.OrderID,
		CreatedAt:    tx.CreatedAt,
	}
	if tx.Payment != nil {
		m.PaymentMethod = string(tx.Payment.Method)
		m.PaymentBank = tx.Payment.Bank
		m.PaymentReference = tx.Payment.Reference
	}
	items, err := EncodeItems(tx.Items)
	if err != nil {
		return nil, err
	}
	m.Items = items
	return m, nil
}

// EncodeItems marshals line items to a JSON column value; no items is NULL.
func EncodeItems(items []ledger.LineItem) (*string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

// DecodeItems unmarshals a JSON column value into line items
func DecodeItems(raw *string) ([]ledger.LineItem, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	var items []ledger.LineItem
	if err := json.Unmarshal([]byte(*raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}
