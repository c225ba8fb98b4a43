package models

import (
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate.
type OrderModel struct {
	TenantAggregateModel
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Items         *string         `gorm:"type:jsonb;not null"`
	Total         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status        order.Status    `gorm:"type:varchar(20);not null;index"`
	ZoneID        *uuid.UUID      `gorm:"type:uuid"`
	Note          string          `gorm:"type:text"`
	DeliveredBy   *uuid.UUID      `gorm:"type:uuid"`
	TransactionID *uuid.UUID      `gorm:"type:uuid"`
	HoldReleased  bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order.
func (m *OrderModel) ToDomain() (*order.Order, error) {
	items, err := DecodeItems(m.Items)
	if err != nil {
		return nil, err
	}
	o := &order.Order{
		CustomerID:    m.CustomerID,
		Items:         items,
		Total:         m.Total,
		Status:        m.Status,
		ZoneID:        m.ZoneID,
		Note:          m.Note,
		DeliveredBy:   m.DeliveredBy,
		TransactionID: m.TransactionID,
		HoldReleased:  m.HoldReleased,
	}
	m.PopulateTenantAggregateRoot(&o.TenantAggregateRoot)
	return o, nil
}

// OrderModelFromDomain creates a persistence model from a domain Order.
func OrderModelFromDomain(o *order.Order) (*OrderModel, error) {
	items, err := EncodeItems(o.Items)
	if err != nil {
		return nil, err
	}
	m := &OrderModel{
		CustomerID:    o.CustomerID,
		Items:         items,
		Total:         o.Total,
		Status:        o.Status,
		ZoneID:        o.ZoneID,
		Note:          o.Note,
		DeliveredBy:   o.DeliveredBy,
		TransactionID: o.TransactionID,
		HoldReleased:  o.HoldReleased,
	}
	m.FromDomainTenantAggregateRoot(o.TenantAggregateRoot)
	return m, nil
}
