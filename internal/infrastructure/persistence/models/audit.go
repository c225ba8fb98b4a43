package models

import (
	"encoding/json"
	"time"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/audit"
	"github.com/google/uuid"
)

// AuditLogModel is one audit log row
type AuditLogModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_audit_entity,priority:1"`
	UserID     *uuid.UUID `gorm:"type:uuid"`
	Action     string     `gorm:"type:varchar(50);not null"`
	EntityType string     `gorm:"type:varchar(20);not null;index:idx_audit_entity,priority:2"`
	EntityID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_audit_entity,priority:3"`
	Details    *string    `gorm:"type:jsonb"`
	CreatedAt  time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_log"
}

// ToDomain converts the persistence model to a domain audit Entry.
func (m *AuditLogModel) ToDomain() (*audit.Entry, error) {
	e := &audit.Entry{
		ID:         m.ID,
		TenantID:   m.TenantID,
		UserID:     m.UserID,
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		CreatedAt:  m.CreatedAt,
	}
	if m.Details != nil && *m.Details != "" {
		if err := json.Unmarshal([]byte(*m.Details), &e.Details); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// AuditLogModelFromDomain creates a persistence model from a domain audit Entry.
func AuditLogModelFromDomain(e *audit.Entry) (*AuditLogModel, error) {
	m := &AuditLogModel{
		ID:         e.ID,
		TenantID:   e.TenantID,
		UserID:     e.UserID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		CreatedAt:  e.CreatedAt,
	}
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return nil, err
		}
		s := string(b)
		m.Details = &s
	}
	return m, nil
}
