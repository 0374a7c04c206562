package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog is append-only. System actions (sweeper) carry a null user id;
// global actions (superadmin) may carry a null clinic id.
type AuditLog struct {
	AuditID uuid.UUID `gorm:"column:audit_id;type:uuid;primaryKey" json:"audit_id"`

	AuditClinicID *uuid.UUID `gorm:"column:audit_clinic_id;type:uuid;index" json:"audit_clinic_id,omitempty"`
	AuditUserID   *uuid.UUID `gorm:"column:audit_user_id;type:uuid;index" json:"audit_user_id,omitempty"`

	AuditAction      string            `gorm:"column:audit_action;type:varchar(40);not null" json:"audit_action"`
	AuditTable       string            `gorm:"column:audit_table;type:varchar(40);not null" json:"audit_table"`
	AuditRecordID    *uuid.UUID        `gorm:"column:audit_record_id;type:uuid" json:"audit_record_id,omitempty"`
	AuditDescription *string           `gorm:"column:audit_description" json:"audit_description,omitempty"`
	AuditMeta        datatypes.JSONMap `gorm:"column:audit_meta" json:"audit_meta,omitempty"`

	CreatedAt time.Time `gorm:"column:audit_created_at;autoCreateTime;index" json:"audit_created_at"`
}

func (AuditLog) TableName() string { return "audit_log" }

func (m *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if m.AuditID == uuid.Nil {
		m.AuditID = uuid.New()
	}
	return nil
}
