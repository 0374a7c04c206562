package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Clinic struct {
	ClinicID uuid.UUID `gorm:"column:clinic_id;type:uuid;primaryKey" json:"clinic_id"`

	ClinicName    string  `gorm:"column:clinic_name;type:varchar(120);not null" json:"clinic_name"`
	ClinicAddress *string `gorm:"column:clinic_address" json:"clinic_address,omitempty"`
	ClinicPhone   *string `gorm:"column:clinic_phone;type:varchar(20)" json:"clinic_phone,omitempty"`
	ClinicActive  bool    `gorm:"column:clinic_active;not null;default:true" json:"clinic_active"`

	CreatedAt time.Time `gorm:"column:clinic_created_at;autoCreateTime" json:"clinic_created_at"`
	UpdatedAt time.Time `gorm:"column:clinic_updated_at;autoUpdateTime" json:"clinic_updated_at"`
}

func (Clinic) TableName() string { return "clinics" }

func (m *Clinic) BeforeCreate(tx *gorm.DB) error {
	if m.ClinicID == uuid.Nil {
		m.ClinicID = uuid.New()
	}
	return nil
}
