package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Treatment is the per-clinic price catalog. Prices are in minor currency
// units. Deactivation is a soft flag: historic appointment line items keep
// pointing at the row.
type Treatment struct {
	TreatmentID uuid.UUID `gorm:"column:treatment_id;type:uuid;primaryKey" json:"treatment_id"`

	TreatmentClinicID    uuid.UUID `gorm:"column:treatment_clinic_id;type:uuid;not null;index" json:"treatment_clinic_id"`
	TreatmentName        string    `gorm:"column:treatment_name;type:varchar(120);not null" json:"treatment_name"`
	TreatmentDescription *string   `gorm:"column:treatment_description" json:"treatment_description,omitempty"`
	TreatmentPrice       int64     `gorm:"column:treatment_price;not null;check:treatment_price >= 0" json:"treatment_price"`
	TreatmentActive      bool      `gorm:"column:treatment_active;not null;default:true" json:"treatment_active"`

	CreatedAt time.Time `gorm:"column:treatment_created_at;autoCreateTime" json:"treatment_created_at"`
	UpdatedAt time.Time `gorm:"column:treatment_updated_at;autoUpdateTime" json:"treatment_updated_at"`
}

func (Treatment) TableName() string { return "treatments" }

func (m *Treatment) BeforeCreate(tx *gorm.DB) error {
	if m.TreatmentID == uuid.Nil {
		m.TreatmentID = uuid.New()
	}
	return nil
}
