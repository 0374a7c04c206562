package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MedicalCondition is the per-clinic catalog of chronic conditions and
// allergies that can be flagged on a patient.
type MedicalCondition struct {
	ConditionID uuid.UUID `gorm:"column:condition_id;type:uuid;primaryKey" json:"condition_id"`

	ConditionClinicID    uuid.UUID `gorm:"column:condition_clinic_id;type:uuid;not null;index" json:"condition_clinic_id"`
	ConditionName        string    `gorm:"column:condition_name;type:varchar(120);not null" json:"condition_name"`
	ConditionDescription *string   `gorm:"column:condition_description" json:"condition_description,omitempty"`

	CreatedAt time.Time `gorm:"column:condition_created_at;autoCreateTime" json:"condition_created_at"`
}

func (MedicalCondition) TableName() string { return "medical_conditions" }

func (m *MedicalCondition) BeforeCreate(tx *gorm.DB) error {
	if m.ConditionID == uuid.Nil {
		m.ConditionID = uuid.New()
	}
	return nil
}

// PatientCondition flags a condition on a patient.
type PatientCondition struct {
	PatientConditionID uuid.UUID `gorm:"column:patient_condition_id;type:uuid;primaryKey" json:"patient_condition_id"`

	PatientConditionPatientID   uuid.UUID `gorm:"column:patient_condition_patient_id;type:uuid;not null;index;uniqueIndex:ux_patient_condition" json:"patient_condition_patient_id"`
	PatientConditionConditionID uuid.UUID `gorm:"column:patient_condition_condition_id;type:uuid;not null;uniqueIndex:ux_patient_condition" json:"patient_condition_condition_id"`
	PatientConditionNotes       *string   `gorm:"column:patient_condition_notes" json:"patient_condition_notes,omitempty"`

	CreatedAt time.Time `gorm:"column:patient_condition_created_at;autoCreateTime" json:"patient_condition_created_at"`
}

func (PatientCondition) TableName() string { return "patient_conditions" }

func (m *PatientCondition) BeforeCreate(tx *gorm.DB) error {
	if m.PatientConditionID == uuid.Nil {
		m.PatientConditionID = uuid.New()
	}
	return nil
}
