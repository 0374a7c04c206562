package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Patient links a person to one clinic. The same person can be a patient of
// several clinics; each link is a separate tenant-scoped row.
type Patient struct {
	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;primaryKey" json:"patient_id"`

	PatientClinicID uuid.UUID `gorm:"column:patient_clinic_id;type:uuid;not null;index;uniqueIndex:ux_patient_clinic_person" json:"patient_clinic_id"`
	PatientPersonID uuid.UUID `gorm:"column:patient_person_id;type:uuid;not null;uniqueIndex:ux_patient_clinic_person" json:"patient_person_id"`

	CreatedAt time.Time `gorm:"column:patient_created_at;autoCreateTime" json:"patient_created_at"`
}

func (Patient) TableName() string { return "patients" }

func (m *Patient) BeforeCreate(tx *gorm.DB) error {
	if m.PatientID == uuid.Nil {
		m.PatientID = uuid.New()
	}
	return nil
}
