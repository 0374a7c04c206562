package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClinicalRecord is the clinical note attached to an appointment when the
// doctor finishes attending (one record per appointment).
type ClinicalRecord struct {
	ClinicalRecordID uuid.UUID `gorm:"column:clinical_record_id;type:uuid;primaryKey" json:"clinical_record_id"`

	ClinicalRecordClinicID      uuid.UUID `gorm:"column:clinical_record_clinic_id;type:uuid;not null;index" json:"clinical_record_clinic_id"`
	ClinicalRecordPatientID     uuid.UUID `gorm:"column:clinical_record_patient_id;type:uuid;not null;index" json:"clinical_record_patient_id"`
	ClinicalRecordAppointmentID uuid.UUID `gorm:"column:clinical_record_appointment_id;type:uuid;not null;uniqueIndex" json:"clinical_record_appointment_id"`

	ClinicalRecordDiagnosis    *string `gorm:"column:clinical_record_diagnosis" json:"clinical_record_diagnosis,omitempty"`
	ClinicalRecordObservations *string `gorm:"column:clinical_record_observations" json:"clinical_record_observations,omitempty"`

	CreatedAt time.Time `gorm:"column:clinical_record_created_at;autoCreateTime" json:"clinical_record_created_at"`
}

func (ClinicalRecord) TableName() string { return "clinical_records" }

func (m *ClinicalRecord) BeforeCreate(tx *gorm.DB) error {
	if m.ClinicalRecordID == uuid.Nil {
		m.ClinicalRecordID = uuid.New()
	}
	return nil
}
