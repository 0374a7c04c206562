package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentTreatment is one line item: a treatment attached to an
// appointment with its price snapshotted at booking time. The snapshot never
// changes once the appointment leaves its editable window.
type AppointmentTreatment struct {
	AppointmentTreatmentID uuid.UUID `gorm:"column:appointment_treatment_id;type:uuid;primaryKey" json:"appointment_treatment_id"`

	AppointmentTreatmentAppointmentID uuid.UUID `gorm:"column:appointment_treatment_appointment_id;type:uuid;not null;index" json:"appointment_treatment_appointment_id"`
	AppointmentTreatmentTreatmentID   uuid.UUID `gorm:"column:appointment_treatment_treatment_id;type:uuid;not null" json:"appointment_treatment_treatment_id"`
	AppointmentTreatmentAppliedPrice  int64     `gorm:"column:appointment_treatment_applied_price;not null;check:appointment_treatment_applied_price >= 0" json:"appointment_treatment_applied_price"`
}

func (AppointmentTreatment) TableName() string { return "appointment_treatments" }

func (m *AppointmentTreatment) BeforeCreate(tx *gorm.DB) error {
	if m.AppointmentTreatmentID == uuid.Nil {
		m.AppointmentTreatmentID = uuid.New()
	}
	return nil
}
