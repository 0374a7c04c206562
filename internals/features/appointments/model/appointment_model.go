package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"miclinica_backend/internals/helpers/dbtime"
)

/* ===================== Status enum (string) ===================== */
/* Matches the appointment_status ENUM in PostgreSQL. */

const (
	StatusPending         = "pending"
	StatusReassign        = "reassign"
	StatusConfirmed       = "confirmed"
	StatusReadyForPayment = "ready_for_payment"
	StatusFinalized       = "finalized"
	StatusCancelled       = "cancelled"
)

/* ===================== Model ===================== */

type Appointment struct {
	AppointmentID uuid.UUID `gorm:"column:appointment_id;type:uuid;primaryKey" json:"appointment_id"`

	AppointmentClinicID  uuid.UUID  `gorm:"column:appointment_clinic_id;type:uuid;not null;index" json:"appointment_clinic_id"`
	AppointmentPatientID uuid.UUID  `gorm:"column:appointment_patient_id;type:uuid;not null;index" json:"appointment_patient_id"`
	AppointmentDoctorID  *uuid.UUID `gorm:"column:appointment_doctor_id;type:uuid;index" json:"appointment_doctor_id,omitempty"`

	AppointmentDate time.Time  `gorm:"column:appointment_date;type:date;not null" json:"appointment_date"`
	AppointmentTime dbtime.Tod `gorm:"column:appointment_time;not null" json:"appointment_time"`

	AppointmentStatus  string  `gorm:"column:appointment_status;type:varchar(20);not null;default:'pending';index" json:"appointment_status"`
	AppointmentDetails *string `gorm:"column:appointment_details" json:"appointment_details,omitempty"`

	CreatedAt time.Time `gorm:"column:appointment_created_at;autoCreateTime" json:"appointment_created_at"`
	UpdatedAt time.Time `gorm:"column:appointment_updated_at;autoUpdateTime" json:"appointment_updated_at"`
}

func (Appointment) TableName() string { return "appointments" }

func (m *Appointment) BeforeCreate(tx *gorm.DB) error {
	if m.AppointmentID == uuid.Nil {
		m.AppointmentID = uuid.New()
	}
	return nil
}

/* ===================== Helpers ===================== */

// StartsAt is the scheduled wall-clock moment (date + time of day).
func (m *Appointment) StartsAt() time.Time {
	return m.AppointmentTime.On(m.AppointmentDate)
}

func (m *Appointment) IsTerminal() bool {
	return m.AppointmentStatus == StatusFinalized || m.AppointmentStatus == StatusCancelled
}

// IsEditable reports whether line items (and therefore the derived payment
// amount) may still change. ready_for_payment is the freeze point.
func (m *Appointment) IsEditable() bool {
	switch m.AppointmentStatus {
	case StatusPending, StatusReassign, StatusConfirmed:
		return true
	default:
		return false
	}
}
