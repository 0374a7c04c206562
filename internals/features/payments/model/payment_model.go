package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ===================== Enums (string) ===================== */
/* Match the payment_status / payment_method ENUMs in PostgreSQL. */

const (
	PaymentStatusPending   = "pending"
	PaymentStatusPaid      = "paid"
	PaymentStatusCancelled = "cancelled"
)

const (
	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
	PaymentMethodGateway  = "gateway"

	// PaymentMethodNone is the sentinel written when a payment is cancelled
	// without ever being collected.
	PaymentMethodNone = "none"
)

/* ===================== Model ===================== */

// Payment is the single derived payment of an appointment. Its amount mirrors
// the appointment's line-item total until the freeze point; after that (or
// once paid) it never changes.
type Payment struct {
	PaymentID uuid.UUID `gorm:"column:payment_id;type:uuid;primaryKey" json:"payment_id"`

	PaymentClinicID      uuid.UUID `gorm:"column:payment_clinic_id;type:uuid;not null;index" json:"payment_clinic_id"`
	PaymentPatientID     uuid.UUID `gorm:"column:payment_patient_id;type:uuid;not null;index" json:"payment_patient_id"`
	PaymentAppointmentID uuid.UUID `gorm:"column:payment_appointment_id;type:uuid;not null;uniqueIndex" json:"payment_appointment_id"`

	PaymentAmount int64   `gorm:"column:payment_amount;not null;check:payment_amount >= 0" json:"payment_amount"`
	PaymentMethod *string `gorm:"column:payment_method;type:varchar(20)" json:"payment_method,omitempty"`
	PaymentStatus string  `gorm:"column:payment_status;type:varchar(20);not null;default:'pending';index" json:"payment_status"`

	// PaymentDate is refreshed on every status change (paid / cancelled).
	PaymentDate *time.Time `gorm:"column:payment_date" json:"payment_date,omitempty"`

	CreatedAt time.Time `gorm:"column:payment_created_at;autoCreateTime" json:"payment_created_at"`
	UpdatedAt time.Time `gorm:"column:payment_updated_at;autoUpdateTime" json:"payment_updated_at"`
}

func (Payment) TableName() string { return "payments" }

func (m *Payment) BeforeCreate(tx *gorm.DB) error {
	if m.PaymentID == uuid.Nil {
		m.PaymentID = uuid.New()
	}
	return nil
}

func (m *Payment) IsPending() bool { return m.PaymentStatus == PaymentStatusPending }
func (m *Payment) IsPaid() bool    { return m.PaymentStatus == PaymentStatusPaid }
