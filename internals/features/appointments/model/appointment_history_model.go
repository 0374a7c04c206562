package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"miclinica_backend/internals/helpers/dbtime"
)

// AppointmentHistory is the append-only reschedule trail: one row per
// reschedule, written before the appointment's date/time is mutated.
type AppointmentHistory struct {
	AppointmentHistoryID uuid.UUID `gorm:"column:appointment_history_id;type:uuid;primaryKey" json:"appointment_history_id"`

	AppointmentHistoryAppointmentID uuid.UUID `gorm:"column:appointment_history_appointment_id;type:uuid;not null;index" json:"appointment_history_appointment_id"`

	AppointmentHistoryPreviousDate time.Time  `gorm:"column:appointment_history_previous_date;type:date;not null" json:"appointment_history_previous_date"`
	AppointmentHistoryPreviousTime dbtime.Tod `gorm:"column:appointment_history_previous_time;not null" json:"appointment_history_previous_time"`
	AppointmentHistoryNewDate      time.Time  `gorm:"column:appointment_history_new_date;type:date;not null" json:"appointment_history_new_date"`
	AppointmentHistoryNewTime      dbtime.Tod `gorm:"column:appointment_history_new_time;not null" json:"appointment_history_new_time"`

	AppointmentHistoryUserID *uuid.UUID `gorm:"column:appointment_history_user_id;type:uuid" json:"appointment_history_user_id,omitempty"`
	AppointmentHistoryReason *string    `gorm:"column:appointment_history_reason" json:"appointment_history_reason,omitempty"`

	CreatedAt time.Time `gorm:"column:appointment_history_created_at;autoCreateTime" json:"appointment_history_created_at"`
}

func (AppointmentHistory) TableName() string { return "appointment_history" }

func (m *AppointmentHistory) BeforeCreate(tx *gorm.DB) error {
	if m.AppointmentHistoryID == uuid.Nil {
		m.AppointmentHistoryID = uuid.New()
	}
	return nil
}
