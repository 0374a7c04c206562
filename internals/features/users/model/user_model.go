package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`

	// Superadmin rows have no clinic; every clinic role does.
	UserClinicID *uuid.UUID `gorm:"column:user_clinic_id;type:uuid;index" json:"user_clinic_id,omitempty"`
	UserPersonID uuid.UUID  `gorm:"column:user_person_id;type:uuid;not null" json:"user_person_id"`

	UserEmail        string `gorm:"column:user_email;type:varchar(120);not null;uniqueIndex" json:"user_email"`
	UserPasswordHash string `gorm:"column:user_password_hash;type:varchar(100);not null" json:"-"`
	UserRole         string `gorm:"column:user_role;type:varchar(20);not null" json:"user_role"`
	UserActive       bool   `gorm:"column:user_active;not null;default:true" json:"user_active"`

	CreatedAt time.Time `gorm:"column:user_created_at;autoCreateTime" json:"user_created_at"`
	UpdatedAt time.Time `gorm:"column:user_updated_at;autoUpdateTime" json:"user_updated_at"`
}

func (User) TableName() string { return "users" }

func (m *User) BeforeCreate(tx *gorm.DB) error {
	if m.UserID == uuid.Nil {
		m.UserID = uuid.New()
	}
	return nil
}
