package model

import (
	"time"

	"gorm.io/gorm"
)

// TokenBlacklist holds revoked session tokens until they expire. Auth
// middleware rejects any token found here; a cleanup scheduler prunes
// long-expired rows.
type TokenBlacklist struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Token     string         `gorm:"column:token;not null;index" json:"token"`
	ExpiredAt time.Time      `gorm:"column:expired_at;not null" json:"expired_at"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (TokenBlacklist) TableName() string { return "token_blacklist" }
