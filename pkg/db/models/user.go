package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that owns wardrobe items.
type User struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email          string    `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash   string    `gorm:"column:password_hash;not null"`
	DisplayName    *string   `gorm:"column:display_name"`
	ProfilePicture *string   `gorm:"column:profile_picture"`
	City           *string   `gorm:"column:city"`
	Country        *string   `gorm:"column:country"`
	DefaultStyle   *string   `gorm:"column:default_style"`
	JoinedAt       time.Time `gorm:"column:joined_at;autoCreateTime"`
	LastActiveAt   time.Time `gorm:"column:last_active_at"`
}
