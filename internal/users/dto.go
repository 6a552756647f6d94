package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/shyammm53/wardrobe-backend/pkg/db/models"
)

// UserDTO is the transport shape that omits the password hash.
type UserDTO struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	DisplayName    *string   `json:"display_name,omitempty"`
	ProfilePicture *string   `json:"profile_picture,omitempty"`
	City           *string   `json:"city,omitempty"`
	Country        *string   `json:"country,omitempty"`
	DefaultStyle   *string   `json:"default_style,omitempty"`
	JoinedAt       time.Time `json:"joined_at"`
	LastActiveAt   time.Time `json:"last_active_at"`
}

// FromModel maps a persisted user onto the transport shape.
func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:             u.ID,
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		ProfilePicture: u.ProfilePicture,
		City:           u.City,
		Country:        u.Country,
		DefaultStyle:   u.DefaultStyle,
		JoinedAt:       u.JoinedAt,
		LastActiveAt:   u.LastActiveAt,
	}
}
