package auth

import "github.com/shyammm53/wardrobe-backend/internal/users"

// SignupRequest is the payload for account creation.
type SignupRequest struct {
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password" validate:"required,min=8"`
	DisplayName    *string `json:"display_name,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
	City           *string `json:"city,omitempty"`
	Country        *string `json:"country,omitempty"`
	DefaultStyle   *string `json:"default_style,omitempty"`
}

// LoginRequest is the payload for credential login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse pairs a freshly minted token with the account it belongs to.
type AuthResponse struct {
	Token string         `json:"token"`
	User  *users.UserDTO `json:"user"`
}
