package dto

import (
	"time"

	"github.com/asiste-ing/incident-service/internal/domain"
)

// RegisterRequest payload (admin only).
type RegisterRequest struct {
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Password     string      `json:"password"`
	Role         domain.Role `json:"role"`
	Sede         string      `json:"sede"`
	Departamento *string     `json:"departamento"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse is the public account view.
type UserResponse struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Role         domain.Role `json:"role"`
	Sede         string      `json:"sede"`
	Departamento *string     `json:"departamento"`
	Active       bool        `json:"active"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         user.Role,
		Sede:         user.Sede,
		Departamento: user.Departamento,
		Active:       user.Active,
	}
}

// PasswordResetRequestPayload payload.
type PasswordResetRequestPayload struct {
	Email string `json:"email"`
}

// PasswordResetConfirmPayload payload.
type PasswordResetConfirmPayload struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
