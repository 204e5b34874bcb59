package dto

import (
	"time"

	"github.com/bimcer/task-tracker/internal/models"
	"github.com/bimcer/task-tracker/internal/services"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// AuthResponse is the payload returned by register, login and refresh
type AuthResponse struct {
	AccessToken  string    `json:"access_token"`
	ExpiresAtUtc time.Time `json:"expires_at_utc"`
	RefreshToken string    `json:"refresh_token"`
	User         UserDTO   `json:"user"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

// ToAuthResponse converts a session to AuthResponse
func ToAuthResponse(session *services.Session) AuthResponse {
	return AuthResponse{
		AccessToken:  session.AccessToken,
		ExpiresAtUtc: session.ExpiresAt.UTC(),
		RefreshToken: session.RefreshToken,
		User:         ToUserDTO(session.User),
	}
}
