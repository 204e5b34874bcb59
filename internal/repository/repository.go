package repository

import (
	"time"

	"github.com/bimcer/task-tracker/internal/models"
	"github.com/bimcer/task-tracker/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// CreateWithRefreshToken creates a user and their initial refresh token
	// within a single transaction.
	CreateWithRefreshToken(user *models.User, token *models.RefreshToken) error

	// FindByID finds a user by ID
	FindByID(id string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// List returns all users ordered by creation time
	List() ([]models.User, error)
}

// RefreshTokenRepository defines the interface for refresh token data access.
// Tokens are append-only: mutation is limited to setting is_revoked.
type RefreshTokenRepository interface {
	// Create persists a new refresh token
	Create(token *models.RefreshToken) error

	// FindByToken finds a refresh token by its value, optionally eager-loading
	// the owning user
	FindByToken(value string, withUser bool) (*models.RefreshToken, error)

	// Revoke marks a single token revoked
	Revoke(id uint) error

	// Rotate revokes the presented token and creates its successor atomically.
	// Returns ErrTokenNotActive when the token was already revoked or expired
	// by the time the transaction re-checked it.
	Rotate(tokenID uint, successor *models.RefreshToken, now time.Time) error

	// RotateOnLogin revokes every active token of the user and creates the
	// replacement within one transaction.
	RotateOnLogin(userID string, successor *models.RefreshToken, now time.Time) error

	// CountActiveForUser counts tokens that are neither revoked nor expired
	CountActiveForUser(userID string, now time.Time) (int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	IsCompleted *bool
	Pagination  utils.PaginationParams
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID
	FindByID(id uint64) (*models.Task, error)

	// ListByUser retrieves the user's tasks with filtering and pagination
	ListByUser(userID string, filter TaskFilter) ([]models.Task, int64, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete deletes a task
	Delete(id uint64) error
}
