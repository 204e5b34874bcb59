package repository

import (
	"errors"
	"time"

	"github.com/bimcer/task-tracker/internal/models"
	"gorm.io/gorm"
)

// ErrTokenNotActive is returned by Rotate when the presented token turned out
// revoked or expired inside the transaction. Under concurrent refreshes of
// the same value, exactly one caller wins; the others see this error.
var ErrTokenNotActive = errors.New("refresh token repository: token is not active")

// GormRefreshTokenRepository is a GORM implementation of RefreshTokenRepository
type GormRefreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new RefreshTokenRepository
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &GormRefreshTokenRepository{db: db}
}

// Create persists a new refresh token
func (r *GormRefreshTokenRepository) Create(token *models.RefreshToken) error {
	return r.db.Create(token).Error
}

// FindByToken finds a refresh token by its value, optionally eager-loading
// the owning user
func (r *GormRefreshTokenRepository) FindByToken(value string, withUser bool) (*models.RefreshToken, error) {
	var token models.RefreshToken
	query := r.db
	if withUser {
		query = query.Preload("User")
	}
	if err := query.Where("token = ?", value).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// Revoke marks a single token revoked
func (r *GormRefreshTokenRepository) Revoke(id uint) error {
	return r.db.Model(&models.RefreshToken{}).
		Where("id = ?", id).
		Update("is_revoked", true).Error
}

// Rotate revokes the presented token and inserts its successor in one
// transaction. The token's state is re-read inside the transaction so a
// concurrent rotation of the same value fails with ErrTokenNotActive
// instead of minting a second successor.
func (r *GormRefreshTokenRepository) Rotate(tokenID uint, successor *models.RefreshToken, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var current models.RefreshToken
		if err := tx.Where("id = ?", tokenID).First(&current).Error; err != nil {
			return err
		}
		if !current.IsActive(now) {
			return ErrTokenNotActive
		}

		if err := tx.Model(&models.RefreshToken{}).
			Where("id = ?", tokenID).
			Update("is_revoked", true).Error; err != nil {
			return err
		}

		return tx.Create(successor).Error
	})
}

// RotateOnLogin revokes every currently active token of the user and creates
// the replacement, leaving exactly one active token.
func (r *GormRefreshTokenRepository) RotateOnLogin(userID string, successor *models.RefreshToken, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.RefreshToken{}).
			Where("user_id = ? AND is_revoked = ? AND expires > ?", userID, false, now).
			Update("is_revoked", true).Error; err != nil {
			return err
		}

		return tx.Create(successor).Error
	})
}

// CountActiveForUser counts tokens that are neither revoked nor expired
func (r *GormRefreshTokenRepository) CountActiveForUser(userID string, now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND is_revoked = ? AND expires > ?", userID, false, now).
		Count(&count).Error
	return count, err
}
