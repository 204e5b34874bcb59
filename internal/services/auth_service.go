package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bimcer/task-tracker/internal/auth"
	"github.com/bimcer/task-tracker/internal/models"
	"github.com/bimcer/task-tracker/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrRefreshTokenRequired = errors.New("refresh token is required")
	ErrRefreshTokenInactive = errors.New("refresh token is expired or revoked")
	ErrNotTokenOwner        = errors.New("refresh token belongs to another user")
	ErrTokenNotFound        = errors.New("refresh token not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService orchestrates registration, login and the refresh-token
// lifecycle. Every mutating operation commits as a single transaction.
type AuthService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.RefreshTokenRepository
	tokens    *auth.TokenManager
	now       func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, tokenRepo repository.RefreshTokenRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		tokens:    tokens,
		now:       time.Now,
	}
}

// WithTimeFunc overrides the clock (used for testing).
func (s *AuthService) WithTimeFunc(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Session is the payload returned by Register, Login and Refresh.
type Session struct {
	AccessToken  string
	ExpiresAt    time.Time
	RefreshToken string
	User         models.User
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates a new user with an initial refresh token and returns a
// fresh session. Email and username are pre-checked for uniqueness; the
// store's unique indexes remain the final backstop against races.
func (s *AuthService) Register(input RegisterInput) (*Session, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	passwordHash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
		CreatedAt:    s.now().UTC(),
	}

	refreshValue, refreshExpires, err := s.tokens.CreateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}
	refreshToken := &models.RefreshToken{
		Token:   refreshValue,
		Expires: refreshExpires,
	}

	if err := s.userRepo.CreateWithRefreshToken(user, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to complete registration: %w", err)
	}

	return s.newSession(user, refreshValue)
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and rotates the user's refresh tokens: all
// previously active tokens are revoked and exactly one replacement is
// created. Unknown email and wrong password are indistinguishable.
func (s *AuthService) Login(input LoginInput) (*Session, error) {
	user, err := s.userRepo.FindByEmail(strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !auth.VerifyPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	refreshValue, refreshExpires, err := s.tokens.CreateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}
	refreshToken := &models.RefreshToken{
		Token:   refreshValue,
		UserID:  user.ID,
		Expires: refreshExpires,
	}

	if err := s.tokenRepo.RotateOnLogin(user.ID, refreshToken, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh tokens: %w", err)
	}

	return s.newSession(user, refreshValue)
}

// Refresh exchanges an active refresh token for a new access/refresh pair.
// The presented token is revoked and exactly one successor is created in
// the same transaction (strict single-use rotation). Presenting an already
// revoked or expired token fails with ErrRefreshTokenInactive.
func (s *AuthService) Refresh(refreshToken string) (*Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrRefreshTokenRequired
	}

	stored, err := s.tokenRepo.FindByToken(refreshToken, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}

	now := s.now().UTC()
	if !stored.IsActive(now) {
		return nil, ErrRefreshTokenInactive
	}

	successorValue, successorExpires, err := s.tokens.CreateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}
	successor := &models.RefreshToken{
		Token:   successorValue,
		UserID:  stored.UserID,
		Expires: successorExpires,
	}

	if err := s.tokenRepo.Rotate(stored.ID, successor, now); err != nil {
		if errors.Is(err, repository.ErrTokenNotActive) {
			// Lost a concurrent rotation race on the same value.
			return nil, ErrRefreshTokenInactive
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return s.newSession(&stored.User, successorValue)
}

// Logout revokes the presented refresh token for the given user. A missing
// token succeeds silently so callers cannot probe for existence; a token
// owned by someone else is rejected; revoking twice is a no-op.
func (s *AuthService) Logout(userID, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return ErrRefreshTokenRequired
	}

	stored, err := s.tokenRepo.FindByToken(refreshToken, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find refresh token: %w", err)
	}

	if stored.UserID != userID {
		return ErrNotTokenOwner
	}

	if stored.IsRevoked {
		return nil
	}

	if err := s.tokenRepo.Revoke(stored.ID); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RevokeToken marks the given refresh token revoked. Unlike Logout this is
// an administrative operation: a missing token is reported.
func (s *AuthService) RevokeToken(refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return ErrRefreshTokenRequired
	}

	stored, err := s.tokenRepo.FindByToken(refreshToken, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to find refresh token: %w", err)
	}

	if err := s.tokenRepo.Revoke(stored.ID); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (s *AuthService) newSession(user *models.User, refreshValue string) (*Session, error) {
	accessToken, expiresAt, err := s.tokens.CreateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &Session{
		AccessToken:  accessToken,
		ExpiresAt:    expiresAt,
		RefreshToken: refreshValue,
		User:         *user,
	}, nil
}
