package services

import (
	"testing"
	"time"

	"github.com/bimcer/task-tracker/internal/auth"
	"github.com/bimcer/task-tracker/internal/models"
	"github.com/bimcer/task-tracker/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type authServiceTestEnv struct {
	db        *gorm.DB
	service   *AuthService
	tokenRepo repository.RefreshTokenRepository
	now       time.Time
}

func setupAuthServiceTestEnv(t *testing.T) *authServiceTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
	)
	require.NoError(t, err)

	env := &authServiceTestEnv{
		db:  db,
		now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return env.now }

	tokenManager := auth.NewTokenManager("test-secret", "task-tracker", "task-tracker-api", time.Hour, 7*24*time.Hour).
		WithTimeFunc(clock)

	userRepo := repository.NewUserRepository(db)
	env.tokenRepo = repository.NewRefreshTokenRepository(db)
	env.service = NewAuthService(userRepo, env.tokenRepo, tokenManager).WithTimeFunc(clock)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return env
}

func (env *authServiceTestEnv) register(t *testing.T, username, email, password string) *Session {
	t.Helper()
	session, err := env.service.Register(RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return session
}

func (env *authServiceTestEnv) activeTokens(t *testing.T, userID string) int64 {
	t.Helper()
	count, err := env.tokenRepo.CountActiveForUser(userID, env.now)
	require.NoError(t, err)
	return count
}

func TestAuthService_Register(t *testing.T) {
	env := setupAuthServiceTestEnv(t)

	session := env.register(t, "alice", "alice@x.com", "pw123456")

	require.NotEmpty(t, session.AccessToken)
	require.NotEmpty(t, session.RefreshToken)
	require.Equal(t, models.RoleUser, session.User.Role)
	require.Equal(t, "alice", session.User.Username)
	require.NotEmpty(t, session.User.ID)

	var user models.User
	require.NoError(t, env.db.Where("email = ?", "alice@x.com").First(&user).Error)
	require.NotEqual(t, "pw123456", user.PasswordHash)

	require.EqualValues(t, 1, env.activeTokens(t, user.ID))
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	env := setupAuthServiceTestEnv(t)
	env.register(t, "alice", "alice@x.com", "pw123456")

	_, err := env.service.Register(RegisterInput{
		Username: "someone-else",
		Email:    "alice@x.com",
		Password: "pw123456",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	env := setupAuthServiceTestEnv(t)
	env.register(t, "alice", "alice@x.com", "pw123456")

	_, err := env.service.Register(RegisterInput{
		Username: "alice",
		Email:    "other@x.com",
		Password: "pw123456",
	})
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestAuthService_Login_BadCredentialsAreIndistinguishable(t *testing.T) {
	env := setupAuthServiceTestEnv(t)
	env.register(t, "alice", "alice@x.com", "pw123456")

	_, wrongPassword := env.service.Login(LoginInput{Email: "alice@x.com", Password: "wrong-password"})
	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)

	_, unknownEmail := env.service.Login(LoginInput{Email: "nobody@x.com", Password: "pw123456"})
	require.ErrorIs(t, unknownEmail, ErrInvalidCredentials)

	require.Equal(t, wrongPassword, unknownEmail)
}

func TestAuthService_Login_RotatesRefreshTokens(t *testing.T) {
	env := setupAuthServiceTestEnv(t)
	registered := env.register(t, "alice", "alice@x.com", "pw123456")

	session, err := env.service.Login(LoginInput{Email: "alice@x.com", Password: "pw123456"})
	require.NoError(t, err)
	require.NotEqual(t, registered.RefreshToken, session.RefreshToken)

	// The registration token is now revoked; exactly one token stays active.
	old, err := env.tokenRepo.FindByToken(registered.RefreshToken, false)
	require.NoError(t, err)
	require.True(t, old.IsRevoked)
	require.EqualValues(t, 1, env.activeTokens(t, session.User.ID))
}

func TestAuthService_Refresh_RotationScenario(t *testing.T) {
	env := setupAuthServiceTestEnv(t)
	env.register(t, "alice", "alice@x.com", "pw123456")

	login, err := env.service.Login(LoginInput{Email: "alice@x.com", Password: "pw123456"})
	require.NoError(t, err)

	refreshed, err := env.service.Refresh(login.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	require.NotEmpty(t, refreshed.AccessToken)
	require.Equal(t, login.User.ID, refreshed.User.ID)

	// Strict single use: the presented token is dead after one rotation.
	_, err = env.service.Refresh(login.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshTokenInactive)

	require.EqualValues(t, 1, env.activeTokens(t, login.User.ID))
}

func TestAuthService_Refresh_InvalidInputs(t *testing.T) {
	env := setupAuthServiceTestEnv(t)

	_, err := env.service.Refresh("")
	require.ErrorIs(t, err, ErrRefreshTokenRequired)

	_, err = env.service.Refresh("   ")
	require.ErrorIs(t, err, ErrRefreshTokenRequired)

	_, err = env.service.Refresh("no-such-token")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Refresh_ExpiredToken(t *testing.T) {
	env := setupAuthServiceTestEnv(t)
	session := env.register(t, "alice", "alice@x.com", "pw123456")

	env.now = env.now.Add(8 * 24 * time.Hour)

	_, err := env.service.Refresh(session.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshTokenInactive)
}

func TestAuthService_Logout(t *testing.T) {
	env := setupAuthServiceTestEnv(t)
	alice := env.register(t, "alice", "alice@x.com", "pw123456")
	bob := env.register(t, "bob", "bob@x.com", "pw123456")

	// Someone else's token is rejected.
	err := env.service.Logout(bob.User.ID, alice.RefreshToken)
	require.ErrorIs(t, err, ErrNotTokenOwner)

	// Unknown token succeeds silently.
	require.NoError(t, env.service.Logout(alice.User.ID, "no-such-token"))

	// Empty token is a validation error.
	require.ErrorIs(t, env.service.Logout(alice.User.ID, ""), ErrRefreshTokenRequired)

	// Own token is revoked; a second logout is a no-op.
	require.NoError(t, env.service.Logout(alice.User.ID, alice.RefreshToken))
	require.NoError(t, env.service.Logout(alice.User.ID, alice.RefreshToken))

	_, err = env.service.Refresh(alice.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshTokenInactive)
}

func TestAuthService_RevokeToken(t *testing.T) {
	env := setupAuthServiceTestEnv(t)
	session := env.register(t, "alice", "alice@x.com", "pw123456")

	require.ErrorIs(t, env.service.RevokeToken(""), ErrRefreshTokenRequired)
	require.ErrorIs(t, env.service.RevokeToken("no-such-token"), ErrTokenNotFound)

	require.NoError(t, env.service.RevokeToken(session.RefreshToken))

	stored, err := env.tokenRepo.FindByToken(session.RefreshToken, false)
	require.NoError(t, err)
	require.True(t, stored.IsRevoked)
	require.EqualValues(t, 0, env.activeTokens(t, session.User.ID))
}

func TestAuthService_FullScenario(t *testing.T) {
	env := setupAuthServiceTestEnv(t)

	registered := env.register(t, "alice", "alice@x.com", "pw123")
	require.NotEmpty(t, registered.AccessToken)
	require.NotEmpty(t, registered.RefreshToken)
	require.Equal(t, models.RoleUser, registered.User.Role)

	login, err := env.service.Login(LoginInput{Email: "alice@x.com", Password: "pw123"})
	require.NoError(t, err)
	require.NotEqual(t, registered.RefreshToken, login.RefreshToken)

	old, err := env.tokenRepo.FindByToken(registered.RefreshToken, false)
	require.NoError(t, err)
	require.False(t, old.IsActive(env.now))

	refreshed, err := env.service.Refresh(login.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	require.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)

	used, err := env.tokenRepo.FindByToken(login.RefreshToken, false)
	require.NoError(t, err)
	require.False(t, used.IsActive(env.now))
}
