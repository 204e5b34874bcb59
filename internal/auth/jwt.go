package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/bimcer/task-tracker/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// refreshTokenBytes gives 512 bits of entropy; the refresh token is a pure
// lookup key with no embedded claims.
const refreshTokenBytes = 64

var ErrInvalidAccessToken = errors.New("invalid access token")

// AccessClaims is the claim set carried by a signed access token.
type AccessClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates access tokens and mints opaque refresh
// tokens. It is configured once at startup and safe for concurrent use.
type TokenManager struct {
	key        []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(secret, issuer, audience string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		key:        []byte(secret),
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithTimeFunc overrides the clock (used for testing).
func (m *TokenManager) WithTimeFunc(now func() time.Time) *TokenManager {
	m.now = now
	return m
}

// CreateAccessToken signs an HS256 token for the user and returns it with
// its expiry.
func (m *TokenManager) CreateAccessToken(user *models.User) (string, time.Time, error) {
	now := m.now().UTC()
	expires := now.Add(m.accessTTL)

	claims := AccessClaims{
		Email:    user.Email,
		Username: user.Username,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	return signed, expires, nil
}

// CreateRefreshToken mints an opaque random token and its expiry. The value
// carries no claims; unguessability plus the store's unique index are the
// whole security model.
func (m *TokenManager) CreateRefreshToken() (string, time.Time, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf), m.now().UTC().Add(m.refreshTTL), nil
}

// ValidateAccessToken verifies signature, issuer and audience, and when
// validateLifetime is set, expiry with zero clock-skew tolerance. Any
// failure comes back as ErrInvalidAccessToken; no parser error escapes.
func (m *TokenManager) ValidateAccessToken(tokenString string, validateLifetime bool) (*AccessClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if validateLifetime {
		opts = append(opts, jwt.WithIssuer(m.issuer), jwt.WithAudience(m.audience), jwt.WithExpirationRequired())
	} else {
		// Lifetime checks off: skip the parser's claim validation entirely
		// and verify issuer/audience by hand below.
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		return m.key, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidAccessToken
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok {
		return nil, ErrInvalidAccessToken
	}

	if !validateLifetime {
		if claims.Issuer != m.issuer || !audienceContains(claims.Audience, m.audience) {
			return nil, ErrInvalidAccessToken
		}
	}

	return claims, nil
}

func audienceContains(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
