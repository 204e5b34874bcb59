package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Password hashing parameters. Changing these invalidates every stored
// hash, so they are fixed rather than configurable.
const (
	saltSize       = 16
	hashIterations = 10000
	keyLength      = 32
)

// HashPassword derives a PBKDF2-SHA256 key from the password with a fresh
// random salt and returns base64(salt || key). Two calls with the same
// password produce different outputs.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, hashIterations, keyLength, sha256.New)

	buf := make([]byte, 0, saltSize+keyLength)
	buf = append(buf, salt...)
	buf = append(buf, key...)

	return base64.StdEncoding.EncodeToString(buf), nil
}

// VerifyPassword re-derives the key with the salt embedded in the encoded
// hash and compares in constant time. Malformed input counts as a failed
// verification rather than an error.
func VerifyPassword(password, encodedHash string) bool {
	raw, err := base64.StdEncoding.DecodeString(encodedHash)
	if err != nil || len(raw) != saltSize+keyLength {
		return false
	}

	salt := raw[:saltSize]
	key := pbkdf2.Key([]byte(password), salt, hashIterations, keyLength, sha256.New)

	return subtle.ConstantTimeCompare(raw[saltSize:], key) == 1
}
