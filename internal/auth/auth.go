// Package auth verifies API keys and issues/validates export tokens.
package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidAPIKey is returned when a request's X-API-Key header does not
// match the configured key.
var ErrInvalidAPIKey = errors.New("auth: invalid api key")

// APIKeyVerifier checks the X-API-Key header required on every
// endpoint when a key is configured: API_KEY may be supplied either as a
// bcrypt hash (operators rotate the configured value without ever storing
// the plaintext key on the host) or, for local/dev use, a plain string
// compared in constant time.
type APIKeyVerifier struct {
	key     string
	isHash  bool
	enabled bool
}

// NewAPIKeyVerifier builds a verifier from the configured API_KEY value.
// An empty key disables the check (mirrors an AUTH_ENABLED
// dev-mode escape hatch).
func NewAPIKeyVerifier(key string) *APIKeyVerifier {
	isHash := len(key) == 60 && strings.HasPrefix(key, "$2")
	return &APIKeyVerifier{key: key, isHash: isHash, enabled: key != ""}
}

// Enabled reports whether a key is configured.
func (v *APIKeyVerifier) Enabled() bool { return v.enabled }

// Verify checks candidate against the configured key.
func (v *APIKeyVerifier) Verify(candidate string) error {
	if !v.enabled {
		return nil
	}
	if v.isHash {
		if err := bcrypt.CompareHashAndPassword([]byte(v.key), []byte(candidate)); err != nil {
			return ErrInvalidAPIKey
		}
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(v.key)) != 1 {
		return ErrInvalidAPIKey
	}
	return nil
}

// HashAPIKey bcrypt-hashes a plaintext key for storage in API_KEY,
// mirroring a HashPassword utility.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
