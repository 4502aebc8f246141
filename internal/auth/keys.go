package auth

import (
	"fmt"
	"strings"
)

// KeySource supplies HMAC key material. Verification resolves keys by id so
// more than one key can be active without touching call sites.
type KeySource interface {
	SigningKey() (kid string, key []byte)
	VerificationKey(kid string) ([]byte, bool)
}

// MinKeyLength is the minimum HMAC key size in bytes.
const MinKeyLength = 32

// StaticKeySource serves a single secret resolved once at startup.
type StaticKeySource struct {
	kid string
	key []byte
}

// NewStaticKeySource validates and wraps a process-wide secret.
func NewStaticKeySource(kid, secret string) (*StaticKeySource, error) {
	kid = strings.TrimSpace(kid)
	if kid == "" {
		return nil, fmt.Errorf("key id required")
	}
	if len(secret) < MinKeyLength {
		return nil, fmt.Errorf("signing secret must be at least %d bytes", MinKeyLength)
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &StaticKeySource{kid: kid, key: key}, nil
}

// SigningKey returns the active key and its id.
func (s *StaticKeySource) SigningKey() (string, []byte) {
	return s.kid, s.key
}

// VerificationKey returns the key for kid.
func (s *StaticKeySource) VerificationKey(kid string) ([]byte, bool) {
	if kid != s.kid {
		return nil, false
	}
	return s.key, true
}
