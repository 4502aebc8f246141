package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// RevocationRegistry is the process-wide set of revoked tokens. Entries are
// keyed by the SHA-256 digest of the raw token and remember when the token
// would have expired anyway, so Purge can drop them once that instant passes.
type RevocationRegistry struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewRevocationRegistry returns an empty registry.
func NewRevocationRegistry() *RevocationRegistry {
	return &RevocationRegistry{entries: make(map[string]time.Time)}
}

// Revoke marks token as revoked until expiresAt. Repeated calls keep the later expiry.
func (r *RevocationRegistry) Revoke(token string, expiresAt time.Time) {
	key := tokenDigest(token)

	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.entries[key]; ok && current.After(expiresAt) {
		return
	}
	r.entries[key] = expiresAt
}

// IsRevoked reports whether token has been revoked.
func (r *RevocationRegistry) IsRevoked(token string) bool {
	key := tokenDigest(token)

	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

// Purge drops entries whose expiry is at or before now and returns how many went.
func (r *RevocationRegistry) Purge(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, expiresAt := range r.entries {
		if !expiresAt.After(now) {
			delete(r.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked revocations.
func (r *RevocationRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
