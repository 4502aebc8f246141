package auth

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRevocationRegistryRevokeAndCheck(t *testing.T) {
	registry := NewRevocationRegistry()
	expiresAt := time.Now().Add(time.Minute)

	assert.False(t, registry.IsRevoked("token-a"))

	registry.Revoke("token-a", expiresAt)
	assert.True(t, registry.IsRevoked("token-a"))
	assert.False(t, registry.IsRevoked("token-b"))
	assert.Equal(t, 1, registry.Len())
}

func TestRevocationRegistryRevokeIsIdempotent(t *testing.T) {
	registry := NewRevocationRegistry()
	later := time.Now().Add(time.Hour)

	registry.Revoke("token", later)
	registry.Revoke("token", later.Add(-30*time.Minute))
	registry.Revoke("token", later)

	assert.Equal(t, 1, registry.Len())
	assert.Equal(t, 0, registry.Purge(later.Add(-time.Minute)), "earlier expiry must not shorten the entry")
	assert.True(t, registry.IsRevoked("token"))
}

func TestRevocationRegistryPurgeDropsOnlyExpiredEntries(t *testing.T) {
	registry := NewRevocationRegistry()
	now := time.Unix(1_700_000_000, 0)

	registry.Revoke("expired", now.Add(-time.Second))
	registry.Revoke("expiring-now", now)
	registry.Revoke("live", now.Add(time.Second))

	assert.Equal(t, 2, registry.Purge(now))
	assert.False(t, registry.IsRevoked("expired"))
	assert.False(t, registry.IsRevoked("expiring-now"))
	assert.True(t, registry.IsRevoked("live"))
	assert.Equal(t, 1, registry.Len())
}

func TestRevocationRegistryConcurrentRevokeSameToken(t *testing.T) {
	registry := NewRevocationRegistry()
	expiresAt := time.Now().Add(time.Minute)

	const n = 64
	var (
		wg       sync.WaitGroup
		firstMu  sync.Mutex
		returned bool
	)
	stale := make(chan struct{}, n*10)

	wg.Add(n * 2)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			registry.Revoke("shared", expiresAt)
			firstMu.Lock()
			returned = true
			firstMu.Unlock()
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				firstMu.Lock()
				mustSee := returned
				firstMu.Unlock()
				if mustSee && !registry.IsRevoked("shared") {
					stale <- struct{}{}
				}
			}
		}()
	}
	wg.Wait()
	close(stale)

	assert.Empty(t, stale, "IsRevoked returned false after a Revoke completed")
	assert.Equal(t, 1, registry.Len())
	assert.True(t, registry.IsRevoked("shared"))
}

func TestRevocationRegistryConcurrentDistinctTokens(t *testing.T) {
	registry := NewRevocationRegistry()
	expiresAt := time.Now().Add(time.Minute)

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			registry.Revoke(fmt.Sprintf("token-%d", i), expiresAt)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, n, registry.Len())
}
