package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/ratelimit"
	"github.com/spec-kit/auth-service/internal/repository"
	apperrors "github.com/spec-kit/auth-service/pkg/util/errorutil"
)

const testSecret = "service-test-secret-0123456789abcdefghijklmnop"

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordedEvents) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type authFixture struct {
	svc      *AuthService
	users    *repository.MemoryUserRepository
	tokens   *auth.TokenService
	registry *auth.RevocationRegistry
	limiter  *ratelimit.LoginLimiter
	redis    *miniredis.Miniredis
	events   *recordedEvents
}

func newAuthFixture(t *testing.T, maxAttempts int) *authFixture {
	t.Helper()

	keys, err := auth.NewStaticKeySource("test", testSecret)
	require.NoError(t, err)
	registry := auth.NewRevocationRegistry()
	tokens := auth.NewTokenService(auth.NewTokenCodec(keys), registry, nil)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter := ratelimit.NewLoginLimiter(client, ratelimit.Config{
		Enabled:     true,
		MaxAttempts: maxAttempts,
		Cooldown:    time.Minute,
	})

	recorded := &recordedEvents{}
	dispatcher := events.NewInMemoryDispatcher()
	for _, eventType := range auditedEvents {
		dispatcher.Subscribe(eventType, recorded.handle)
	}

	users := repository.NewMemoryUserRepository()
	svc := NewAuthService(config.AuthConfig{BcryptCost: bcrypt.MinCost}, AuthDependencies{
		UserRepo:   users,
		Tokens:     tokens,
		Limiter:    limiter,
		Dispatcher: dispatcher,
	})

	return &authFixture{
		svc:      svc,
		users:    users,
		tokens:   tokens,
		registry: registry,
		limiter:  limiter,
		redis:    mr,
		events:   recorded,
	}
}

func seedUser(t *testing.T, users repository.UserRepository, email, password string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{Name: email, Email: email, PasswordHash: hash, Role: role}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func domainErr(t *testing.T, err error) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %T", err)
	return de
}
