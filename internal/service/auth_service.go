package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/ratelimit"
	"github.com/spec-kit/auth-service/internal/repository"
	apperrors "github.com/spec-kit/auth-service/pkg/util/errorutil"
)

const invalidCredentials = "invalid credentials"

// LoginThrottle limits repeated failed logins for one email.
type LoginThrottle interface {
	Check(ctx context.Context, email string) error
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

// LoginResult is returned to a caller that presented valid credentials.
type LoginResult struct {
	Token     string
	Subject   string
	ExpiresAt time.Time
}

// AuthService coordinates registration, login and logout.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenService
	limiter    LoginThrottle
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     *auth.TokenService
	Limiter    LoginThrottle
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service. The dummy hash used for unknown accounts
// is built here so the first such login is not slower than later ones.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	auth.DummyHash(cfg.BcryptCost)
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     deps.Tokens,
		limiter:    deps.Limiter,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
	}
}

// Login checks credentials and issues an access token. Unknown accounts and
// wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewUnauthorized(invalidCredentials)
	}

	if err := s.checkThrottle(ctx, email); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		auth.CompareDummyPassword(password, s.bcryptCost)
		return nil, s.loginFailed(ctx, email, ip, "unknown_subject")
	case err != nil:
		return nil, apperrors.NewInternalError(err)
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Warn("password comparison failed", zap.String("subject", email), zap.Error(err))
		}
		return nil, s.loginFailed(ctx, email, ip, "bad_password")
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.logger.Warn("login throttle reset failed", zap.String("subject", email), zap.Error(err))
		}
	}

	issued, err := s.tokens.Issue(user.Identity())
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventLoginSucceeded,
		Subject: user.Email,
		Actor:   events.Actor{Subject: user.Email, Role: user.Role},
	})

	return &LoginResult{Token: issued.Token, Subject: user.Email, ExpiresAt: issued.ExpiresAt}, nil
}

// Logout revokes token. It succeeds for any token, valid or not.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.NewBadRequest("invalid token format")
	}

	evt := events.Event{Type: events.EventTokenRevoked}
	if identity, err := s.tokens.Verify(token); err == nil {
		evt.Subject = identity.Subject
	}

	expiresAt := s.tokens.Revoke(token)
	evt.Payload = events.TokenRevokedPayload{ExpiresAt: expiresAt}

	if identity, ok := auth.IdentityFromUserContext(ctx); ok {
		evt.Actor = events.Actor{Subject: identity.Subject, Role: identity.Role}
		if evt.Subject == "" {
			evt.Subject = identity.Subject
		}
	}
	s.publish(ctx, evt)
	return nil
}

// Register creates a USER account.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	details := map[string]any{}
	if email == "" || !strings.Contains(email, "@") {
		details["email"] = "a valid email is required"
	}
	if password == "" {
		details["password"] = "password is required"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid registration", details)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventUserRegistered,
		Subject: user.Email,
		Actor:   events.Actor{Subject: user.Email, Role: user.Role},
	})
	return user, nil
}

// Tokens exposes the token service for the gate.
func (s *AuthService) Tokens() *auth.TokenService {
	return s.tokens
}

func (s *AuthService) checkThrottle(ctx context.Context, email string) error {
	if s.limiter == nil {
		return nil
	}
	err := s.limiter.Check(ctx, email)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ratelimit.ErrRateLimited):
		return apperrors.NewTooManyRequests("too many failed login attempts")
	default:
		s.logger.Warn("login throttle unavailable", zap.String("subject", email), zap.Error(err))
		return nil
	}
}

func (s *AuthService) loginFailed(ctx context.Context, email, ip, reason string) error {
	if s.limiter != nil {
		if err := s.limiter.RecordFailure(ctx, email); err != nil {
			s.logger.Warn("login throttle record failed", zap.String("subject", email), zap.Error(err))
		}
	}
	s.publish(ctx, events.Event{
		Type:    events.EventLoginFailed,
		Subject: email,
		Payload: events.LoginFailedPayload{Reason: reason, IP: ip},
	})
	return apperrors.NewUnauthorized(invalidCredentials)
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
