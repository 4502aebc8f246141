package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/repository"
	apperrors "github.com/spec-kit/auth-service/pkg/util/errorutil"
)

// UserService exposes account management to authenticated callers.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, dispatcher: dispatcher, logger: logger}
}

// Me returns the account behind identity. A token whose account was deleted
// after issue is treated as unauthenticated.
func (s *UserService) Me(ctx context.Context, identity domain.Identity) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, identity.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("identity not found")
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// List returns every account.
func (s *UserService) List(ctx context.Context, actor domain.Identity) ([]domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// Delete removes the account with id.
func (s *UserService) Delete(ctx context.Context, actor domain.Identity, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return userLookupError(err, id)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return userLookupError(err, id)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventUserDeleted,
		Subject: user.Email,
		Actor:   events.Actor{Subject: actor.Subject, Role: actor.Role},
	})
	return nil
}

// UpdateRole sets the role of the account with id. Tokens issued before the
// change keep the role they were minted with until they expire.
func (s *UserService) UpdateRole(ctx context.Context, actor domain.Identity, id, role string) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	newRole, ok := domain.ParseRole(role)
	if !ok {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": "must be ADMIN or USER"})
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, userLookupError(err, id)
	}
	oldRole := user.Role
	if oldRole == newRole {
		return user, nil
	}

	user.Role = newRole
	if err := s.users.Update(ctx, user); err != nil {
		return nil, userLookupError(err, id)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventUserRoleChanged,
		Subject: user.Email,
		Actor:   events.Actor{Subject: actor.Subject, Role: actor.Role},
		Payload: events.UserRoleChangedPayload{OldRole: oldRole, NewRole: newRole},
	})
	return user, nil
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func requireAdmin(actor domain.Identity) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

func userLookupError(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	return apperrors.NewInternalError(err)
}
