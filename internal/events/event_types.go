package events

import (
	"time"

	"github.com/spec-kit/auth-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded  EventType = "login_succeeded"
	EventLoginFailed     EventType = "login_failed"
	EventTokenRevoked    EventType = "token_revoked"
	EventUserRegistered  EventType = "user_registered"
	EventUserDeleted     EventType = "user_deleted"
	EventUserRoleChanged EventType = "user_role_changed"
)

// Actor is the caller that triggered an event, when known.
type Actor struct {
	Subject string      `json:"subject,omitempty"`
	Role    domain.Role `json:"role,omitempty"`
}

// Event represents a security-relevant fact emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// LoginFailedPayload payload. Reason is internal only and never sent to the caller.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
	IP     string `json:"ip,omitempty"`
}

// TokenRevokedPayload payload.
type TokenRevokedPayload struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// UserRoleChangedPayload payload.
type UserRoleChangedPayload struct {
	OldRole domain.Role `json:"old_role"`
	NewRole domain.Role `json:"new_role"`
}
