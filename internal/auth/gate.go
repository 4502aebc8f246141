package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/domain"
)

const (
	identityKey = "auth_identity"
	gateRanKey  = "auth_gate_ran"
	bearer      = "Bearer "
)

type identityContextKey struct{}

// GateOutcome is the terminal state the gate reached for a request.
type GateOutcome string

const (
	OutcomeNoCredential GateOutcome = "no_credential"
	OutcomeVerified     GateOutcome = "verified"
	OutcomeRejected     GateOutcome = "rejected"
)

// Verifier checks a raw token and returns the identity it proves.
type Verifier interface {
	Verify(token string) (domain.Identity, error)
}

// OutcomeRecorder counts gate outcomes.
type OutcomeRecorder interface {
	RecordAuthOutcome(outcome string, reason string)
}

// Gate attaches an identity to requests carrying a valid bearer token.
// It never rejects a request; route guards decide what an anonymous caller may do.
type Gate struct {
	verifier Verifier
	logger   *zap.Logger
	recorder OutcomeRecorder
}

// NewGate constructs the gate. recorder may be nil.
func NewGate(verifier Verifier, logger *zap.Logger, recorder OutcomeRecorder) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{verifier: verifier, logger: logger, recorder: recorder}
}

// Handle is the fiber middleware.
func (g *Gate) Handle(c *fiber.Ctx) error {
	if ran, _ := c.Locals(gateRanKey).(bool); ran {
		return c.Next()
	}
	c.Locals(gateRanKey, true)

	token, ok := BearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		g.record(OutcomeNoCredential, "")
		return c.Next()
	}

	identity, err := g.verifier.Verify(token)
	if err != nil {
		reason := ReasonOf(err)
		g.logger.Info("bearer token rejected",
			zap.String("reason", string(reason)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		g.record(OutcomeRejected, string(reason))
		return c.Next()
	}

	c.Locals(identityKey, identity)
	c.SetUserContext(context.WithValue(c.UserContext(), identityContextKey{}, identity))
	g.record(OutcomeVerified, "")
	return c.Next()
}

func (g *Gate) record(outcome GateOutcome, reason string) {
	if g.recorder != nil {
		g.recorder.RecordAuthOutcome(string(outcome), reason)
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearer) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", false
	}
	return token, true
}

// IdentityFromContext returns the identity bound by the gate, if any.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(domain.Identity)
	return identity, ok
}

// IdentityFromUserContext reads the identity from a request's user context.
func IdentityFromUserContext(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(domain.Identity)
	return identity, ok
}
