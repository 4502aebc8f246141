package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/auth-service/internal/domain"
	apperrors "github.com/spec-kit/auth-service/pkg/util/errorutil"
)

type recordedOutcome struct {
	outcome string
	reason  string
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []recordedOutcome
}

func (r *fakeRecorder) RecordAuthOutcome(outcome, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, recordedOutcome{outcome: outcome, reason: reason})
}

func (r *fakeRecorder) all() []recordedOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedOutcome(nil), r.outcomes...)
}

type whoamiResponse struct {
	Authenticated bool   `json:"authenticated"`
	Subject       string `json:"subject"`
	Role          string `json:"role"`
	FromContext   bool   `json:"from_context"`
}

type gateFixture struct {
	app      *fiber.App
	tokens   *TokenService
	recorder *fakeRecorder
	logs     *observer.ObservedLogs
}

func newGateFixture(t *testing.T, handlers ...fiber.Handler) *gateFixture {
	t.Helper()
	tokens, _, _ := newTestTokenService(t)
	core, logs := observer.New(zapcore.DebugLevel)
	recorder := &fakeRecorder{}
	gate := NewGate(tokens, zap.New(core), recorder)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"code": domainErr.Code})
		},
	})
	app.Use(gate.Handle)
	for _, h := range handlers {
		app.Use(h)
	}
	app.Get("/whoami", func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		_, fromCtx := IdentityFromUserContext(c.UserContext())
		return c.JSON(whoamiResponse{
			Authenticated: ok,
			Subject:       identity.Subject,
			Role:          string(identity.Role),
			FromContext:   fromCtx,
		})
	})

	return &gateFixture{app: app, tokens: tokens, recorder: recorder, logs: logs}
}

func (f *gateFixture) whoami(t *testing.T, authorization string) (int, whoamiResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body whoamiResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

func (f *gateFixture) issue(t *testing.T, identity domain.Identity) string {
	t.Helper()
	issued, err := f.tokens.Issue(identity)
	require.NoError(t, err)
	return issued.Token
}

func TestGateBindsIdentityForValidToken(t *testing.T) {
	f := newGateFixture(t)
	token := f.issue(t, domain.Identity{Subject: "a@x.com", Role: domain.RoleAdmin})

	status, body := f.whoami(t, "Bearer "+token)

	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.Authenticated)
	assert.True(t, body.FromContext)
	assert.Equal(t, "a@x.com", body.Subject)
	assert.Equal(t, "ADMIN", body.Role)
	assert.Equal(t, []recordedOutcome{{outcome: string(OutcomeVerified)}}, f.recorder.all())
}

func TestGateLeavesRequestsWithoutCredentialAnonymous(t *testing.T) {
	cases := map[string]string{
		"no header":       "",
		"basic scheme":    "Basic xyz",
		"lowercase":       "bearer abc",
		"no space":        "Bearerabc",
		"empty token":     "Bearer ",
		"whitespace only": "Bearer    ",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			f := newGateFixture(t)
			status, body := f.whoami(t, header)

			assert.Equal(t, http.StatusOK, status)
			assert.False(t, body.Authenticated)
			assert.False(t, body.FromContext)
			assert.Equal(t, []recordedOutcome{{outcome: string(OutcomeNoCredential)}}, f.recorder.all())
			assert.Zero(t, f.logs.Len())
		})
	}
}

func TestGateRejectsInvalidTokensWithoutAborting(t *testing.T) {
	f := newGateFixture(t)
	revoked := f.issue(t, domain.Identity{Subject: "a@x.com", Role: domain.RoleUser})
	f.tokens.Revoke(revoked)

	cases := []struct {
		token  string
		reason Reason
	}{
		{token: "garbage", reason: ReasonMalformedToken},
		{token: revoked, reason: ReasonRevoked},
	}
	for _, tc := range cases {
		status, body := f.whoami(t, "Bearer "+tc.token)
		assert.Equal(t, http.StatusOK, status)
		assert.False(t, body.Authenticated)
	}

	outcomes := f.recorder.all()
	require.Len(t, outcomes, 2)
	for i, tc := range cases {
		assert.Equal(t, string(OutcomeRejected), outcomes[i].outcome)
		assert.Equal(t, string(tc.reason), outcomes[i].reason)
	}

	entries := f.logs.FilterMessage("bearer token rejected").All()
	require.Len(t, entries, 2)
	assert.Equal(t, string(ReasonRevoked), entries[1].ContextMap()["reason"])
	for _, entry := range entries {
		for _, field := range entry.Context {
			assert.NotContains(t, field.String, revoked, "token must not be logged")
		}
	}
}

func TestGateRunsOncePerRequest(t *testing.T) {
	tokens, _, _ := newTestTokenService(t)
	recorder := &fakeRecorder{}
	gate := NewGate(tokens, nil, recorder)

	app := fiber.New()
	app.Use(gate.Handle, gate.Handle)
	app.Get("/whoami", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Len(t, recorder.all(), 1)
}

func TestRequireAuthenticatedRejectsAnonymous(t *testing.T) {
	f := newGateFixture(t, RequireAuthenticated())

	status, _ := f.whoami(t, "Basic xyz")
	assert.Equal(t, http.StatusUnauthorized, status)

	token := f.issue(t, domain.Identity{Subject: "a@x.com", Role: domain.RoleUser})
	status, body := f.whoami(t, "Bearer "+token)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.Authenticated)
}

func TestRequireRole(t *testing.T) {
	f := newGateFixture(t, RequireRole(domain.RoleAdmin))

	status, _ := f.whoami(t, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	user := f.issue(t, domain.Identity{Subject: "u@x.com", Role: domain.RoleUser})
	status, _ = f.whoami(t, "Bearer "+user)
	assert.Equal(t, http.StatusForbidden, status)

	admin := f.issue(t, domain.Identity{Subject: "a@x.com", Role: domain.RoleAdmin})
	status, body := f.whoami(t, "Bearer "+admin)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ADMIN", body.Role)
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", token)

	_, ok = BearerToken("Token abc")
	assert.False(t, ok)
}
