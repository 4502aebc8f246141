package auth

import (
	"fmt"
	"time"

	"github.com/spec-kit/auth-service/internal/domain"
)

// AccessTokenTTL is the fixed validity window of an issued token.
const AccessTokenTTL = 15 * time.Minute

// Revocations is the revocation capability TokenService depends on.
type Revocations interface {
	Revoke(token string, expiresAt time.Time)
	IsRevoked(token string) bool
}

// IssuedToken is a freshly minted token and its validity window.
type IssuedToken struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService issues, verifies and revokes access tokens.
type TokenService struct {
	codec   *TokenCodec
	revoked Revocations
	now     func() time.Time
}

// NewTokenService wires the codec and revocation set. A nil clock means time.Now.
func NewTokenService(codec *TokenCodec, revoked Revocations, now func() time.Time) *TokenService {
	if now == nil {
		now = time.Now
	}
	return &TokenService{codec: codec, revoked: revoked, now: now}
}

// Issue mints a token for identity valid for AccessTokenTTL.
func (s *TokenService) Issue(identity domain.Identity) (*IssuedToken, error) {
	issuedAt := s.now().Truncate(time.Second)
	token, err := s.codec.Encode(identity, issuedAt, AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: token, IssuedAt: issuedAt, ExpiresAt: issuedAt.Add(AccessTokenTTL)}, nil
}

// Verify checks token and returns the identity it carries.
func (s *TokenService) Verify(token string) (domain.Identity, error) {
	return s.verify(token, "", false)
}

// VerifySubject is Verify plus a check that the token belongs to expectedSubject.
func (s *TokenService) VerifySubject(token, expectedSubject string) (domain.Identity, error) {
	return s.verify(token, expectedSubject, true)
}

// Checks run signature, expiry, revocation, subject; the first failure wins.
func (s *TokenService) verify(token, expectedSubject string, matchSubject bool) (domain.Identity, error) {
	envelope, err := s.codec.Decode(token)
	if err != nil {
		return domain.Identity{}, err
	}

	if s.now().Unix() >= envelope.ExpiresAt.Unix() {
		return domain.Identity{}, fmt.Errorf("%w at %s", ErrExpired, envelope.ExpiresAt.UTC().Format(time.RFC3339))
	}

	if s.revoked.IsRevoked(token) {
		return domain.Identity{}, ErrRevoked
	}

	if matchSubject && envelope.Subject != expectedSubject {
		return domain.Identity{}, ErrSubjectMismatch
	}

	return envelope.Identity(), nil
}

// Revoke invalidates token without validating it first and returns how long
// the revocation is kept. Tokens that cannot be decoded are tracked for one
// TTL from now.
func (s *TokenService) Revoke(token string) time.Time {
	expiresAt := s.now().Add(AccessTokenTTL)
	if envelope, err := s.codec.Decode(token); err == nil {
		expiresAt = envelope.ExpiresAt
	}
	s.revoked.Revoke(token, expiresAt)
	return expiresAt
}
