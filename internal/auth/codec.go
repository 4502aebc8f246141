package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/auth-service/internal/domain"
)

var signingMethod = jwt.SigningMethodHS512

// Envelope is the decoded, signature-checked content of a token.
type Envelope struct {
	ID        string
	Subject   string
	Role      domain.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Identity rebuilds the identity the token was issued for.
func (e *Envelope) Identity() domain.Identity {
	return domain.Identity{Subject: e.Subject, Role: e.Role}
}

type tokenClaims struct {
	Role domain.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec encodes identities into signed JWTs and decodes them back.
// It never looks at the clock; expiry is judged by TokenService.
type TokenCodec struct {
	keys   KeySource
	parser *jwt.Parser
}

// NewTokenCodec builds a codec over the given key source.
func NewTokenCodec(keys KeySource) *TokenCodec {
	return &TokenCodec{
		keys: keys,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{signingMethod.Alg()}),
			jwt.WithoutClaimsValidation(),
			jwt.WithStrictDecoding(),
		),
	}
}

// Encode signs identity with iat=issuedAt and exp=issuedAt+ttl.
func (tc *TokenCodec) Encode(identity domain.Identity, issuedAt time.Time, ttl time.Duration) (string, error) {
	if identity.Subject == "" {
		return "", fmt.Errorf("encode token: %w", ErrMalformedToken)
	}

	claims := &tokenClaims{
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.Subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}

	kid, key := tc.keys.SigningKey()
	token := jwt.NewWithClaims(signingMethod, claims)
	token.Header["kid"] = kid

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode checks the signature and only then extracts the claims.
func (tc *TokenCodec) Decode(tokenStr string) (*Envelope, error) {
	claims := &tokenClaims{}
	_, err := tc.parser.ParseWithClaims(tokenStr, claims, tc.verificationKey)
	if err != nil {
		return nil, classifyParseError(err)
	}

	if claims.Subject == "" || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: required claim missing", ErrMalformedToken)
	}

	return &Envelope{
		ID:        claims.ID,
		Subject:   claims.Subject,
		Role:      claims.Role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (tc *TokenCodec) verificationKey(token *jwt.Token) (interface{}, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		kid, _ = tc.keys.SigningKey()
	}
	key, ok := tc.keys.VerificationKey(kid)
	if !ok {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return key, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}
