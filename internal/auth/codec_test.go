package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-service/internal/domain"
)

const testSecret = "test-secret-0123456789abcdef0123456789abcdef"

func newTestKeys(t *testing.T) *StaticKeySource {
	t.Helper()
	keys, err := NewStaticKeySource("primary", testSecret)
	require.NoError(t, err)
	return keys
}

func newTestCodec(t *testing.T) *TokenCodec {
	t.Helper()
	return NewTokenCodec(newTestKeys(t))
}

func signRaw(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims, kid string, key any) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestNewStaticKeySourceValidation(t *testing.T) {
	_, err := NewStaticKeySource("primary", "short")
	assert.Error(t, err)

	_, err = NewStaticKeySource(" ", testSecret)
	assert.Error(t, err)

	keys, err := NewStaticKeySource("primary", testSecret)
	require.NoError(t, err)
	kid, key := keys.SigningKey()
	assert.Equal(t, "primary", kid)
	assert.Equal(t, []byte(testSecret), key)

	_, ok := keys.VerificationKey("other")
	assert.False(t, ok)
}

func TestCodecRoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	issuedAt := time.Unix(1_700_000_000, 0)

	token, err := codec.Encode(domain.Identity{Subject: "a@x.com", Role: domain.RoleUser}, issuedAt, AccessTokenTTL)
	require.NoError(t, err)

	envelope, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", envelope.Subject)
	assert.Equal(t, domain.RoleUser, envelope.Role)
	assert.Equal(t, issuedAt.Unix(), envelope.IssuedAt.Unix())
	assert.Equal(t, issuedAt.Add(AccessTokenTTL).Unix(), envelope.ExpiresAt.Unix())
	assert.NotEmpty(t, envelope.ID)
}

func TestCodecTokensAreUniquePerIssue(t *testing.T) {
	codec := newTestCodec(t)
	identity := domain.Identity{Subject: "a@x.com", Role: domain.RoleUser}
	issuedAt := time.Unix(1_700_000_000, 0)

	first, err := codec.Encode(identity, issuedAt, time.Minute)
	require.NoError(t, err)
	second, err := codec.Encode(identity, issuedAt, time.Minute)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCodecEncodeRequiresSubject(t *testing.T) {
	codec := newTestCodec(t)
	_, err := codec.Encode(domain.Identity{Role: domain.RoleUser}, time.Now(), time.Minute)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestCodecDecodeDoesNotJudgeExpiry(t *testing.T) {
	codec := newTestCodec(t)
	token, err := codec.Encode(domain.Identity{Subject: "a@x.com"}, time.Unix(1_000, 0), time.Second)
	require.NoError(t, err)

	envelope, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, int64(1_001), envelope.ExpiresAt.Unix())
}

func TestCodecDecodeRejectsForeignSecret(t *testing.T) {
	other, err := NewStaticKeySource("primary", "another-secret-0123456789abcdef0123456789")
	require.NoError(t, err)
	token, err := NewTokenCodec(other).Encode(domain.Identity{Subject: "a@x.com"}, time.Now(), time.Minute)
	require.NoError(t, err)

	_, err = newTestCodec(t).Decode(token)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestCodecDecodeRejectsOtherAlgorithms(t *testing.T) {
	codec := newTestCodec(t)
	claims := jwt.MapClaims{"sub": "a@x.com", "iat": time.Now().Unix(), "exp": time.Now().Add(time.Minute).Unix()}

	hs256 := signRaw(t, jwt.SigningMethodHS256, claims, "primary", []byte(testSecret))
	_, err := codec.Decode(hs256)
	assert.ErrorIs(t, err, ErrBadSignature)

	none := signRaw(t, jwt.SigningMethodNone, claims, "primary", jwt.UnsafeAllowNoneSignatureType)
	_, err = codec.Decode(none)
	assert.Error(t, err)
	assert.Contains(t, []Reason{ReasonBadSignature, ReasonMalformedToken}, ReasonOf(err))
}

func TestCodecDecodeRejectsUnknownKeyID(t *testing.T) {
	claims := jwt.MapClaims{"sub": "a@x.com", "iat": time.Now().Unix(), "exp": time.Now().Add(time.Minute).Unix()}
	token := signRaw(t, jwt.SigningMethodHS512, claims, "retired", []byte(testSecret))

	_, err := newTestCodec(t).Decode(token)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestCodecDecodeAcceptsMissingKeyID(t *testing.T) {
	claims := jwt.MapClaims{"sub": "a@x.com", "role": "ADMIN", "iat": time.Now().Unix(), "exp": time.Now().Add(time.Minute).Unix()}
	token := signRaw(t, jwt.SigningMethodHS512, claims, "", []byte(testSecret))

	envelope, err := newTestCodec(t).Decode(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, envelope.Role)
}

func TestCodecDecodeRequiresClaims(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now()

	cases := map[string]jwt.MapClaims{
		"missing subject": {"iat": now.Unix(), "exp": now.Add(time.Minute).Unix()},
		"empty subject":   {"sub": "", "iat": now.Unix(), "exp": now.Add(time.Minute).Unix()},
		"missing expiry":  {"sub": "a@x.com", "iat": now.Unix()},
		"missing issued":  {"sub": "a@x.com", "exp": now.Add(time.Minute).Unix()},
	}
	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			token := signRaw(t, jwt.SigningMethodHS512, claims, "primary", []byte(testSecret))
			_, err := codec.Decode(token)
			assert.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestCodecDecodeRejectsGarbage(t *testing.T) {
	codec := newTestCodec(t)
	for _, input := range []string{"", "not-a-token", "a.b", "a.b.c", "...."} {
		_, err := codec.Decode(input)
		assert.ErrorIs(t, err, ErrMalformedToken, "input %q", input)
	}
}

func TestCodecDecodeDetectsAnyTamperedCharacter(t *testing.T) {
	codec := newTestCodec(t)
	token, err := codec.Encode(domain.Identity{Subject: "a@x.com", Role: domain.RoleUser}, time.Now(), AccessTokenTTL)
	require.NoError(t, err)

	for i := 0; i < len(token); i++ {
		replacement := byte('A')
		if token[i] == 'A' {
			replacement = 'B'
		}
		tampered := token[:i] + string(replacement) + token[i+1:]

		_, err := codec.Decode(tampered)
		require.Error(t, err, "tampered position %d accepted", i)
		reason := ReasonOf(err)
		assert.True(t, reason == ReasonBadSignature || reason == ReasonMalformedToken,
			"position %d: unexpected reason %q", i, reason)
	}
}
