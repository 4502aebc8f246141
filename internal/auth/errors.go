package auth

import "errors"

var (
	ErrMalformedToken           = errors.New("malformed token")
	ErrBadSignature             = errors.New("bad token signature")
	ErrExpired                  = errors.New("token expired")
	ErrRevoked                  = errors.New("token revoked")
	ErrSubjectMismatch          = errors.New("token subject mismatch")
	ErrMissingOrMalformedHeader = errors.New("missing or malformed authorization header")
	ErrIdentityNotFound         = errors.New("identity not found")
)

// Reason is the tagged failure kind used in logs and metrics.
type Reason string

const (
	ReasonMalformedToken           Reason = "malformed_token"
	ReasonBadSignature             Reason = "bad_signature"
	ReasonExpired                  Reason = "expired"
	ReasonRevoked                  Reason = "revoked"
	ReasonSubjectMismatch          Reason = "subject_mismatch"
	ReasonMissingOrMalformedHeader Reason = "missing_or_malformed_header"
	ReasonIdentityNotFound         Reason = "identity_not_found"
	ReasonUnknown                  Reason = "unknown"
)

var reasons = []struct {
	err    error
	reason Reason
}{
	{ErrMalformedToken, ReasonMalformedToken},
	{ErrBadSignature, ReasonBadSignature},
	{ErrExpired, ReasonExpired},
	{ErrRevoked, ReasonRevoked},
	{ErrSubjectMismatch, ReasonSubjectMismatch},
	{ErrMissingOrMalformedHeader, ReasonMissingOrMalformedHeader},
	{ErrIdentityNotFound, ReasonIdentityNotFound},
}

// ReasonOf maps an authentication error to its tagged reason.
func ReasonOf(err error) Reason {
	if err == nil {
		return ""
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return ReasonUnknown
}
