package auth

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned when a password does not match its hash.
var ErrPasswordMismatch = errors.New("password mismatch")

var dummyHashes sync.Map // cost -> []byte

func normalizeCost(cost int) int {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return cost
}

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), normalizeCost(cost))
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

// DummyHash returns a hash of a throwaway password at cost, built once per cost.
func DummyHash(cost int) []byte {
	cost = normalizeCost(cost)
	if hash, ok := dummyHashes.Load(cost); ok {
		return hash.([]byte)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("dummy-password"), cost)
	if err != nil {
		// unreachable: the cost is normalized and the password is short
		panic(err)
	}
	actual, _ := dummyHashes.LoadOrStore(cost, hash)
	return actual.([]byte)
}

// CompareDummyPassword runs one bcrypt comparison at cost so that a login for
// an unknown account costs the same as one with a wrong password. cost must be
// the cost real account hashes are created with.
func CompareDummyPassword(plain string, cost int) {
	_ = bcrypt.CompareHashAndPassword(DummyHash(cost), []byte(plain))
}
