package usecase

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies passwords with bcrypt
type PasswordHasher struct {
	cost  int
	dummy []byte
}

// NewPasswordHasher returns a hasher using bcrypt.DefaultCost
func NewPasswordHasher() *PasswordHasher {
	return NewPasswordHasherWithCost(bcrypt.DefaultCost)
}

// NewPasswordHasherWithCost returns a hasher with an explicit bcrypt cost
func NewPasswordHasherWithCost(cost int) *PasswordHasher {
	h := &PasswordHasher{cost: cost}
	// burned on logins for unknown emails
	h.dummy, _ = bcrypt.GenerateFromPassword([]byte("entelligence-dummy-password"), cost)
	return h
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", goerr.Wrap(err, "failed to hash password")
	}
	return string(hashed), nil
}

// Verify reports whether password matches hash. A malformed hash is an
// error; a plain mismatch is not.
func (h *PasswordHasher) Verify(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, goerr.Wrap(err, "failed to compare password hash")
	}
}

func (h *PasswordHasher) burn(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}
