// Package auth holds the credential primitives of the forum: bcrypt password
// hashing, opaque session tokens, the bearer-token middleware and the
// owner-or-admin permission check.
//
// WHY BCRYPT?
// bcrypt is deliberately slow and salts every hash, so a leaked users table
// can't be reversed with precomputed tables. The salt and the cost are
// embedded in the output, so a single password_hash column is enough:
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (2^12 rounds)
//	 version
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the production bcrypt work factor. Aim for ~250ms per hash
// on production hardware; BCRYPT_COST overrides it.
const DefaultCost = 12

// maxPasswordBytes is bcrypt's input limit. Longer inputs are silently
// truncated by the algorithm, so Hash rejects them.
const maxPasswordBytes = 72

// ErrPasswordMismatch is returned by Verify when the password is wrong.
var ErrPasswordMismatch = errors.New("auth: invalid password")

// PasswordHasher hashes and verifies passwords with a fixed bcrypt cost.
//
// Tests build it with bcrypt.MinCost (4) so hashing takes microseconds.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher using cost, which must lie within
// [bcrypt.MinCost, bcrypt.MaxCost].
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &PasswordHasher{cost: cost}, nil
}

// Hash returns the bcrypt hash of plaintext, ready to store as-is.
func (p *PasswordHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", maxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when plaintext matches hash and ErrPasswordMismatch when
// it doesn't. Any other error means the stored hash is unusable.
//
// bcrypt.CompareHashAndPassword compares in constant time.
func (p *PasswordHasher) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
