package devconnect

import (
	"context"
	"errors"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordCost is the bcrypt work factor used when none is configured
const DefaultPasswordCost = 10

// BcryptHasher implements PasswordHasher with an adaptive bcrypt cost
type BcryptHasher struct {
	cost int
}

var _ PasswordHasher = (*BcryptHasher)(nil)

// NewBcryptHasher returns a hasher using cost, or the build default when
// cost is outside bcrypt bounds.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = passwordHashCost()
	}
	return &BcryptHasher{cost: cost}
}

// Cost returns the configured work factor
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash will generate a salted password digest
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.
			Code(CodeCredentialProcessing).
			In("password").
			With("cost", h.cost).
			Wrapf(errors.Join(ErrCredentialProcessing, err), "hash password")
	}

	return string(digest), nil
}

// HashContext hashes on a separate goroutine and gives up waiting when
// ctx is done. The hash itself is bounded by the work factor.
func (h *BcryptHasher) HashContext(ctx context.Context, password string) (string, error) {
	type result struct {
		digest string
		err    error
	}

	if err := ctx.Err(); err != nil {
		return "", oops.
			Code(CodeCredentialProcessing).
			In("password").
			Wrapf(err, "hash password cancelled")
	}

	done := make(chan result, 1)
	go func() {
		digest, err := h.Hash(password)
		done <- result{digest: digest, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", oops.
			Code(CodeCredentialProcessing).
			In("password").
			Wrapf(ctx.Err(), "hash password cancelled")
	case res := <-done:
		return res.digest, res.err
	}
}

// Compare will validate the given cleartext password matches the digest
func (h *BcryptHasher) Compare(password, hash string) error {
	return ComparePasswordAndHash(password, hash)
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}
