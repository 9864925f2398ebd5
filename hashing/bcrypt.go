package hashing

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the default bcrypt work factor. At 12 a hash takes
// roughly 250 ms on a current server CPU; raise it as hardware improves.
const DefaultBcryptCost = 12

// BcryptOptions configures a [BcryptHasher].
type BcryptOptions struct {
	// Cost is the logarithmic work factor.
	// Range: [bcrypt.MinCost (4), bcrypt.MaxCost (31)]. Default: [DefaultBcryptCost] (12).
	Cost int
}

// DefaultBcryptOptions returns BcryptOptions with [DefaultBcryptCost].
func DefaultBcryptOptions() BcryptOptions {
	return BcryptOptions{Cost: DefaultBcryptCost}
}

// BcryptHasher produces Modular Crypt Format bcrypt tokens ("$2a$12$...").
// Bcrypt generates and embeds its own 128-bit salt.
//
// # When to use bcrypt
//
// Mostly to keep verifying tokens written by other systems. New tokens
// should come from [PBKDF2Hasher] or an Argon2 driver: bcrypt has no
// memory cost, and Hash rejects secrets longer than 72 bytes.
//
// # Thread safety
//
// BcryptHasher is immutable after construction and safe for concurrent use.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns [ErrInvalidConfiguration] if Cost is out of range.
func NewBcryptHasher(opts BcryptOptions) (*BcryptHasher, error) {
	if opts.Cost < bcrypt.MinCost || opts.Cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost %d must be in [%d, %d]",
			ErrInvalidConfiguration, opts.Cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: opts.Cost}, nil
}

// Driver returns [DriverBcrypt].
func (h *BcryptHasher) Driver() DriverName { return DriverBcrypt }

// Cost returns the configured work factor.
func (h *BcryptHasher) Cost() int { return h.cost }

// Hash returns the bcrypt token for secret.
func (h *BcryptHasher) Hash(secret []byte) (string, error) {
	token, err := bcrypt.GenerateFromPassword(secret, h.cost)
	if err != nil {
		return "", fmt.Errorf("hashing: bcrypt: failed to hash secret: %w", err)
	}
	return string(token), nil
}

// Verify returns (false, nil) on mismatch.
func (h *BcryptHasher) Verify(secret []byte, token string) (bool, error) {
	if err := h.checkPrefix(token); err != nil {
		return false, err
	}
	err := bcrypt.CompareHashAndPassword([]byte(token), secret)
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: bcrypt: %v", ErrMalformedToken, err)
	}
	return true, nil
}

// NeedsRehash reports whether the cost in token differs from the
// configured cost.
func (h *BcryptHasher) NeedsRehash(token string) (bool, error) {
	cost, err := h.tokenCost(token)
	if err != nil {
		return false, err
	}
	return cost != h.cost, nil
}

// Info returns Params{"cost": int}.
func (h *BcryptHasher) Info(token string) (HashInfo, error) {
	cost, err := h.tokenCost(token)
	if err != nil {
		return HashInfo{}, err
	}
	return HashInfo{
		Driver: DriverBcrypt,
		Params: map[string]any{"cost": cost},
	}, nil
}

func (h *BcryptHasher) tokenCost(token string) (int, error) {
	if err := h.checkPrefix(token); err != nil {
		return 0, err
	}
	cost, err := bcrypt.Cost([]byte(token))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return cost, nil
}

func (h *BcryptHasher) checkPrefix(token string) error {
	if d, ok := DetectDriver(token); !ok || d != DriverBcrypt {
		return fmt.Errorf("%w: token does not appear to be bcrypt", ErrAlgorithmMismatch)
	}
	return nil
}
