package hashing

import "errors"

// Sentinel errors returned by hashing operations. Compare with [errors.Is]:
//
//	ok, err := h.Verify(secret, token)
//	if errors.Is(err, hashing.ErrMalformedToken) {
//	    // stored token is corrupt
//	}
var (
	// ErrInvalidConfiguration is returned by constructors when an option is
	// outside its allowed range, e.g. a PBKDF2 cost outside [0, 30].
	ErrInvalidConfiguration = errors.New("hashing: invalid configuration")

	// ErrMalformedToken is returned when a token does not match the layout
	// of the driver asked to parse it.
	ErrMalformedToken = errors.New("hashing: malformed token")

	// ErrAlgorithmMismatch is returned when a token was produced by a
	// different driver than the one asked to parse it.
	ErrAlgorithmMismatch = errors.New("hashing: token was produced by a different algorithm")

	// ErrDriverNotFound is returned by the Manager when a driver is not
	// registered.
	ErrDriverNotFound = errors.New("hashing: driver not found")

	// ErrEmptyDriverName is returned by [Manager.RegisterDriver] for "".
	ErrEmptyDriverName = errors.New("hashing: driver name must not be empty")

	// ErrNilHasher is returned by [Manager.RegisterDriver] for a nil Hasher.
	ErrNilHasher = errors.New("hashing: hasher must not be nil")
)
