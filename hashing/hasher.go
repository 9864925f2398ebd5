package hashing

import "strings"

// DriverName identifies a hashing algorithm driver.
type DriverName string

const (
	// DriverPBKDF2 selects the PBKDF2 credential token driver ($31$ tokens).
	DriverPBKDF2 DriverName = "pbkdf2"
	// DriverBcrypt selects the bcrypt driver.
	DriverBcrypt DriverName = "bcrypt"
	// DriverArgon2i selects the Argon2i driver.
	DriverArgon2i DriverName = "argon2i"
	// DriverArgon2id selects the Argon2id driver.
	DriverArgon2id DriverName = "argon2id"
)

// Hasher turns secrets into self-describing tokens and verifies secrets
// against them.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Hasher interface {
	// Hash derives a token from secret. A fresh salt is drawn for every
	// call, so hashing the same secret twice yields different tokens.
	Hash(secret []byte) (string, error)

	// Verify reports whether secret matches token. A mismatch is
	// (false, nil); an error means the token could not be parsed.
	Verify(secret []byte, token string) (bool, error)

	// NeedsRehash reports whether token was produced with parameters that
	// differ from the hasher's current configuration.
	NeedsRehash(token string) (bool, error)

	// Info extracts the parameters encoded in token without verifying it.
	Info(token string) (HashInfo, error)

	// Driver returns the DriverName implemented by this hasher.
	Driver() DriverName
}

// HashInfo carries metadata parsed from a token.
//
// Params keys per driver:
//
//	pbkdf2:   "version" string, "cost" int, "iterations" int, "key_len" int
//	bcrypt:   "cost" int
//	argon2*:  "version" int, "memory" uint32, "time" uint32,
//	          "threads" uint8, "key_len" uint32
type HashInfo struct {
	Driver DriverName
	Params map[string]any
}

// DetectDriver inspects the prefix of token and returns the driver that
// produced it. It does not validate the rest of the token.
func DetectDriver(token string) (DriverName, bool) {
	if _, ok := ParseFormatVersion(token); ok {
		return DriverPBKDF2, true
	}
	switch {
	case strings.HasPrefix(token, "$argon2id$"):
		return DriverArgon2id, true
	case strings.HasPrefix(token, "$argon2i$"):
		return DriverArgon2i, true
	case strings.HasPrefix(token, "$2a$"),
		strings.HasPrefix(token, "$2b$"),
		strings.HasPrefix(token, "$2y$"):
		return DriverBcrypt, true
	default:
		return "", false
	}
}
