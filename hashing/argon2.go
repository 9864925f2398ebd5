package hashing

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	// DefaultArgon2Memory is the default memory cost in KiB (64 MiB).
	DefaultArgon2Memory uint32 = 64 * 1024
	// DefaultArgon2Time is the default number of passes.
	DefaultArgon2Time uint32 = 3
	// DefaultArgon2Threads is the default degree of parallelism.
	DefaultArgon2Threads uint8 = 2
	// DefaultArgon2KeyLen is the default derived key length in bytes.
	DefaultArgon2KeyLen uint32 = 32
	// DefaultArgon2SaltLen is the default salt length in bytes.
	DefaultArgon2SaltLen uint32 = 16
)

// MaxArgon2Memory is the largest memory cost, in KiB (1 GiB), accepted in
// options or in a stored token. Verify allocates the full memory cost, so
// tokens claiming more are rejected as malformed instead of exhausting the
// process.
const MaxArgon2Memory uint32 = 1024 * 1024

// Argon2Options configures an [Argon2Hasher].
//
// Every parameter is written into the token, so changing the options only
// affects new tokens; existing ones keep verifying with the parameters they
// carry, and [Argon2Hasher.NeedsRehash] reports them as stale.
type Argon2Options struct {
	// Memory is the memory cost in KiB.
	// Range: [8*Threads, MaxArgon2Memory]. Default: [DefaultArgon2Memory] (64 MiB).
	Memory uint32

	// Time is the number of passes over memory.
	// Minimum: 1. Default: [DefaultArgon2Time] (3).
	Time uint32

	// Threads is the degree of parallelism.
	// Minimum: 1. Default: [DefaultArgon2Threads] (2).
	Threads uint8

	// KeyLen is the derived key length in bytes.
	// Minimum: 4. Default: [DefaultArgon2KeyLen] (32).
	KeyLen uint32

	// SaltLen is the random salt length in bytes.
	// Minimum: 8. Default: [DefaultArgon2SaltLen] (16).
	SaltLen uint32
}

// DefaultArgon2Options returns Argon2Options with the package defaults.
func DefaultArgon2Options() Argon2Options {
	return Argon2Options{
		Memory:  DefaultArgon2Memory,
		Time:    DefaultArgon2Time,
		Threads: DefaultArgon2Threads,
		KeyLen:  DefaultArgon2KeyLen,
		SaltLen: DefaultArgon2SaltLen,
	}
}

func (o Argon2Options) validate() error {
	switch {
	case o.Time < 1:
		return fmt.Errorf("%w: argon2 time must be >= 1, got %d", ErrInvalidConfiguration, o.Time)
	case o.Threads < 1:
		return fmt.Errorf("%w: argon2 threads must be >= 1, got %d", ErrInvalidConfiguration, o.Threads)
	case o.Memory < 8*uint32(o.Threads):
		return fmt.Errorf("%w: argon2 memory %d KiB must be >= 8*threads (%d KiB)",
			ErrInvalidConfiguration, o.Memory, 8*uint32(o.Threads))
	case o.Memory > MaxArgon2Memory:
		return fmt.Errorf("%w: argon2 memory %d KiB exceeds %d KiB",
			ErrInvalidConfiguration, o.Memory, MaxArgon2Memory)
	case o.KeyLen < 4:
		return fmt.Errorf("%w: argon2 key_len must be >= 4, got %d", ErrInvalidConfiguration, o.KeyLen)
	case o.SaltLen < 8:
		return fmt.Errorf("%w: argon2 salt_len must be >= 8, got %d", ErrInvalidConfiguration, o.SaltLen)
	}
	return nil
}

// Argon2Hasher produces PHC-format Argon2 tokens:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>
//
// One type serves both variants; construct it with [NewArgon2iHasher] or
// [NewArgon2idHasher].
//
// # Argon2i vs Argon2id
//
// Argon2i uses data-independent memory access only. Argon2id mixes in
// data-dependent passes, which resists GPU time-memory trade-offs as well,
// and is the variant RFC 9106 recommends. Use Argon2i only to verify tokens
// already stored with it.
//
// # Thread safety
//
// Argon2Hasher is immutable after construction and safe for concurrent use.
// Each Hash or Verify allocates the token's full memory cost, so concurrent
// calls multiply peak memory; see [Offloader] to bound them.
type Argon2Hasher struct {
	variant DriverName
	opts    Argon2Options
}

// NewArgon2iHasher returns an Argon2i hasher.
func NewArgon2iHasher(opts Argon2Options) (*Argon2Hasher, error) {
	return newArgon2Hasher(DriverArgon2i, opts)
}

// NewArgon2idHasher returns an Argon2id hasher.
func NewArgon2idHasher(opts Argon2Options) (*Argon2Hasher, error) {
	return newArgon2Hasher(DriverArgon2id, opts)
}

func newArgon2Hasher(variant DriverName, opts Argon2Options) (*Argon2Hasher, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Argon2Hasher{variant: variant, opts: opts}, nil
}

// Driver returns DriverArgon2i or DriverArgon2id.
func (h *Argon2Hasher) Driver() DriverName { return h.variant }

// Options returns the configured parameters.
func (h *Argon2Hasher) Options() Argon2Options { return h.opts }

func (h *Argon2Hasher) derive(secret, salt []byte, time, memory uint32, threads uint8, keyLen uint32) []byte {
	if h.variant == DriverArgon2i {
		return argon2.Key(secret, salt, time, memory, threads, keyLen)
	}
	return argon2.IDKey(secret, salt, time, memory, threads, keyLen)
}

// Hash returns a PHC token for secret with a fresh salt.
func (h *Argon2Hasher) Hash(secret []byte) (string, error) {
	salt := make([]byte, h.opts.SaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("hashing: argon2: failed to generate salt: %w", err)
	}
	o := h.opts
	key := h.derive(secret, salt, o.Time, o.Memory, o.Threads, o.KeyLen)
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		h.variant, argon2.Version, o.Memory, o.Time, o.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify derives with the parameters stored in token, not the configured
// ones.
func (h *Argon2Hasher) Verify(secret []byte, token string) (bool, error) {
	p, err := h.parse(token)
	if err != nil {
		return false, err
	}
	computed := h.derive(secret, p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(computed, p.key) == 1, nil
}

// NeedsRehash reports whether any parameter in token differs from the
// configuration.
func (h *Argon2Hasher) NeedsRehash(token string) (bool, error) {
	p, err := h.parse(token)
	if err != nil {
		return false, err
	}
	o := h.opts
	return p.memory != o.Memory ||
		p.time != o.Time ||
		p.threads != o.Threads ||
		uint32(len(p.key)) != o.KeyLen, nil
}

// Info returns the parameters encoded in token.
func (h *Argon2Hasher) Info(token string) (HashInfo, error) {
	p, err := h.parse(token)
	if err != nil {
		return HashInfo{}, err
	}
	return HashInfo{
		Driver: h.variant,
		Params: map[string]any{
			"version": int(p.version),
			"memory":  p.memory,
			"time":    p.time,
			"threads": p.threads,
			"key_len": uint32(len(p.key)),
		},
	}, nil
}

type phcToken struct {
	version uint32
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

// parse decodes a PHC token and checks it belongs to h's variant.
func (h *Argon2Hasher) parse(token string) (*phcToken, error) {
	parts := strings.Split(token, "$")
	if len(parts) != 6 || parts[0] != "" {
		if d, ok := DetectDriver(token); ok && d != h.variant {
			return nil, fmt.Errorf("%w: token is %s, not %s", ErrAlgorithmMismatch, d, h.variant)
		}
		return nil, fmt.Errorf("%w: expected 5-segment PHC string", ErrMalformedToken)
	}
	if DriverName(parts[1]) != h.variant {
		return nil, fmt.Errorf("%w: token is %s, not %s", ErrAlgorithmMismatch, parts[1], h.variant)
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return nil, fmt.Errorf("%w: missing version segment", ErrMalformedToken)
	}
	v, err := strconv.ParseUint(version, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: version: %v", ErrMalformedToken, err)
	}

	var p phcToken
	p.version = uint32(v)
	seen := 0
	for _, kv := range strings.Split(parts[3], ",") {
		k, val, found := strings.Cut(kv, "=")
		if !found {
			return nil, fmt.Errorf("%w: malformed parameter %q", ErrMalformedToken, kv)
		}
		n, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: parameter %q: %v", ErrMalformedToken, kv, err)
		}
		switch k {
		case "m":
			if uint32(n) > MaxArgon2Memory {
				return nil, fmt.Errorf("%w: memory %d KiB exceeds %d KiB", ErrMalformedToken, n, MaxArgon2Memory)
			}
			p.memory = uint32(n)
		case "t":
			p.time = uint32(n)
		case "p":
			if n > 255 {
				return nil, fmt.Errorf("%w: parallelism %d out of range", ErrMalformedToken, n)
			}
			p.threads = uint8(n)
		default:
			continue
		}
		seen++
	}
	if seen != 3 {
		return nil, fmt.Errorf("%w: missing m/t/p in %q", ErrMalformedToken, parts[3])
	}
	// argon2 panics on zero rounds or zero lanes.
	if p.time < 1 || p.threads < 1 {
		return nil, fmt.Errorf("%w: t and p must be >= 1", ErrMalformedToken)
	}

	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrMalformedToken, err)
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("%w: key: %v", ErrMalformedToken, err)
	}
	if len(p.key) == 0 {
		return nil, fmt.Errorf("%w: empty key", ErrMalformedToken)
	}
	return &p, nil
}
