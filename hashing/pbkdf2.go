package hashing

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultPBKDF2Cost is the default work factor: 2^16 = 65536 iterations.
	DefaultPBKDF2Cost = 16

	// MinPBKDF2Cost and MaxPBKDF2Cost bound the work factor. The upper
	// bound means at most 2^30 iterations.
	MinPBKDF2Cost = 0
	MaxPBKDF2Cost = 30
)

// PBKDF2Options configures a [PBKDF2Hasher].
type PBKDF2Options struct {
	// Cost is the base-2 logarithm of the iteration count, in
	// [MinPBKDF2Cost, MaxPBKDF2Cost]. Default: [DefaultPBKDF2Cost].
	Cost int

	// Rand is the source of salt bytes. Nil selects crypto/rand.Reader.
	// Any other reader is read under a mutex, so it need not be safe for
	// concurrent use; it must still be a cryptographic source.
	Rand io.Reader
}

// DefaultPBKDF2Options returns PBKDF2Options with [DefaultPBKDF2Cost].
func DefaultPBKDF2Options() PBKDF2Options {
	return PBKDF2Options{Cost: DefaultPBKDF2Cost}
}

// PBKDF2Hasher produces and verifies $31$ credential tokens:
//
//	$31$<cost>$<base64url-nopad(salt ‖ key)>
//
// where key = PBKDF2-HMAC-SHA1(secret, salt, 2^cost, 16 bytes) and salt is
// 16 fresh random bytes. The cost is stored in the token, so Verify works
// against tokens created under any earlier configuration.
//
// PBKDF2Hasher is immutable after construction and safe for concurrent use.
type PBKDF2Hasher struct {
	cost    int
	version FormatVersion

	rand   io.Reader
	randMu *sync.Mutex // nil when rand is crypto/rand.Reader
}

// NewPBKDF2Hasher constructs a PBKDF2Hasher. It returns
// [ErrInvalidConfiguration] if Cost is outside [0, 30].
func NewPBKDF2Hasher(opts PBKDF2Options) (*PBKDF2Hasher, error) {
	if _, err := iterations(opts.Cost); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	h := &PBKDF2Hasher{
		cost:    opts.Cost,
		version: DefaultFormat,
		rand:    rand.Reader,
	}
	if opts.Rand != nil {
		h.rand = opts.Rand
		h.randMu = new(sync.Mutex)
	}
	return h, nil
}

// iterations maps a cost to its iteration count.
func iterations(cost int) (int, error) {
	if cost < MinPBKDF2Cost || cost > MaxPBKDF2Cost {
		return 0, fmt.Errorf("pbkdf2 cost %d must be in [%d, %d]", cost, MinPBKDF2Cost, MaxPBKDF2Cost)
	}
	return 1 << cost, nil
}

// Driver returns [DriverPBKDF2].
func (h *PBKDF2Hasher) Driver() DriverName { return DriverPBKDF2 }

// Cost returns the configured work factor.
func (h *PBKDF2Hasher) Cost() int { return h.cost }

// Hash derives a token from secret using the configured cost.
func (h *PBKDF2Hasher) Hash(secret []byte) (string, error) {
	spec := h.version.spec()
	salt, err := h.salt(spec.saltSize)
	if err != nil {
		return "", err
	}
	key := pbkdf2.Key(secret, salt, 1<<h.cost, spec.keySize, spec.prf)

	payload := make([]byte, 0, len(salt)+len(key))
	payload = append(payload, salt...)
	payload = append(payload, key...)

	var b strings.Builder
	b.WriteString(h.version.Prefix())
	b.WriteString(strconv.Itoa(h.cost))
	b.WriteByte('$')
	b.WriteString(base64.RawURLEncoding.EncodeToString(payload))
	return b.String(), nil
}

func (h *PBKDF2Hasher) salt(n int) ([]byte, error) {
	salt := make([]byte, n)
	if h.randMu != nil {
		h.randMu.Lock()
		defer h.randMu.Unlock()
	}
	if _, err := io.ReadFull(h.rand, salt); err != nil {
		return nil, fmt.Errorf("hashing: pbkdf2: failed to generate salt: %w", err)
	}
	return salt, nil
}

// Verify reports whether secret matches token. The cost is taken from the
// token, not from the hasher's configuration. A mismatch returns
// (false, nil); a token that does not parse returns [ErrMalformedToken].
func (h *PBKDF2Hasher) Verify(secret []byte, token string) (bool, error) {
	t, err := parsePBKDF2Token(token)
	if err != nil {
		return false, err
	}
	spec := t.version.spec()
	candidate := pbkdf2.Key(secret, t.salt, 1<<t.cost, len(t.key), spec.prf)
	return constantTimeEqual(bytesView(t.key), bytesView(candidate)), nil
}

// NeedsRehash reports whether token's cost or format version differ from
// the hasher's configuration.
func (h *PBKDF2Hasher) NeedsRehash(token string) (bool, error) {
	t, err := parsePBKDF2Token(token)
	if err != nil {
		return false, err
	}
	return t.cost != h.cost || t.version != h.version, nil
}

// Info returns the parameters encoded in token.
func (h *PBKDF2Hasher) Info(token string) (HashInfo, error) {
	t, err := parsePBKDF2Token(token)
	if err != nil {
		return HashInfo{}, err
	}
	return HashInfo{
		Driver: DriverPBKDF2,
		Params: map[string]any{
			"version":    string(t.version),
			"cost":       t.cost,
			"iterations": 1 << t.cost,
			"key_len":    len(t.key),
		},
	}, nil
}

type pbkdf2Token struct {
	version FormatVersion
	cost    int
	salt    []byte
	key     []byte
}

// parsePBKDF2Token splits token into its version, cost, salt and key.
func parsePBKDF2Token(token string) (*pbkdf2Token, error) {
	version, ok := ParseFormatVersion(token)
	if !ok {
		if d, known := DetectDriver(token); known {
			return nil, fmt.Errorf("%w: %w: token is %s, not pbkdf2", ErrMalformedToken, ErrAlgorithmMismatch, d)
		}
		return nil, fmt.Errorf("%w: unrecognised prefix", ErrMalformedToken)
	}
	spec := version.spec()
	rest := token[len(version.Prefix()):]

	sep := strings.IndexByte(rest, '$')
	if sep < 1 || sep > 2 {
		return nil, fmt.Errorf("%w: cost must be one or two digits", ErrMalformedToken)
	}
	digits, payload := rest[:sep], rest[sep+1:]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return nil, fmt.Errorf("%w: non-numeric cost %q", ErrMalformedToken, digits)
		}
	}
	cost, err := strconv.Atoi(digits)
	if err != nil {
		return nil, fmt.Errorf("%w: non-numeric cost %q", ErrMalformedToken, digits)
	}
	if _, err := iterations(cost); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if len(payload) < spec.minPayload {
		return nil, fmt.Errorf("%w: payload has %d characters, want at least %d",
			ErrMalformedToken, len(payload), spec.minPayload)
	}
	// The decoder skips CR and LF, so the alphabet is checked first.
	if !isBase64URL(payload) {
		return nil, fmt.Errorf("%w: payload contains characters outside base64url", ErrMalformedToken)
	}
	raw, err := base64.RawURLEncoding.Strict().DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 payload: %v", ErrMalformedToken, err)
	}
	if len(raw) <= spec.saltSize {
		return nil, fmt.Errorf("%w: payload shorter than salt", ErrMalformedToken)
	}

	return &pbkdf2Token{
		version: version,
		cost:    cost,
		salt:    raw[:spec.saltSize],
		key:     raw[spec.saltSize:],
	}, nil
}

func isBase64URL(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
