package hashing

import (
	"crypto/sha1"
	"hash"
	"strings"
)

// FormatVersion tags the layout and derivation parameters of a PBKDF2
// credential token. The token prefix is the version surrounded by '$'.
type FormatVersion string

const (
	// FormatV31 is PBKDF2-HMAC-SHA1 with a 128-bit salt and 128-bit key:
	//
	//	$31$<cost>$<base64url(salt ‖ key)>
	FormatV31 FormatVersion = "31"
)

// DefaultFormat is the version written by [PBKDF2Hasher.Hash].
const DefaultFormat = FormatV31

// formatSpec holds the per-version derivation parameters.
type formatSpec struct {
	prf      func() hash.Hash
	saltSize int
	keySize  int
	// minPayload is the minimum number of base64 characters after the
	// cost separator.
	minPayload int
}

var formats = map[FormatVersion]formatSpec{
	FormatV31: {
		prf:        sha1.New,
		saltSize:   16,
		keySize:    16,
		minPayload: 43,
	},
}

// Prefix returns the literal token prefix for v, e.g. "$31$".
func (v FormatVersion) Prefix() string {
	return "$" + string(v) + "$"
}

// Supported reports whether v is a known format version.
func (v FormatVersion) Supported() bool {
	_, ok := formats[v]
	return ok
}

func (v FormatVersion) spec() formatSpec {
	return formats[v]
}

// ParseFormatVersion returns the format version whose prefix token starts
// with. Only the prefix is inspected.
func ParseFormatVersion(token string) (FormatVersion, bool) {
	if !strings.HasPrefix(token, "$") {
		return "", false
	}
	end := strings.IndexByte(token[1:], '$')
	if end < 0 {
		return "", false
	}
	v := FormatVersion(token[1 : end+1])
	if !v.Supported() {
		return "", false
	}
	return v, true
}
