// Package hashing turns secrets into durable, self-describing credential
// tokens and verifies presented secrets against them.
//
// # Tokens
//
// The primary driver is [PBKDF2Hasher], which writes tokens of the form
//
//	$31$<cost>$<base64url-nopad(salt ‖ key)>
//
// The 16-byte salt is drawn fresh from crypto/rand for every call and the
// 16-byte key is PBKDF2-HMAC-SHA1 over 2^cost iterations. Cost lives in the
// token as a decimal exponent, so raising the configured cost only affects
// new tokens; existing ones keep verifying at the cost they were made with.
// The "31" tag is a [FormatVersion]; new derivation variants get new tags.
//
// Verification re-derives the key and compares it in constant time. A wrong
// secret is (false, nil). A token that does not parse is
// [ErrMalformedToken]. An out-of-range cost at construction is
// [ErrInvalidConfiguration].
//
// # Drivers and the Manager
//
// Every driver implements [Hasher]. Bcrypt and Argon2 drivers are included
// for stores being migrated. [Manager] keeps a registry of drivers, detects
// the producing driver from a token prefix and reports when a token should
// be rehashed:
//
//	m, err := hashing.NewDefaultManager(hashing.WithLogger(logger))
//	if err != nil { return err }
//
//	token, _ := m.Hash(secret)
//	ok, err := m.VerifyWithDetect(secret, token)
//	if ok {
//	    if stale, _ := m.NeedsRehash(token); stale {
//	        token, _ = m.Hash(secret)
//	    }
//	}
//
// # Concurrency
//
// All drivers are immutable after construction. Derivation is CPU-bound and
// can take tens of milliseconds at high cost; [Offloader] runs it on a
// bounded set of goroutines and lets callers give up via a context.
package hashing
