package hashing_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/hasbyte1/go-credhash/hashing"
)

// testBcryptCost keeps the suite fast; production uses DefaultBcryptCost.
const testBcryptCost = bcrypt.MinCost

func newTestBcryptHasher(t *testing.T) *hashing.BcryptHasher {
	t.Helper()
	h, err := hashing.NewBcryptHasher(hashing.BcryptOptions{Cost: testBcryptCost})
	if err != nil {
		t.Fatalf("NewBcryptHasher: %v", err)
	}
	return h
}

func TestNewBcryptHasher_Valid(t *testing.T) {
	for _, cost := range []int{bcrypt.MinCost, 10, bcrypt.MaxCost} {
		h, err := hashing.NewBcryptHasher(hashing.BcryptOptions{Cost: cost})
		if err != nil {
			t.Fatalf("cost %d: unexpected error %v", cost, err)
		}
		if h.Cost() != cost {
			t.Errorf("cost %d: got %d", cost, h.Cost())
		}
	}
}

func TestNewBcryptHasher_InvalidCost(t *testing.T) {
	for _, cost := range []int{bcrypt.MinCost - 1, -1, bcrypt.MaxCost + 1} {
		_, err := hashing.NewBcryptHasher(hashing.BcryptOptions{Cost: cost})
		if !errors.Is(err, hashing.ErrInvalidConfiguration) {
			t.Errorf("cost %d: expected ErrInvalidConfiguration, got %v", cost, err)
		}
	}
}

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	h := newTestBcryptHasher(t)
	token, err := h.Hash([]byte("hunter2"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(token, "$2") {
		t.Fatalf("token does not look like bcrypt: %q", token)
	}

	ok, err := h.Verify([]byte("hunter2"), token)
	if err != nil || !ok {
		t.Fatalf("Verify correct secret = %v, %v", ok, err)
	}
	ok, err = h.Verify([]byte("hunter3"), token)
	if err != nil || ok {
		t.Fatalf("Verify wrong secret = %v, %v", ok, err)
	}
}

func TestBcryptHasher_UniqueTokens(t *testing.T) {
	h := newTestBcryptHasher(t)
	t1, _ := h.Hash([]byte("same"))
	t2, _ := h.Hash([]byte("same"))
	if t1 == t2 {
		t.Error("two Hash calls with the same secret produced the same token")
	}
}

func TestBcryptHasher_RejectsLongSecret(t *testing.T) {
	h := newTestBcryptHasher(t)
	if _, err := h.Hash(bytes.Repeat([]byte("a"), 73)); err == nil {
		t.Error("expected error for secret longer than 72 bytes")
	}
}

func TestBcryptHasher_ForeignToken(t *testing.T) {
	h := newTestBcryptHasher(t)
	for _, token := range []string{"not-a-token", "$31$4$AAAA", "$argon2id$v=19$m=8,t=1,p=1$a$b"} {
		if _, err := h.Verify([]byte("pw"), token); !errors.Is(err, hashing.ErrAlgorithmMismatch) {
			t.Errorf("%q: expected ErrAlgorithmMismatch, got %v", token, err)
		}
	}
}

func TestBcryptHasher_TruncatedToken(t *testing.T) {
	h := newTestBcryptHasher(t)
	token, _ := h.Hash([]byte("pw"))
	_, err := h.Verify([]byte("pw"), token[:20])
	if !errors.Is(err, hashing.ErrMalformedToken) {
		t.Errorf("expected ErrMalformedToken, got %v", err)
	}
}

func TestBcryptHasher_NeedsRehash(t *testing.T) {
	low := newTestBcryptHasher(t)
	high, _ := hashing.NewBcryptHasher(hashing.BcryptOptions{Cost: testBcryptCost + 1})
	token, _ := low.Hash([]byte("pw"))

	if needs, err := low.NeedsRehash(token); err != nil || needs {
		t.Errorf("same cost: NeedsRehash = %v, %v", needs, err)
	}
	if needs, err := high.NeedsRehash(token); err != nil || !needs {
		t.Errorf("different cost: NeedsRehash = %v, %v", needs, err)
	}
}

func TestBcryptHasher_Info(t *testing.T) {
	h := newTestBcryptHasher(t)
	token, _ := h.Hash([]byte("pw"))
	info, err := h.Info(token)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Driver != hashing.DriverBcrypt {
		t.Errorf("Driver = %q", info.Driver)
	}
	if cost, _ := info.Params["cost"].(int); cost != testBcryptCost {
		t.Errorf("cost = %v, want %d", info.Params["cost"], testBcryptCost)
	}
}

func TestBcryptHasher_SatisfiesHasherInterface(t *testing.T) {
	var _ hashing.Hasher = newTestBcryptHasher(t)
}
