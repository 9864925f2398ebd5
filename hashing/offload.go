package hashing

import (
	"bytes"
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// OffloaderOptions configures an [Offloader].
type OffloaderOptions struct {
	// Workers bounds concurrent derivations. Zero or less selects
	// runtime.GOMAXPROCS(0).
	Workers int
}

// Offloader runs a Hasher's CPU-bound work on a bounded set of goroutines
// so that request handlers can wait on a context instead of blocking.
//
// A derivation cannot be interrupted. When ctx ends first the call returns
// ctx.Err() and the derivation finishes in the background, still holding
// its worker slot; its result is discarded. Workers read a private copy of
// the secret, so callers may wipe their buffer as soon as a call returns.
type Offloader struct {
	h   Hasher
	sem *semaphore.Weighted
}

// NewOffloader wraps h.
func NewOffloader(h Hasher, opts OffloaderOptions) *Offloader {
	n := opts.Workers
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return &Offloader{h: h, sem: semaphore.NewWeighted(int64(n))}
}

type hashResult struct {
	token string
	err   error
}

type verifyResult struct {
	ok  bool
	err error
}

// Hash runs h.Hash on a worker.
func (o *Offloader) Hash(ctx context.Context, secret []byte) (string, error) {
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	secret = bytes.Clone(secret)
	done := make(chan hashResult, 1)
	go func() {
		defer o.sem.Release(1)
		token, err := o.h.Hash(secret)
		done <- hashResult{token: token, err: err}
	}()
	select {
	case r := <-done:
		return r.token, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Verify runs h.Verify on a worker.
func (o *Offloader) Verify(ctx context.Context, secret []byte, token string) (bool, error) {
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	secret = bytes.Clone(secret)
	done := make(chan verifyResult, 1)
	go func() {
		defer o.sem.Release(1)
		ok, err := o.h.Verify(secret, token)
		done <- verifyResult{ok: ok, err: err}
	}()
	select {
	case r := <-done:
		return r.ok, r.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
