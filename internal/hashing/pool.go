// Package hashing runs bcrypt hashing and verification inside a bounded
// pool so that CPU-bound work never exceeds a fixed parallelism.
package hashing

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 12

// Pool hashes and compares passwords with bcrypt, admitting at most
// size concurrent operations.
type Pool struct {
	cost int
	sem  *semaphore.Weighted
}

// NewPool creates a Pool. A non-positive size defaults to runtime.NumCPU()
// and a cost outside bcrypt's range defaults to DefaultCost.
func NewPool(cost, size int) *Pool {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &Pool{cost: cost, sem: semaphore.NewWeighted(int64(size))}
}

// Cost returns the configured bcrypt work factor.
func (p *Pool) Cost() int {
	return p.cost
}

// Hash returns a salted bcrypt hash of plaintext. It blocks until a slot
// is free or ctx is done.
func (p *Pool) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire hashing slot: %w", err)
	}
	defer p.sem.Release(1)

	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("generate hash: %w", err)
	}
	return string(h), nil
}

// Compare reports whether plaintext matches hash using bcrypt's
// constant-time comparator. A mismatch yields (false, nil); a hash that
// cannot be parsed yields (false, err).
func (p *Pool) Compare(ctx context.Context, plaintext, hash string) (bool, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("acquire hashing slot: %w", err)
	}
	defer p.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("compare hash: %w", err)
	}
}
