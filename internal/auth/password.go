package auth

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

const DefaultCost = 10

// ErrPasswordTooLong mirrors the bcrypt input limit of 72 bytes.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// Hasher runs bcrypt with a fixed cost and bounds how many hashes run at once.
type Hasher struct {
	cost    int
	sem     *semaphore.Weighted
	observe func(time.Duration)

	dummyOnce sync.Once
	dummy     []byte
}

// NewHasher validates cost and caps concurrent bcrypt work at concurrency
// (GOMAXPROCS when <= 0).
func NewHasher(cost, concurrency int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Hasher{cost: cost, sem: semaphore.NewWeighted(int64(concurrency))}, nil
}

func (h *Hasher) Cost() int { return h.cost }

// OnHash registers a callback receiving the duration of every bcrypt call.
func (h *Hasher) OnHash(fn func(time.Duration)) { h.observe = fn }

// Hash returns a salted bcrypt hash of password.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	var out []byte
	err := h.run(ctx, func() error {
		var err error
		out, err = bcrypt.GenerateFromPassword([]byte(password), h.cost)
		return err
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Compare reports whether password matches hash. A mismatch is not an error.
func (h *Hasher) Compare(ctx context.Context, hash, password string) (bool, error) {
	if hash == "" {
		return false, errors.New("password hash is empty")
	}
	err := h.run(ctx, func() error {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// CompareDummy spends one comparison against a fixed hash so that lookups of
// unknown accounts take as long as wrong passwords.
func (h *Hasher) CompareDummy(ctx context.Context, password string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), h.cost)
	})
	_ = h.run(ctx, func() error {
		return bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
	})
}

func (h *Hasher) run(ctx context.Context, fn func() error) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer h.sem.Release(1)
	start := time.Now()
	err := fn()
	if h.observe != nil {
		h.observe(time.Since(start))
	}
	return err
}

// ValidateHash checks that s is a well-formed bcrypt hash.
func ValidateHash(s string) error {
	if _, err := bcrypt.Cost([]byte(s)); err != nil {
		return fmt.Errorf("not a bcrypt hash: %w", err)
	}
	return nil
}
