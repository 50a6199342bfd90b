// Package throttle enforces the agency login lockout policy: five failed
// attempts lock the mobile number out for 24 hours, with warning messages on
// the third and fourth failure. The policy wording matches the login form.
package throttle

import (
	"context"
	"errors"
	"time"
)

// Lockout policy constants.
const (
	MaxAttempts     = 5
	LockoutDuration = 24 * time.Hour
)

// User-facing messages, wording fixed by the login form contract.
const (
	MsgInvalid    = "Invalid credentials!"
	MsgTwoChances = "Warning: Last 2 chances left before account is blocked for 24 hours."
	MsgLastChance = "Warning: Last chance left before account is blocked for 24 hours."
	MsgBlocked    = "Too many failed attempts. Login is blocked for 24 hours."
)

// ErrBlocked is returned by Check while a lockout is active.
var ErrBlocked = errors.New("login blocked")

// Store persists attempt counters and lockout deadlines per key.
type Store interface {
	// Incr increments and returns the failure count for key, refreshing its
	// expiry to LockoutDuration.
	Incr(ctx context.Context, key string) (int, error)
	// Block records a lockout for key until the given time.
	Block(ctx context.Context, key string, until time.Time) error
	// BlockedUntil returns the active lockout deadline, if any.
	BlockedUntil(ctx context.Context, key string) (time.Time, bool, error)
	// Clear removes both the counter and any lockout for key.
	Clear(ctx context.Context, key string) error
}

// Limiter applies the lockout policy on top of a Store.
type Limiter struct {
	store Store
	now   func() time.Time
}

// NewLimiter returns a Limiter backed by store.
func NewLimiter(store Store) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// Check returns ErrBlocked when key is locked out. Called on every login
// submission before credentials are even looked at.
func (l *Limiter) Check(ctx context.Context, key string) error {
	until, blocked, err := l.store.BlockedUntil(ctx, key)
	if err != nil {
		return err
	}
	if blocked && l.now().Before(until) {
		return ErrBlocked
	}
	return nil
}

// Fail records a failed attempt and returns the message to surface plus
// whether the failure tripped the lockout.
func (l *Limiter) Fail(ctx context.Context, key string) (string, bool, error) {
	attempts, err := l.store.Incr(ctx, key)
	if err != nil {
		return MsgInvalid, false, err
	}
	switch {
	case attempts >= MaxAttempts:
		if err := l.store.Block(ctx, key, l.now().Add(LockoutDuration)); err != nil {
			return MsgBlocked, true, err
		}
		return MsgBlocked, true, nil
	case attempts == MaxAttempts-1:
		return MsgLastChance, false, nil
	case attempts == MaxAttempts-2:
		return MsgTwoChances, false, nil
	default:
		return MsgInvalid, false, nil
	}
}

// Reset clears all throttle state for key after a successful login.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.store.Clear(ctx, key)
}
