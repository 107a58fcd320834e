package core

import "sync/atomic"

// FireGuard is a one-shot latch owned by a single observer instance.
// It moves from unlatched to latched exactly once and never resets.
// The zero value is an unlatched guard.
type FireGuard struct {
	latched atomic.Bool
}

// NewFireGuard returns a fresh unlatched guard.
func NewFireGuard() *FireGuard {
	return &FireGuard{}
}

// Latched reports whether the guard has fired.
func (g *FireGuard) Latched() bool {
	return g.latched.Load()
}

// Latch flips the guard. Only the first caller gets true.
func (g *FireGuard) Latch() bool {
	return g.latched.CompareAndSwap(false, true)
}
