package memory

import (
	"sync/atomic"

	"github.com/aretw0/islands/pkg/core"
)

// Signal is a manually fired core.InteractiveSignal. Once fired it stays
// interactive: later listeners are called synchronously on registration and
// remain registered for repeated fires.
type Signal struct {
	subs  listeners[struct{}]
	fired atomic.Bool
}

// NewSignal returns an unfired signal.
func NewSignal() *Signal {
	return &Signal{}
}

// OnInteractive implements core.InteractiveSignal.
func (s *Signal) OnInteractive(fn func()) func() {
	cancel := s.subs.add(func(struct{}) { fn() })
	if s.fired.Load() {
		fn()
	}
	return cancel
}

// Fire notifies every listener. It may be called repeatedly to mimic re-hydration.
func (s *Signal) Fire() {
	s.fired.Store(true)
	s.subs.emit(struct{}{})
}

// Interactive reports whether Fire was called.
func (s *Signal) Interactive() bool {
	return s.fired.Load()
}

// Listeners returns the number of registered listeners.
func (s *Signal) Listeners() int {
	return s.subs.len()
}

var _ core.InteractiveSignal = (*Signal)(nil)
