package memory

import (
	"sync"

	"github.com/aretw0/islands/pkg/core"
)

// Consent is an in-memory core.ConsentSource.
type Consent struct {
	mu      sync.RWMutex
	current *core.ConsentSnapshot
	subs    listeners[*core.ConsentSnapshot]
}

// NewConsent returns a source holding initial (nil means undecided).
func NewConsent(initial *core.ConsentSnapshot) *Consent {
	return &Consent{current: initial}
}

// Current implements core.ConsentSource.
func (c *Consent) Current() *core.ConsentSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Subscribe implements core.ConsentSource.
func (c *Consent) Subscribe(fn func(*core.ConsentSnapshot)) func() {
	return c.subs.add(fn)
}

// Decide records a new decision and notifies subscribers.
func (c *Consent) Decide(allowed bool) *core.ConsentSnapshot {
	snap := &core.ConsentSnapshot{AnalyticsAllowed: allowed}
	c.Publish(snap)
	return snap
}

// Publish replaces the current snapshot and notifies subscribers.
func (c *Consent) Publish(snap *core.ConsentSnapshot) {
	c.mu.Lock()
	c.current = snap
	c.mu.Unlock()
	c.subs.emit(snap)
}

// Subscribers returns the number of live subscriptions.
func (c *Consent) Subscribers() int {
	return c.subs.len()
}

var _ core.ConsentSource = (*Consent)(nil)
