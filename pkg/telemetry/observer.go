package telemetry

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/islands/pkg/core"
)

// occurrence is one semantic event together with the guard that owns it.
type occurrence struct {
	event core.TelemetryEvent
	guard *core.FireGuard
}

func newOccurrence(event core.TelemetryEvent) *occurrence {
	return &occurrence{event: event, guard: core.NewFireGuard()}
}

// observer is the mount-scoped part shared by all telemetry observers.
// Occurrences skipped for lack of consent stay pending and are retried when
// the consent source publishes a grant while the observer is mounted.
type observer struct {
	kind    core.EventName
	gate    *Gate
	consent core.ConsentSource
	// stale reports occurrences superseded while their dispatch was in
	// flight. Called with mu held.
	stale func(*occurrence) bool

	mu          sync.Mutex
	ctx         context.Context
	active      bool
	pending     []*occurrence
	unsubscribe func()
}

func newObserver(kind core.EventName, gate *Gate, consent core.ConsentSource) observer {
	return observer{kind: kind, gate: gate, consent: consent}
}

// mount activates the observer. It reports false when it was already mounted.
func (o *observer) mount(ctx context.Context) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active {
		return false
	}
	o.ctx = ctx
	o.active = true
	o.pending = nil
	if o.consent != nil {
		o.unsubscribe = o.consent.Subscribe(o.onConsent)
	}
	return true
}

// unmount deactivates the observer and drops its subscription.
func (o *observer) unmount() {
	o.mu.Lock()
	unsubscribe := o.unsubscribe
	o.unsubscribe = nil
	o.active = false
	o.pending = nil
	o.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (o *observer) isActive() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

func (o *observer) currentConsent() *core.ConsentSnapshot {
	if o.consent == nil {
		return nil
	}
	return o.consent.Current()
}

// fire runs occ through the gate with the current consent snapshot.
func (o *observer) fire(occ *occurrence) Outcome {
	o.mu.Lock()
	if !o.active {
		o.mu.Unlock()
		return skipped(ReasonInactive)
	}
	ctx := o.ctx
	o.mu.Unlock()

	out := o.gate.TryDispatch(ctx, occ.event, occ.guard, o.currentConsent())
	o.settle(occ, out)
	return out
}

// settle keeps occ pending only while consent is what blocks it.
func (o *observer) settle(occ *occurrence, out Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.active {
		return
	}
	idx := slices.Index(o.pending, occ)
	switch {
	case out.Reason == ReasonConsentDenied && idx < 0:
		if o.stale != nil && o.stale(occ) {
			return
		}
		o.pending = append(o.pending, occ)
	case out.Reason != ReasonConsentDenied && idx >= 0:
		o.pending = slices.Delete(o.pending, idx, idx+1)
	}
}

// drop forgets a pending occurrence that is no longer relevant.
func (o *observer) drop(occ *occurrence) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if idx := slices.Index(o.pending, occ); idx >= 0 {
		o.pending = slices.Delete(o.pending, idx, idx+1)
	}
}

func (o *observer) onConsent(snap *core.ConsentSnapshot) {
	if !core.AnalyticsAllowed(snap) {
		return
	}

	o.mu.Lock()
	if !o.active {
		o.mu.Unlock()
		return
	}
	ctx := o.ctx
	retry := slices.Clone(o.pending)
	o.mu.Unlock()

	for _, occ := range retry {
		out := o.gate.TryDispatch(ctx, occ.event, occ.guard, snap)
		o.settle(occ, out)
	}
}
