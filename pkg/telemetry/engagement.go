package telemetry

import (
	"context"
	"sync"

	"github.com/aretw0/islands/pkg/core"
)

// EngagementObserver emits case_study_engagement at most once per slug per mount.
type EngagementObserver struct {
	observer
	locale string

	occMu sync.Mutex
	occs  map[string]*occurrence
}

// NewEngagementObserver creates an unmounted observer for locale.
func NewEngagementObserver(gate *Gate, consent core.ConsentSource, locale string) *EngagementObserver {
	return &EngagementObserver{
		observer: newObserver(core.EventCaseStudyEngagement, gate, consent),
		locale:   locale,
	}
}

// Mount starts observing with no slug seen.
func (e *EngagementObserver) Mount(ctx context.Context) {
	if !e.mount(ctx) {
		return
	}
	e.occMu.Lock()
	e.occs = make(map[string]*occurrence)
	e.occMu.Unlock()
}

// Unmount stops observing.
func (e *EngagementObserver) Unmount() {
	e.unmount()
}

// Engage reports engagement with the case study identified by slug.
func (e *EngagementObserver) Engage(slug string) Outcome {
	if !e.isActive() {
		return skipped(ReasonInactive)
	}

	e.occMu.Lock()
	occ, ok := e.occs[slug]
	if !ok {
		occ = newOccurrence(core.CaseStudyEngagement(slug, e.locale))
		e.occs[slug] = occ
	}
	e.occMu.Unlock()

	return e.fire(occ)
}
