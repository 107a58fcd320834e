package telemetry

import (
	"context"
	"sync"

	"github.com/aretw0/islands/pkg/core"
)

// BriefOpenObserver emits brief_open at most once per mount.
type BriefOpenObserver struct {
	observer
	locale string

	occMu sync.Mutex
	occ   *occurrence
}

// NewBriefOpenObserver creates an unmounted observer for locale.
func NewBriefOpenObserver(gate *Gate, consent core.ConsentSource, locale string) *BriefOpenObserver {
	return &BriefOpenObserver{
		observer: newObserver(core.EventBriefOpen, gate, consent),
		locale:   locale,
	}
}

// Mount starts observing with a fresh guard.
func (b *BriefOpenObserver) Mount(ctx context.Context) {
	if !b.mount(ctx) {
		return
	}
	b.occMu.Lock()
	b.occ = newOccurrence(core.BriefOpen(b.locale))
	b.occMu.Unlock()
}

// Unmount stops observing. A later Mount starts a new occurrence.
func (b *BriefOpenObserver) Unmount() {
	b.unmount()
}

// Open reports that the brief was opened.
func (b *BriefOpenObserver) Open() Outcome {
	b.occMu.Lock()
	occ := b.occ
	b.occMu.Unlock()
	if occ == nil {
		return skipped(ReasonInactive)
	}
	return b.fire(occ)
}
