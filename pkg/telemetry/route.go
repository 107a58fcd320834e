package telemetry

import (
	"context"
	"sync"

	"github.com/aretw0/islands/pkg/core"
)

// RouteObserver emits route_view when the route path genuinely changes.
// The first path it sees is the landing page and only seeds the state.
type RouteObserver struct {
	observer
	locales core.LocaleResolver

	routeMu  sync.Mutex
	seeded   bool
	lastPath string
	current  *occurrence
}

// NewRouteObserver creates an unmounted route observer.
func NewRouteObserver(gate *Gate, consent core.ConsentSource, locales core.LocaleResolver) *RouteObserver {
	r := &RouteObserver{
		observer: newObserver(core.EventRouteView, gate, consent),
		locales:  locales,
	}
	r.stale = r.superseded
	return r
}

// superseded reports whether a later navigation replaced occ. A navigation
// moves current before dropping the previous occurrence, so a denied dispatch
// settling after that drop is caught here.
func (r *RouteObserver) superseded(occ *occurrence) bool {
	r.routeMu.Lock()
	defer r.routeMu.Unlock()
	return r.current != occ
}

// Mount starts observing. Path history starts empty on every mount.
func (r *RouteObserver) Mount(ctx context.Context) {
	if !r.mount(ctx) {
		return
	}
	r.routeMu.Lock()
	r.seeded = false
	r.lastPath = ""
	r.current = nil
	r.routeMu.Unlock()
}

// Unmount stops observing.
func (r *RouteObserver) Unmount() {
	r.unmount()
}

// Observe records the path of a render.
func (r *RouteObserver) Observe(path string) Outcome {
	if !r.isActive() {
		return skipped(ReasonInactive)
	}

	r.routeMu.Lock()
	if !r.seeded {
		r.seeded = true
		r.lastPath = path
		r.routeMu.Unlock()
		return skipped(ReasonNoNavigation)
	}
	if path == r.lastPath {
		occ := r.current
		r.routeMu.Unlock()
		if occ == nil {
			return skipped(ReasonNoNavigation)
		}
		// Re-render: only a consent-blocked occurrence may still fire.
		return r.fire(occ)
	}

	locale, err := r.locales.Resolve(path)
	if err != nil {
		r.routeMu.Unlock()
		return Outcome{Status: StatusInvalid, Err: err}
	}
	prev := r.current
	occ := newOccurrence(core.RouteView(path, locale.Tag))
	r.lastPath = path
	r.current = occ
	r.routeMu.Unlock()

	if prev != nil {
		r.drop(prev)
	}
	return r.fire(occ)
}
