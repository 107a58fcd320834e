package core

import "context"

// ConsentSource holds the current consent decision.
// Current returns nil while the user has not decided.
type ConsentSource interface {
	Current() *ConsentSnapshot

	// Subscribe registers fn for every new snapshot. The returned function
	// removes the subscription and is safe to call more than once.
	Subscribe(fn func(*ConsentSnapshot)) (unsubscribe func())
}

// Transport delivers telemetry events. Batching and retry are its concern.
// Send runs on the caller's path and must not wait on the network.
type Transport interface {
	Send(ctx context.Context, eventName string, payload map[string]string) error
}

// InteractiveSignal is the host notification that fires once the critical
// shell has painted and non-critical script may run. Hosts may fire it more
// than once (re-hydration); listeners are expected to cope.
type InteractiveSignal interface {
	OnInteractive(fn func()) (cancel func())
}

// LocaleResolver maps a route to its resolved locale.
type LocaleResolver interface {
	Resolve(route string) (Locale, error)
}

// MediaQueries exposes host media query state, e.g. "(prefers-reduced-motion: reduce)".
type MediaQueries interface {
	Matches(query string) bool

	// Watch registers fn for changes of the query result.
	Watch(query string, fn func(matches bool)) (cancel func())
}

// ScrollSource exposes the vertical scroll offset of the document.
// Listeners are passive: they observe and never block scrolling.
type ScrollSource interface {
	Offset() float64
	OnScroll(fn func()) (cancel func())
}

// AttributeStore is the document-level attribute set (the <html> element).
type AttributeStore interface {
	Attribute(name string) (string, bool)
	SetAttribute(name, value string)
	RemoveAttribute(name string)
}

// Media queries consumed by the coordinator.
const (
	QueryReducedMotion = "(prefers-reduced-motion: reduce)"
	QueryDarkScheme    = "(prefers-color-scheme: dark)"
)

// LocaleResolverFunc adapts a function to LocaleResolver.
type LocaleResolverFunc func(route string) (Locale, error)

// Resolve implements LocaleResolver.
func (f LocaleResolverFunc) Resolve(route string) (Locale, error) { return f(route) }
