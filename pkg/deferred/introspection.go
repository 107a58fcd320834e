package deferred

import "github.com/aretw0/introspection"

// ActivatorState exposes the activator for observability.
type ActivatorState struct {
	Status                  Status `json:"status"`
	InitialAnalyticsConsent bool   `json:"initial_analytics_consent"`
	Listening               bool   `json:"listening"`
}

// State implements introspection.Introspectable.
func (a *Activator) State() any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return ActivatorState{
		Status:                  a.status,
		InitialAnalyticsConsent: a.consent,
		Listening:               a.cancel != nil,
	}
}

// ComponentType implements introspection.Component.
func (a *Activator) ComponentType() string {
	return "deferred-activator"
}

// LoaderState exposes which islands the loader started.
type LoaderState struct {
	Registered  int      `json:"registered"`
	BundleBytes int      `json:"bundle_bytes"`
	Activated   []string `json:"activated,omitempty"`
	Skipped     []string `json:"skipped,omitempty"`
}

// State implements introspection.Introspectable.
func (l *Loader) State() any {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LoaderState{
		Registered:  len(l.islands),
		BundleBytes: l.bundle,
		Activated:   append([]string(nil), l.activated...),
		Skipped:     append([]string(nil), l.skipped...),
	}
}

// ComponentType implements introspection.Component.
func (l *Loader) ComponentType() string {
	return "deferred-loader"
}

var _ introspection.Introspectable = (*Activator)(nil)
var _ introspection.Component = (*Activator)(nil)
var _ introspection.Introspectable = (*Loader)(nil)
var _ introspection.Component = (*Loader)(nil)
