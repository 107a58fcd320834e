package telemetry

import "github.com/aretw0/introspection"

// GateState exposes gate counters for observability.
type GateState struct {
	Dispatched      int64 `json:"dispatched"`
	AlreadyFired    int64 `json:"already_fired"`
	ConsentDenied   int64 `json:"consent_denied"`
	Invalid         int64 `json:"invalid"`
	TransportErrors int64 `json:"transport_errors"`
}

// State implements introspection.Introspectable.
func (g *Gate) State() any {
	return GateState{
		Dispatched:      g.dispatched.Load(),
		AlreadyFired:    g.alreadyFired.Load(),
		ConsentDenied:   g.consentDenied.Load(),
		Invalid:         g.invalid.Load(),
		TransportErrors: g.transportErrors.Load(),
	}
}

// ComponentType implements introspection.Component.
func (g *Gate) ComponentType() string {
	return "telemetry-gate"
}

// ObserverState exposes an observer's mount status.
type ObserverState struct {
	Event   string `json:"event"`
	Active  bool   `json:"active"`
	Pending int    `json:"pending"`
}

func (o *observer) state() ObserverState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return ObserverState{
		Event:   string(o.kind),
		Active:  o.active,
		Pending: len(o.pending),
	}
}

// State implements introspection.Introspectable.
func (o *observer) State() any { return o.state() }

// ComponentType implements introspection.Component.
func (o *observer) ComponentType() string {
	return "telemetry-observer"
}

var _ introspection.Introspectable = (*Gate)(nil)
var _ introspection.Component = (*Gate)(nil)
var _ introspection.Introspectable = (*RouteObserver)(nil)
var _ introspection.Component = (*BriefOpenObserver)(nil)
