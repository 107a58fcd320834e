package scroll

import "github.com/aretw0/introspection"

// ObserverState exposes the scroll observer for observability.
type ObserverState struct {
	State       string  `json:"state"`
	Running     bool    `json:"running"`
	Threshold   float64 `json:"threshold"`
	Transitions int     `json:"transitions"`
}

// State implements introspection.Introspectable.
func (o *Observer) State() any {
	o.mu.Lock()
	defer o.mu.Unlock()
	return ObserverState{
		State:       o.state.String(),
		Running:     o.running,
		Threshold:   o.threshold,
		Transitions: o.transitions,
	}
}

// ComponentType implements introspection.Component.
func (o *Observer) ComponentType() string {
	return "scroll-observer"
}

var _ introspection.Introspectable = (*Observer)(nil)
var _ introspection.Component = (*Observer)(nil)
