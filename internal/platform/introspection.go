package platform

import (
	"github.com/aretw0/introspection"
)

// SiteState is the introspection view of a Site.
type SiteState struct {
	Locale     string   `json:"default_locale"`
	Islands    []string `json:"islands"`
	Watching   bool     `json:"watching"`
	Feed       bool     `json:"feed"`
	Queue      any      `json:"queue,omitempty"`
	Consent    any      `json:"consent,omitempty"`
	ConsentSrc string   `json:"consent_source"`
	Gate       any      `json:"gate"`
}

// State implements introspection.Introspectable.
func (s *Site) State() any {
	s.mu.Lock()
	watching := s.watcher != nil
	s.mu.Unlock()

	st := SiteState{
		Locale:   s.locales.Default().Tag,
		Watching: watching,
		Feed:     s.feed != nil,
		Gate:     s.gate.State(),
	}
	if s.queue != nil {
		st.Queue = s.queue.State()
	}
	for _, island := range s.islands {
		st.Islands = append(st.Islands, island.Name)
	}
	// Try to get component type if the consent source implements introspection.Component
	if comp, ok := s.consent.(introspection.Component); ok {
		st.ConsentSrc = comp.ComponentType()
	} else {
		st.ConsentSrc = "custom"
	}
	if in, ok := s.consent.(introspection.Introspectable); ok {
		st.Consent = in.State()
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *Site) ComponentType() string {
	return "site"
}

var _ introspection.Introspectable = (*Site)(nil)
var _ introspection.Component = (*Site)(nil)
