package consentfile

import (
	"github.com/aretw0/introspection"

	"github.com/aretw0/islands/pkg/core"
)

// SourceState is the introspection view of a Source.
type SourceState struct {
	Path             string `json:"path"`
	Decided          bool   `json:"decided"`
	AnalyticsAllowed bool   `json:"analytics_allowed"`
	Subscribers      int    `json:"subscribers"`
	Reloads          int64  `json:"reloads"`
	Published        int64  `json:"published"`
	LastError        string `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Source) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := SourceState{
		Path:             s.path,
		Decided:          s.current != nil,
		AnalyticsAllowed: core.AnalyticsAllowed(s.current),
		Subscribers:      len(s.subs),
		Reloads:          s.reloads.Load(),
		Published:        s.published.Load(),
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *Source) ComponentType() string {
	return "consent-file"
}

var (
	_ introspection.Introspectable = (*Source)(nil)
	_ introspection.Component      = (*Source)(nil)
)
