package document

import "github.com/aretw0/introspection"

// SynchronizerState exposes reconciliation history.
type SynchronizerState struct {
	Route      string `json:"route"`
	Reconciles int    `json:"reconciles"`
	Mutations  int    `json:"mutations"`
	Lang       string `json:"lang,omitempty"`
	Dir        string `json:"dir,omitempty"`
	Theme      string `json:"theme,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Synchronizer) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SynchronizerState{
		Route:      s.cfg.Route,
		Reconciles: s.reconciles,
		Mutations:  s.mutations,
		Lang:       s.applied.Lang,
		Dir:        string(s.applied.Dir),
		Theme:      string(s.applied.Theme),
	}
}

// ComponentType implements introspection.Component.
func (s *Synchronizer) ComponentType() string {
	return "document-synchronizer"
}

var _ introspection.Introspectable = (*Synchronizer)(nil)
var _ introspection.Component = (*Synchronizer)(nil)
