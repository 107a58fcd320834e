package document

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/islands/pkg/core"
)

// State is the client-computed value of the synchronized attributes.
type State struct {
	Lang  string
	Dir   core.Direction
	Theme core.Theme
}

// Mutation is one attribute write performed by Reconcile.
type Mutation struct {
	Name string
	From string
	To   string
}

// Config configures a Synchronizer.
type Config struct {
	Route   string
	Locales core.LocaleResolver
	Media   core.MediaQueries
	// Theme is the stored preference. Empty means core.ThemeSystem.
	Theme  core.Theme
	Logger *slog.Logger
}

// Synchronizer owns lang, dir and data-theme.
type Synchronizer struct {
	cfg   Config
	owner *Owner

	mu         sync.Mutex
	reconciles int
	mutations  int
	applied    State
}

// NewSynchronizer claims the locale and theme attributes.
func NewSynchronizer(attrs *Attributes, cfg Config) (*Synchronizer, error) {
	if cfg.Locales == nil {
		return nil, fmt.Errorf("document synchronizer: nil locale resolver")
	}
	owner, err := attrs.Claim("document-synchronizer", AttrLang, AttrDir, AttrTheme)
	if err != nil {
		return nil, err
	}
	if cfg.Theme == "" {
		cfg.Theme = core.ThemeSystem
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Synchronizer{cfg: cfg, owner: owner}, nil
}

// Compute returns the true client values without touching the document.
func (s *Synchronizer) Compute() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compute()
}

// SetRoute points the synchronizer at a new route. The next Reconcile applies it.
func (s *Synchronizer) SetRoute(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Route = route
}

func (s *Synchronizer) compute() (State, error) {
	st := State{Theme: ResolveTheme(s.cfg.Theme, s.cfg.Media)}
	locale, err := s.cfg.Locales.Resolve(s.cfg.Route)
	if err != nil {
		return st, fmt.Errorf("resolve locale for %q: %w", s.cfg.Route, err)
	}
	st.Lang = locale.Tag
	st.Dir = locale.Direction
	return st, nil
}

// Reconcile applies the computed values that differ from the document.
// With unchanged inputs a second call writes nothing. When the locale cannot
// be resolved the server-rendered lang and dir are kept and the error is
// returned with whatever was applied.
func (s *Synchronizer) Reconcile() ([]Mutation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, resolveErr := s.compute()

	var muts []Mutation
	apply := func(name, value string) error {
		from, _ := s.owner.attrs.Get(name)
		changed, err := s.owner.Set(name, value)
		if err != nil {
			return err
		}
		if changed {
			muts = append(muts, Mutation{Name: name, From: from, To: value})
		}
		return nil
	}

	if resolveErr == nil {
		if err := apply(AttrLang, st.Lang); err != nil {
			return muts, err
		}
		if err := apply(AttrDir, string(st.Dir)); err != nil {
			return muts, err
		}
	}
	if err := apply(AttrTheme, string(st.Theme)); err != nil {
		return muts, err
	}

	s.reconciles++
	s.mutations += len(muts)
	s.applied = st
	if len(muts) > 0 {
		s.cfg.Logger.Debug("document attributes reconciled", "route", s.cfg.Route, "mutations", len(muts))
	}
	return muts, resolveErr
}

// Close releases the owned attributes.
func (s *Synchronizer) Close() {
	s.owner.Release()
}

// ResolveTheme turns a preference into the applied theme.
func ResolveTheme(pref core.Theme, media core.MediaQueries) core.Theme {
	switch pref {
	case core.ThemeLight, core.ThemeDark:
		return pref
	}
	if media != nil && media.Matches(core.QueryDarkScheme) {
		return core.ThemeDark
	}
	return core.ThemeLight
}
