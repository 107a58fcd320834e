package consentfile

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/islands/pkg/core"
)

// DefaultDebounce collapses the burst of events editors and atomic renames produce.
const DefaultDebounce = 500 * time.Millisecond

// Source is a core.ConsentSource backed by a consent file.
type Source struct {
	path     string
	logger   *slog.Logger
	debounce time.Duration
	now      func() time.Time

	mu      sync.Mutex
	current *core.ConsentSnapshot
	lastErr error
	nextID  int
	subs    map[int]func(*core.ConsentSnapshot)
	order   []int

	reloads   atomic.Int64
	published atomic.Int64
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// WithDebounce sets how long the watcher waits for the file to settle.
func WithDebounce(d time.Duration) Option {
	return func(s *Source) {
		s.debounce = d
	}
}

// WithClock sets the clock used to stamp decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Source) {
		s.now = now
	}
}

// NewSource loads the consent file at path. The file does not need to exist.
func NewSource(path string, opts ...Option) (*Source, error) {
	s := &Source{
		path:     path,
		logger:   slog.Default(),
		debounce: DefaultDebounce,
		now:      time.Now,
		subs:     make(map[int]func(*core.ConsentSnapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	snap, err := Load(path)
	if err != nil {
		return nil, err
	}
	s.current = snap
	return s, nil
}

// Path returns the watched file.
func (s *Source) Path() string {
	return s.path
}

// Current implements core.ConsentSource.
func (s *Source) Current() *core.ConsentSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe implements core.ConsentSource.
func (s *Source) Subscribe(fn func(*core.ConsentSnapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Decide records a new decision on disk and publishes it.
func (s *Source) Decide(allowed bool) (*core.ConsentSnapshot, error) {
	snap := &core.ConsentSnapshot{AnalyticsAllowed: allowed, DecidedAt: s.now().UTC().Truncate(time.Second)}
	if err := Save(s.path, snap); err != nil {
		return nil, err
	}
	if _, err := s.Reload(); err != nil {
		return nil, err
	}
	return snap, nil
}

// Reload re-reads the file and publishes the snapshot when it changed. A
// malformed file keeps the previous decision.
func (s *Source) Reload() (bool, error) {
	s.reloads.Add(1)
	snap, err := Load(s.path)

	s.mu.Lock()
	s.lastErr = err
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("consent file rejected, keeping previous decision", "path", s.path, "error", err)
		return false, err
	}
	if sameSnapshot(s.current, snap) {
		s.mu.Unlock()
		return false, nil
	}
	s.current = snap
	subs := make([]func(*core.ConsentSnapshot), 0, len(s.order))
	for _, id := range s.order {
		subs = append(subs, s.subs[id])
	}
	s.mu.Unlock()

	s.published.Add(1)
	s.logger.Info("consent changed", "path", s.path, "analytics_allowed", core.AnalyticsAllowed(snap))
	for _, fn := range subs {
		fn(snap)
	}
	return true, nil
}

var _ core.ConsentSource = (*Source)(nil)
