package memory

import (
	"sync"

	"github.com/aretw0/islands/pkg/core"
)

// Media is an in-memory core.MediaQueries.
type Media struct {
	mu       sync.RWMutex
	matches  map[string]bool
	watchers map[string]*listeners[bool]
}

// NewMedia returns media state with the given queries matching.
func NewMedia(matching ...string) *Media {
	m := &Media{
		matches:  make(map[string]bool),
		watchers: make(map[string]*listeners[bool]),
	}
	for _, q := range matching {
		m.matches[q] = true
	}
	return m
}

// Matches implements core.MediaQueries.
func (m *Media) Matches(query string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.matches[query]
}

// Watch implements core.MediaQueries.
func (m *Media) Watch(query string, fn func(bool)) func() {
	m.mu.Lock()
	l, ok := m.watchers[query]
	if !ok {
		l = &listeners[bool]{}
		m.watchers[query] = l
	}
	m.mu.Unlock()
	return l.add(fn)
}

// Set changes a query result and notifies watchers when it flips.
func (m *Media) Set(query string, matches bool) {
	m.mu.Lock()
	changed := m.matches[query] != matches
	m.matches[query] = matches
	l := m.watchers[query]
	m.mu.Unlock()

	if changed && l != nil {
		l.emit(matches)
	}
}

// Watchers returns the number of live watchers across all queries.
func (m *Media) Watchers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, l := range m.watchers {
		n += l.len()
	}
	return n
}

var _ core.MediaQueries = (*Media)(nil)
