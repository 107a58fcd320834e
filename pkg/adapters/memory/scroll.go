package memory

import (
	"sync"

	"github.com/aretw0/islands/pkg/core"
)

// Scroll is an in-memory core.ScrollSource.
type Scroll struct {
	mu     sync.RWMutex
	offset float64
	subs   listeners[struct{}]
}

// NewScroll returns a scroll source at the given offset.
func NewScroll(offset float64) *Scroll {
	return &Scroll{offset: offset}
}

// Offset implements core.ScrollSource.
func (s *Scroll) Offset() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offset
}

// OnScroll implements core.ScrollSource.
func (s *Scroll) OnScroll(fn func()) func() {
	return s.subs.add(func(struct{}) { fn() })
}

// ScrollTo moves the document and dispatches a scroll event.
func (s *Scroll) ScrollTo(offset float64) {
	s.mu.Lock()
	s.offset = offset
	s.mu.Unlock()
	s.subs.emit(struct{}{})
}

// Listeners returns the number of registered scroll listeners.
func (s *Scroll) Listeners() int {
	return s.subs.len()
}

var _ core.ScrollSource = (*Scroll)(nil)
