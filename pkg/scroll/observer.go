// Package scroll derives the masthead "past threshold" state from the scroll
// offset, suppressed while the user prefers reduced motion.
package scroll

import (
	"log/slog"
	"sync"

	"github.com/aretw0/islands/pkg/core"
	"github.com/aretw0/islands/pkg/document"
)

// DefaultThreshold is the offset in CSS pixels past which the masthead changes.
const DefaultThreshold = 24

// State is the observer state.
type State int

const (
	Below State = iota
	Past
)

func (s State) String() string {
	if s == Past {
		return "past"
	}
	return "below"
}

// Observer owns data-masthead-scrolled.
type Observer struct {
	source    core.ScrollSource
	media     core.MediaQueries
	owner     *document.Owner
	threshold float64
	logger    *slog.Logger

	mu          sync.Mutex
	state       State
	running     bool
	transitions int
	cancels     []func()
}

// Option configures an Observer.
type Option func(*Observer)

// WithThreshold overrides DefaultThreshold.
func WithThreshold(px float64) Option {
	return func(o *Observer) {
		o.threshold = px
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Observer) {
		o.logger = logger
	}
}

// NewObserver claims the masthead attribute.
func NewObserver(attrs *document.Attributes, source core.ScrollSource, media core.MediaQueries, opts ...Option) (*Observer, error) {
	owner, err := attrs.Claim("scroll-observer", document.AttrMastheadScrolled)
	if err != nil {
		return nil, err
	}
	o := &Observer{
		source:    source,
		media:     media,
		owner:     owner,
		threshold: DefaultThreshold,
		state:     Below,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o, nil
}

// Start registers passive listeners and evaluates the initial state, so the
// result is correct before the first scroll event.
func (o *Observer) Start() {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return
	}
	o.running = true
	o.mu.Unlock()

	cancels := []func(){o.source.OnScroll(o.update)}
	if o.media != nil {
		cancels = append(cancels, o.media.Watch(core.QueryReducedMotion, func(bool) { o.update() }))
	}

	o.mu.Lock()
	o.cancels = cancels
	o.mu.Unlock()

	o.update()
}

// Stop deregisters every listener and clears the attribute.
func (o *Observer) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	cancels := o.cancels
	o.cancels = nil
	o.state = Below
	o.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	_, _ = o.owner.Remove(document.AttrMastheadScrolled)
}

// Close stops the observer and gives the attribute back.
func (o *Observer) Close() {
	o.Stop()
	o.owner.Release()
}

// Current returns the last computed state.
func (o *Observer) Current() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Observer) reducedMotion() bool {
	return o.media != nil && o.media.Matches(core.QueryReducedMotion)
}

// compute is the pure transition rule.
func compute(offset, threshold float64, reducedMotion bool) State {
	if reducedMotion {
		return Below
	}
	if offset > threshold {
		return Past
	}
	return Below
}

func (o *Observer) update() {
	next := compute(o.source.Offset(), o.threshold, o.reducedMotion())

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.running {
		return
	}
	if next != o.state {
		o.transitions++
		o.logger.Debug("masthead state", "from", o.state, "to", next)
	}
	o.state = next

	// Writes are no-ops when the document already matches.
	if next == Past {
		_, _ = o.owner.Set(document.AttrMastheadScrolled, "true")
	} else {
		_, _ = o.owner.Remove(document.AttrMastheadScrolled)
	}
}
