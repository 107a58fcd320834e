// Package deferred activates non-critical islands once the host reports the
// critical shell interactive.
package deferred

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/islands/pkg/core"
)

var (
	// ErrAlreadyScheduled is returned by a second Schedule on the same page instance.
	ErrAlreadyScheduled = errors.New("deferred activation already scheduled")
	// ErrClosed is returned by Schedule after Close.
	ErrClosed = errors.New("activator closed")
)

// Bootstrap is handed to the deferred bundle at activation time.
type Bootstrap struct {
	// InitialAnalyticsConsent is the consent read when the page scheduled
	// activation. Analytics-dependent islands decide on it at their own
	// activation time.
	InitialAnalyticsConsent bool
	Locale                  string
	Route                   string
	PageID                  string
}

// Callback runs the deferred bundle.
type Callback func(ctx context.Context, boot Bootstrap) error

// Status is the activation state of an Activator.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusScheduled Status = "scheduled"
	StatusRunning   Status = "running"
	StatusActivated Status = "activated"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Activator runs one Callback at most once per page instance, strictly after
// the interactive signal.
type Activator struct {
	ctx      context.Context
	signal   core.InteractiveSignal
	reporter core.ErrorReporter
	logger   *slog.Logger
	boot     Bootstrap

	mu        sync.Mutex
	status    Status
	scheduled bool
	closed    bool
	cancel    func()
	consent   bool

	once     sync.Once
	doneOnce sync.Once
	done     chan struct{}
}

// Option configures an Activator.
type Option func(*Activator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Activator) {
		a.logger = logger
	}
}

// WithReporter sets the collaborator deferred failures are reported to.
func WithReporter(r core.ErrorReporter) Option {
	return func(a *Activator) {
		a.reporter = r
	}
}

// WithPage sets the page fields of the bootstrap context.
func WithPage(pageID, route, locale string) Option {
	return func(a *Activator) {
		a.boot.PageID = pageID
		a.boot.Route = route
		a.boot.Locale = locale
	}
}

// NewActivator creates an activator bound to the host's interactive signal.
// ctx bounds the activation goroutine.
func NewActivator(ctx context.Context, signal core.InteractiveSignal, opts ...Option) *Activator {
	a := &Activator{
		ctx:    ctx,
		signal: signal,
		status: StatusIdle,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.reporter == nil {
		a.reporter = core.LogReporter{Logger: a.logger}
	}
	return a
}

// Schedule registers onReady against the interactive signal. The consent
// snapshot is read once, here, and travels with the bootstrap context.
func (a *Activator) Schedule(onReady Callback, consent *core.ConsentSnapshot) error {
	a.mu.Lock()
	switch {
	case a.closed:
		a.mu.Unlock()
		return ErrClosed
	case a.scheduled:
		a.mu.Unlock()
		return ErrAlreadyScheduled
	}
	a.scheduled = true
	a.status = StatusScheduled
	boot := a.boot
	boot.InitialAnalyticsConsent = core.AnalyticsAllowed(consent)
	a.consent = boot.InitialAnalyticsConsent
	a.mu.Unlock()

	// The host may fire synchronously when it is already interactive, so the
	// lock is not held while registering.
	cancel := a.signal.OnInteractive(func() { a.trigger(onReady, boot) })

	a.mu.Lock()
	if a.closed || a.status != StatusScheduled {
		a.mu.Unlock()
		cancel()
		return nil
	}
	a.cancel = cancel
	a.mu.Unlock()
	return nil
}

func (a *Activator) trigger(onReady Callback, boot Bootstrap) {
	a.once.Do(func() {
		a.mu.Lock()
		if a.closed {
			a.mu.Unlock()
			return
		}
		a.status = StatusRunning
		cancel := a.cancel
		a.cancel = nil
		a.mu.Unlock()

		// One-shot: later signals (re-hydration) have nobody to call.
		if cancel != nil {
			cancel()
		}

		a.logger.Debug("activating deferred bundle", "page", boot.PageID, "analytics", boot.InitialAnalyticsConsent)
		lifecycle.Go(a.ctx, func(ctx context.Context) error {
			defer a.finish()
			err := a.run(ctx, onReady, boot)
			a.settle(err, boot)
			return nil
		}, lifecycle.WithErrorHandler(func(err error) {
			a.reporter.Report(fmt.Errorf("%w: %w", core.ErrDeferredLoad, err), "page", boot.PageID)
		}))
	})
}

// run calls onReady, turning a panic into an error so the shell never sees it.
func (a *Activator) run(ctx context.Context, onReady Callback, boot Bootstrap) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("deferred bundle panic: %v", r)
		}
	}()
	return onReady(ctx, boot)
}

func (a *Activator) settle(err error, boot Bootstrap) {
	a.mu.Lock()
	if err != nil {
		a.status = StatusFailed
	} else {
		a.status = StatusActivated
	}
	a.mu.Unlock()

	if err == nil {
		a.logger.Debug("deferred bundle active", "page", boot.PageID)
		return
	}
	if !errors.Is(err, core.ErrDeferredLoad) {
		err = fmt.Errorf("%w: %w", core.ErrDeferredLoad, err)
	}
	a.reporter.Report(err, "page", boot.PageID, "route", boot.Route)
}

func (a *Activator) finish() {
	a.doneOnce.Do(func() { close(a.done) })
}

// Done is closed once the single activation attempt has finished, or when the
// activator is closed before it started.
func (a *Activator) Done() <-chan struct{} {
	return a.done
}

// Status returns the current activation status.
func (a *Activator) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Close deregisters from the interactive signal. An activation already
// running is left to finish.
func (a *Activator) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	cancel := a.cancel
	a.cancel = nil
	started := a.status == StatusRunning || a.status == StatusActivated || a.status == StatusFailed
	if !started {
		a.status = StatusCancelled
	}
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if !started {
		a.finish()
	}
}
