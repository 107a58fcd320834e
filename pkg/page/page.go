// Package page wires the coordinator components into one page instance:
// document attributes, masthead scroll state, deferred activation and the
// consent-gated telemetry observers.
package page

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/aretw0/islands/pkg/core"
	"github.com/aretw0/islands/pkg/deferred"
	"github.com/aretw0/islands/pkg/document"
	"github.com/aretw0/islands/pkg/scroll"
	"github.com/aretw0/islands/pkg/telemetry"
)

var (
	// ErrMounted is returned by Mount on a mounted page.
	ErrMounted = errors.New("page already mounted")
	// ErrClosed is returned by Mount after Close.
	ErrClosed = errors.New("page closed")
)

// Host is what the embedding environment provides.
type Host struct {
	Consent  core.ConsentSource
	Signal   core.InteractiveSignal
	Media    core.MediaQueries
	Scroll   core.ScrollSource
	Document core.AttributeStore
}

func (h Host) validate() error {
	var missing []string
	if h.Consent == nil {
		missing = append(missing, "consent")
	}
	if h.Signal == nil {
		missing = append(missing, "signal")
	}
	if h.Scroll == nil {
		missing = append(missing, "scroll")
	}
	if h.Document == nil {
		missing = append(missing, "document")
	}
	if len(missing) > 0 {
		return fmt.Errorf("page host is missing %v", missing)
	}
	return nil
}

// Page coordinates one page. Each Mount starts a new page instance with its
// own ID, activator and fire guards.
type Page struct {
	host     Host
	locales  core.LocaleResolver
	gate     *telemetry.Gate
	onReady  deferred.Callback
	logger   *slog.Logger
	reporter core.ErrorReporter

	doc    *document.Synchronizer
	scroll *scroll.Observer
	route  *telemetry.RouteObserver

	// transition serializes Mount, Unmount and Close.
	transition sync.Mutex

	mu         sync.Mutex
	id         string
	path       string
	locale     core.Locale
	mounted    bool
	closed     bool
	mounts     int
	activator  *deferred.Activator
	brief      *telemetry.BriefOpenObserver
	engagement *telemetry.EngagementObserver
}

// Option configures a Page.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	reporter  core.ErrorReporter
	gate      *telemetry.Gate
	transport core.Transport
	theme     core.Theme
	threshold float64
	onReady   deferred.Callback
}

// WithLogger sets the logger shared by every component of the page.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithReporter sets where non-fatal errors go.
func WithReporter(r core.ErrorReporter) Option {
	return func(o *options) {
		o.reporter = r
	}
}

// WithGate shares a dispatch gate between pages.
func WithGate(g *telemetry.Gate) Option {
	return func(o *options) {
		o.gate = g
	}
}

// WithTransport builds a gate over t. Ignored when WithGate is set.
func WithTransport(t core.Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithTheme sets the stored theme preference.
func WithTheme(theme core.Theme) Option {
	return func(o *options) {
		o.theme = theme
	}
}

// WithScrollThreshold sets the masthead threshold in pixels.
func WithScrollThreshold(px float64) Option {
	return func(o *options) {
		o.threshold = px
	}
}

// WithDeferred sets the callback run once the page is interactive,
// typically (*deferred.Loader).Activate.
func WithDeferred(cb deferred.Callback) Option {
	return func(o *options) {
		o.onReady = cb
	}
}

type discard struct{}

func (discard) Send(context.Context, string, map[string]string) error { return nil }

// New builds an unmounted page for route. It claims the document attributes
// it manages, so a second page on the same document fails with
// document.ErrAttributeOwned until the first is closed.
func New(host Host, route string, locales core.LocaleResolver, opts ...Option) (*Page, error) {
	if err := host.validate(); err != nil {
		return nil, err
	}
	o := options{
		theme:     core.ThemeSystem,
		threshold: scroll.DefaultThreshold,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.reporter == nil {
		o.reporter = core.LogReporter{Logger: o.logger}
	}
	if o.gate == nil {
		t := o.transport
		if t == nil {
			t = discard{}
		}
		o.gate = telemetry.NewGate(t, telemetry.WithLogger(o.logger), telemetry.WithReporter(o.reporter))
	}

	attrs, err := document.Shared(host.Document)
	if err != nil {
		return nil, err
	}
	synchronizer, err := document.NewSynchronizer(attrs, document.Config{
		Route:   route,
		Locales: locales,
		Media:   host.Media,
		Theme:   o.theme,
		Logger:  o.logger,
	})
	if err != nil {
		return nil, err
	}
	scrollObs, err := scroll.NewObserver(attrs, host.Scroll, host.Media,
		scroll.WithThreshold(o.threshold), scroll.WithLogger(o.logger))
	if err != nil {
		synchronizer.Close()
		return nil, err
	}

	return &Page{
		host:     host,
		locales:  locales,
		gate:     o.gate,
		onReady:  o.onReady,
		logger:   o.logger,
		reporter: o.reporter,
		doc:      synchronizer,
		scroll:   scrollObs,
		route:    telemetry.NewRouteObserver(o.gate, host.Consent, locales),
		path:     route,
	}, nil
}

// Mount brings the page up: reconcile attributes, start the scroll observer,
// schedule deferred activation with the consent known right now, then start
// the telemetry observers. Errors from the steps are reported, never returned;
// the rendered shell stays usable whatever fails.
func (p *Page) Mount(ctx context.Context) error {
	p.transition.Lock()
	defer p.transition.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.mounted {
		p.mu.Unlock()
		return ErrMounted
	}
	p.mounted = true
	p.mounts++
	p.id = uuid.NewString()
	path := p.path
	id := p.id
	p.mu.Unlock()

	logger := p.logger.With("page", id, "route", path)

	if _, err := p.doc.Reconcile(); err != nil {
		p.reporter.Report(err, "page", id, "route", path)
	}

	p.scroll.Start()

	locale, err := p.locales.Resolve(path)
	if err != nil {
		locale = core.Locale{}
	}

	var activator *deferred.Activator
	if p.onReady != nil {
		activator = deferred.NewActivator(ctx, p.host.Signal,
			deferred.WithLogger(logger),
			deferred.WithReporter(p.reporter),
			deferred.WithPage(id, path, locale.Tag))
		if err := activator.Schedule(p.onReady, p.host.Consent.Current()); err != nil {
			p.reporter.Report(err, "page", id)
		}
	}

	brief := telemetry.NewBriefOpenObserver(p.gate, p.host.Consent, locale.Tag)
	engagement := telemetry.NewEngagementObserver(p.gate, p.host.Consent, locale.Tag)
	p.route.Mount(ctx)
	brief.Mount(ctx)
	engagement.Mount(ctx)
	// The landing view seeds the route observer; it is not a navigation.
	p.route.Observe(path)

	p.mu.Lock()
	p.locale = locale
	p.activator = activator
	p.brief = brief
	p.engagement = engagement
	p.mu.Unlock()

	logger.Debug("page mounted", "locale", locale.Tag)
	return nil
}

// Unmount tears the page down in reverse order. It is safe to call more than
// once and on a page that was never mounted.
func (p *Page) Unmount() {
	p.transition.Lock()
	defer p.transition.Unlock()
	p.unmount()
}

func (p *Page) unmount() {
	p.mu.Lock()
	if !p.mounted {
		p.mu.Unlock()
		return
	}
	p.mounted = false
	activator, brief, engagement := p.activator, p.brief, p.engagement
	id := p.id
	p.mu.Unlock()

	engagement.Unmount()
	brief.Unmount()
	p.route.Unmount()
	if activator != nil {
		activator.Close()
	}
	p.scroll.Stop()
	p.logger.Debug("page unmounted", "page", id)
}

// Close unmounts the page and releases the document attributes it owns.
func (p *Page) Close() {
	p.transition.Lock()
	defer p.transition.Unlock()
	p.unmount()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()
	p.scroll.Close()
	p.doc.Close()
}

// Navigate records a client-side navigation: document attributes follow the
// new route and a route_view occurrence is offered to the gate.
func (p *Page) Navigate(path string) telemetry.Outcome {
	p.mu.Lock()
	p.path = path
	id := p.id
	p.mu.Unlock()

	p.doc.SetRoute(path)
	if _, err := p.doc.Reconcile(); err != nil {
		p.reporter.Report(err, "page", id, "route", path)
	}
	return p.route.Observe(path)
}

// OpenBrief records that the brief was opened.
func (p *Page) OpenBrief() telemetry.Outcome {
	p.mu.Lock()
	brief := p.brief
	p.mu.Unlock()
	if brief == nil {
		return telemetry.Outcome{Status: telemetry.StatusSkipped, Reason: telemetry.ReasonInactive}
	}
	return brief.Open()
}

// Engage records engagement with a case study.
func (p *Page) Engage(slug string) telemetry.Outcome {
	p.mu.Lock()
	engagement := p.engagement
	p.mu.Unlock()
	if engagement == nil {
		return telemetry.Outcome{Status: telemetry.StatusSkipped, Reason: telemetry.ReasonInactive}
	}
	return engagement.Engage(slug)
}

// ID returns the current instance ID, empty before the first Mount.
func (p *Page) ID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.id
}

// Deferred returns the activator of the current instance, nil when none.
func (p *Page) Deferred() *deferred.Activator {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activator
}

// Scroll returns the masthead scroll state.
func (p *Page) Scroll() scroll.State {
	return p.scroll.Current()
}

// Gate returns the dispatch gate.
func (p *Page) Gate() *telemetry.Gate {
	return p.gate
}
