package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/islands/pkg/adapters/consentfile"
	bridge "github.com/aretw0/islands/pkg/adapters/lifecycle"
	"github.com/aretw0/islands/pkg/adapters/transport"
	"github.com/aretw0/islands/pkg/core"
	"github.com/aretw0/islands/pkg/deferred"
	"github.com/aretw0/islands/pkg/page"
	"github.com/aretw0/islands/pkg/shell"
	"github.com/aretw0/islands/pkg/telemetry"
)

// Site is the composition root: the resources shared by every page of a site.
type Site struct {
	logger   *slog.Logger
	reporter core.ErrorReporter
	locales  *shell.Locales
	consent  core.ConsentSource
	file     *consentfile.Source
	sender   core.Transport
	feed     *transport.Feed
	queue    *transport.Queue
	gate     *telemetry.Gate
	islands  []deferred.Island
	theme    core.Theme
	limit    float64
	watch    bool
	bundle   string

	mu           sync.Mutex
	watcher      *consentfile.Watcher
	queueStarted bool
	feedClosed   bool
}

// New assembles a Site.
//
//	site, err := islands.New(islands.WithLocales("en", "ar"), islands.WithConsentFile("consent.yaml"))
func New(opts ...Option) (*Site, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.reporter == nil {
		o.reporter = core.LogReporter{Logger: o.logger}
	}

	locales, err := shell.NewLocales(o.locales...)
	if err != nil {
		return nil, err
	}
	consent, file, err := openConsent(o)
	if err != nil {
		return nil, err
	}
	sender, feed, queue, err := openTransport(o)
	if err != nil {
		return nil, err
	}
	for _, island := range o.islands {
		if err := island.Validate(); err != nil {
			return nil, err
		}
	}

	watch, _ := o.config["watch"].(bool)
	bundle, _ := o.config["bundle_url"].(string)

	return &Site{
		logger:   o.logger,
		reporter: o.reporter,
		locales:  locales,
		consent:  consent,
		file:     file,
		sender:   sender,
		feed:     feed,
		queue:    queue,
		gate:     telemetry.NewGate(sender, telemetry.WithLogger(o.logger), telemetry.WithReporter(o.reporter)),
		islands:  o.islands,
		theme:    o.theme,
		limit:    o.threshold,
		watch:    watch && file != nil,
		bundle:   bundle,
	}, nil
}

// Start begins background work: delivery to the "http" collector and the
// consent file watcher when enabled.
func (s *Site) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue != nil && !s.queueStarted {
		if err := s.queue.Start(ctx); err != nil {
			return fmt.Errorf("start telemetry queue: %w", err)
		}
		s.queueStarted = true
	}
	if !s.watch || s.watcher != nil {
		return nil
	}
	w := s.file.NewWatcher()
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start consent watcher: %w", err)
	}
	s.watcher = w
	s.logger.Debug("watching consent file", "path", s.file.Path())
	return nil
}

// Stop ends background work and closes the event feed. Pages still open
// see later dispatches fail as transport errors.
func (s *Site) Stop(ctx context.Context) error {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	closeFeed := s.feed != nil && !s.feedClosed
	s.feedClosed = true
	s.mu.Unlock()

	var errs []error
	if w != nil {
		errs = append(errs, w.Stop(ctx))
	}
	if s.queue != nil {
		errs = append(errs, s.queue.Stop(ctx))
	}
	if closeFeed {
		s.feed.Close()
	}
	return errors.Join(errs...)
}

// Consent returns the site's consent source.
func (s *Site) Consent() core.ConsentSource {
	return s.consent
}

// Locales returns the supported locales.
func (s *Site) Locales() *shell.Locales {
	return s.locales
}

// Gate returns the dispatch gate shared by every page.
func (s *Site) Gate() *telemetry.Gate {
	return s.gate
}

// Events exposes dispatched telemetry as a lifecycle source. It is nil unless
// the "feed" transport is configured. Sources share the feed, so start one.
func (s *Site) Events() lifecycle.Source {
	if s.feed == nil {
		return nil
	}
	return bridge.NewSource(s.feed.Records())
}

// Handler serves the critical shell. A consent cookie wins over the site's
// consent source.
func (s *Site) Handler() http.Handler {
	return shell.NewServer(shell.Config{
		Locales: s.locales,
		Consent: func(r *http.Request) *core.ConsentSnapshot {
			if snap := shell.CookieConsentFor(r); snap != nil {
				return snap
			}
			return s.consent.Current()
		},
		Logger: s.logger,
	})
}

// Loader returns a loader with every registered island, fetching the bundle
// from baseURL (the configured bundle URL when empty).
func (s *Site) Loader(baseURL string) *deferred.Loader {
	if baseURL == "" {
		baseURL = s.bundle
	}
	var fetcher deferred.Fetcher
	if baseURL != "" {
		fetcher = deferred.NewHTTPFetcher(baseURL)
	} else {
		fetcher = embeddedBundle{}
	}
	l := deferred.NewLoader(fetcher, s.logger)
	for _, island := range s.islands {
		_ = l.Register(island)
	}
	return l
}

// NewPage builds a page for route sharing the site's gate. A nil host consent
// defaults to the site's consent source.
func (s *Site) NewPage(host page.Host, route string, onReady deferred.Callback) (*page.Page, error) {
	if host.Consent == nil {
		host.Consent = s.consent
	}
	opts := []page.Option{
		page.WithLogger(s.logger),
		page.WithReporter(s.reporter),
		page.WithGate(s.gate),
		page.WithTheme(s.theme),
	}
	if s.limit > 0 {
		opts = append(opts, page.WithScrollThreshold(s.limit))
	}
	if onReady != nil {
		opts = append(opts, page.WithDeferred(onReady))
	}
	return page.New(host, route, s.locales, opts...)
}

type embeddedBundle struct{}

func (embeddedBundle) Fetch(_ context.Context, path string) ([]byte, error) {
	if path != core.DeferredBundlePath {
		return nil, fmt.Errorf("fetch %s: not found", path)
	}
	return shell.Bundle(), nil
}
