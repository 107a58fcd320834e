package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/islands/pkg/core"
	"github.com/aretw0/islands/pkg/deferred"
)

// options holds the internal configuration for a Site.
type options struct {
	logger     *slog.Logger
	reporter   core.ErrorReporter
	locales    []string
	consent    core.ConsentSource
	transport  core.Transport
	adapter    string
	transports []string
	config     map[string]interface{}
	islands    []deferred.Island
	theme      core.Theme
	threshold  float64
}

// Option defines a functional option for configuring a Site.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		locales:    []string{"en"},
		adapter:    "memory",
		transports: []string{"log"},
		config:     make(map[string]interface{}),
		theme:      core.ThemeSystem,
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithReporter sets where non-fatal coordinator errors go. Defaults to the logger.
func WithReporter(r core.ErrorReporter) Option {
	return func(o *options) {
		o.reporter = r
	}
}

// WithLocales sets the supported BCP 47 tags. The first one is the default.
func WithLocales(tags ...string) Option {
	return func(o *options) {
		o.locales = tags
	}
}

// WithConsentSource injects a consent source. The consent adapter is skipped.
func WithConsentSource(src core.ConsentSource) Option {
	return func(o *options) {
		o.consent = src
	}
}

// WithConsentAdapter selects the consent adapter by name: "memory" or "file".
func WithConsentAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithConsentFile selects the file adapter backed by path.
func WithConsentFile(path string) Option {
	return func(o *options) {
		o.adapter = "file"
		o.config["consent_path"] = path
	}
}

// WithInitialConsent seeds the memory adapter with a decision.
func WithInitialConsent(allowed bool) Option {
	return func(o *options) {
		o.config["initial_consent"] = allowed
	}
}

// WithWatch enables hot reload of the consent file.
func WithWatch(enabled bool) Option {
	return func(o *options) {
		o.config["watch"] = enabled
	}
}

// WithConsentDebounce sets how long the consent watcher waits for the file to settle.
func WithConsentDebounce(d time.Duration) Option {
	return func(o *options) {
		o.config["consent_debounce"] = d
	}
}

// WithTransport injects a telemetry transport. Named transports are skipped.
func WithTransport(t core.Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithTransports selects telemetry transports by name: "log", "http", "feed".
// Several transports fan out.
func WithTransports(names ...string) Option {
	return func(o *options) {
		o.transports = names
	}
}

// WithCollector sets the endpoint of the "http" transport.
func WithCollector(url string, headers map[string]string) Option {
	return func(o *options) {
		o.config["collector_url"] = url
		o.config["collector_headers"] = headers
	}
}

// WithEventBuffer sets the buffer of the "feed" transport and of the "http"
// delivery queue. Zero means the transport default.
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.config["event_buffer"] = size
	}
}

// WithBundleURL sets where pages fetch the deferred bundle from.
func WithBundleURL(url string) Option {
	return func(o *options) {
		o.config["bundle_url"] = url
	}
}

// WithIsland registers a deferred island.
func WithIsland(island deferred.Island) Option {
	return func(o *options) {
		o.islands = append(o.islands, island)
	}
}

// WithTheme sets the stored theme preference for new pages.
func WithTheme(theme core.Theme) Option {
	return func(o *options) {
		o.theme = theme
	}
}

// WithScrollThreshold sets the masthead threshold for new pages.
func WithScrollThreshold(px float64) Option {
	return func(o *options) {
		o.threshold = px
	}
}
