package islands

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/islands/internal/platform"
	"github.com/aretw0/islands/pkg/core"
	"github.com/aretw0/islands/pkg/deferred"
)

// Version exposes the version of the library.
// See version.go for the implementation using go:embed.

// DeferredBundlePath is where the shell serves the deferred island bundle.
const DeferredBundlePath = core.DeferredBundlePath

// --- Types ---

// Site is the composition root shared by every page of a site.
type Site = platform.Site

// Config is the YAML form of a site configuration.
type Config = platform.Config

// Script drives a simulated page session.
type Script = platform.Script

// Transcript records a simulated page session.
type Transcript = platform.Transcript

// --- Configuration ---

// Option defines a functional option for configuring a Site.
type Option = platform.Option

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithReporter sets where non-fatal coordinator errors go.
func WithReporter(r core.ErrorReporter) Option {
	return platform.WithReporter(r)
}

// WithLocales sets the supported BCP 47 tags. The first one is the default.
func WithLocales(tags ...string) Option {
	return platform.WithLocales(tags...)
}

// WithConsentSource injects a consent source.
func WithConsentSource(src core.ConsentSource) Option {
	return platform.WithConsentSource(src)
}

// WithConsentAdapter selects the consent adapter by name ("memory" or "file").
func WithConsentAdapter(name string) Option {
	return platform.WithConsentAdapter(name)
}

// WithConsentFile keeps the consent decision in a YAML file.
func WithConsentFile(path string) Option {
	return platform.WithConsentFile(path)
}

// WithInitialConsent seeds the in-memory consent source.
func WithInitialConsent(allowed bool) Option {
	return platform.WithInitialConsent(allowed)
}

// WithWatch enables hot reload of the consent file.
func WithWatch(enabled bool) Option {
	return platform.WithWatch(enabled)
}

// WithConsentDebounce sets how long the consent watcher waits for the file to settle.
func WithConsentDebounce(d time.Duration) Option {
	return platform.WithConsentDebounce(d)
}

// WithTransport injects a telemetry transport.
func WithTransport(t core.Transport) Option {
	return platform.WithTransport(t)
}

// WithTransports selects telemetry transports by name ("log", "http", "feed").
func WithTransports(names ...string) Option {
	return platform.WithTransports(names...)
}

// WithCollector sets the endpoint of the "http" transport.
func WithCollector(url string, headers map[string]string) Option {
	return platform.WithCollector(url, headers)
}

// WithEventBuffer sets the buffer of the "feed" transport and the "http" queue.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithBundleURL sets where pages fetch the deferred bundle from.
func WithBundleURL(url string) Option {
	return platform.WithBundleURL(url)
}

// WithIsland registers a deferred island.
func WithIsland(island deferred.Island) Option {
	return platform.WithIsland(island)
}

// WithTheme sets the stored theme preference.
func WithTheme(theme core.Theme) Option {
	return platform.WithTheme(theme)
}

// WithScrollThreshold sets the masthead threshold in pixels.
func WithScrollThreshold(px float64) Option {
	return platform.WithScrollThreshold(px)
}

// --- Factory ---

// New assembles a Site.
func New(opts ...Option) (*Site, error) {
	return platform.New(opts...)
}

// LoadConfig reads a YAML site configuration.
func LoadConfig(path string) (*Config, error) {
	return platform.LoadConfig(path)
}

// FindConfig looks upwards from startDir for islands.yaml.
func FindConfig(startDir string) (string, error) {
	return platform.FindConfig(startDir)
}

// --- Operations ---

// Simulate runs a scripted page session on an in-memory host.
func Simulate(ctx context.Context, site *Site, script *Script) (*Transcript, error) {
	return platform.Simulate(ctx, site, script)
}

// DefaultScript returns the built-in simulation for locale.
func DefaultScript(locale string) *Script {
	return platform.DefaultScript(locale)
}

// LoadScript reads a YAML simulation script.
func LoadScript(path string) (*Script, error) {
	return platform.LoadScript(path)
}

// ReadConsent returns the decision stored in a consent file.
func ReadConsent(path string) (*core.ConsentSnapshot, error) {
	return platform.ReadConsent(path)
}

// WriteConsent stores a decision in a consent file. A nil allowed clears it.
func WriteConsent(path string, allowed *bool) (*core.ConsentSnapshot, error) {
	return platform.WriteConsent(path, allowed)
}
