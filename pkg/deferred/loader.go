package deferred

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/islands/pkg/core"
)

// ErrBadPattern is returned when an island route glob does not parse.
var ErrBadPattern = errors.New("invalid island route pattern")

// Island is one deferred interactive unit.
type Island struct {
	Name string
	// Routes are doublestar globs matched against the page route.
	// No routes means every route.
	Routes []string
	// RequiresAnalytics islands only start when the bootstrap carried consent.
	RequiresAnalytics bool
	Init              func(ctx context.Context, boot Bootstrap) error
}

func (i Island) matches(route string) bool {
	if len(i.Routes) == 0 {
		return true
	}
	for _, p := range i.Routes {
		if ok, _ := doublestar.Match(p, route); ok {
			return true
		}
	}
	return false
}

// Fetcher retrieves the deferred bundle.
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// HTTPFetcher fetches the bundle from the site origin.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPFetcher creates a fetcher for the given origin.
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d", path, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Loader fetches the bundle and starts the islands registered with it.
// Its Activate method is a Callback.
type Loader struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu        sync.Mutex
	islands   []Island
	bundle    int
	activated []string
	skipped   []string
}

// NewLoader creates a loader fetching through fetcher.
func NewLoader(fetcher Fetcher, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{fetcher: fetcher, logger: logger}
}

// Validate checks the route globs.
func (i Island) Validate() error {
	for _, p := range i.Routes {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%w: %s: %q", ErrBadPattern, i.Name, p)
		}
	}
	return nil
}

// Register adds an island. Route globs are validated up front.
func (l *Loader) Register(island Island) error {
	if err := island.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.islands = append(l.islands, island)
	return nil
}

// Activate fetches the bundle and starts every island that applies to the
// bootstrap route and consent. One failing island does not stop the others.
func (l *Loader) Activate(ctx context.Context, boot Bootstrap) error {
	body, err := l.fetcher.Fetch(ctx, core.DeferredBundlePath)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrDeferredLoad, err)
	}

	l.mu.Lock()
	l.bundle = len(body)
	islands := make([]Island, len(l.islands))
	copy(islands, l.islands)
	l.mu.Unlock()

	var errs []error
	for _, island := range islands {
		if !island.matches(boot.Route) {
			continue
		}
		if island.RequiresAnalytics && !boot.InitialAnalyticsConsent {
			l.logger.Debug("island skipped without analytics consent", "island", island.Name)
			l.record(&l.skipped, island.Name)
			continue
		}
		if island.Init != nil {
			if err := island.Init(ctx, boot); err != nil {
				errs = append(errs, fmt.Errorf("island %s: %w", island.Name, err))
				continue
			}
		}
		l.record(&l.activated, island.Name)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", core.ErrDeferredLoad, err)
	}
	return nil
}

func (l *Loader) record(list *[]string, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*list = append(*list, name)
}
