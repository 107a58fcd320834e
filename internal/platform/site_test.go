package platform_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/islands"
	"github.com/aretw0/islands/internal/platform"
	"github.com/aretw0/islands/pkg/adapters/transport"
	"github.com/aretw0/islands/pkg/core"
	"github.com/aretw0/islands/pkg/deferred"
	"github.com/aretw0/islands/pkg/shell"
	"github.com/aretw0/islands/pkg/telemetry"
)

func quiet() islands.Option {
	return islands.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNew_Defaults(t *testing.T) {
	site, err := islands.New(quiet())
	require.NoError(t, err)

	assert.Equal(t, "en", site.Locales().Default().Tag)
	assert.Nil(t, site.Consent().Current())
	assert.Nil(t, site.Events())

	st := site.State().(platform.SiteState)
	assert.Equal(t, "en", st.Locale)
	assert.False(t, st.Watching)
	assert.Equal(t, "site", site.ComponentType())
}

func TestNew_RejectsBadConfiguration(t *testing.T) {
	tests := []struct {
		name string
		opts []islands.Option
	}{
		{"Unknown Consent Adapter", []islands.Option{islands.WithConsentAdapter("s3")}},
		{"File Adapter Without Path", []islands.Option{islands.WithConsentAdapter("file")}},
		{"Unknown Transport", []islands.Option{islands.WithTransports("kafka")}},
		{"HTTP Without Collector", []islands.Option{islands.WithTransports("http")}},
		{"No Transports", []islands.Option{islands.WithTransports()}},
		{"Bad Locale", []islands.Option{islands.WithLocales("not a tag")}},
		{"Bad Island Glob", []islands.Option{islands.WithIsland(deferred.Island{Name: "x", Routes: []string{"/[a"}})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := islands.New(append(tt.opts, quiet())...)
			assert.Error(t, err)
		})
	}
}

func TestSite_HandlerUsesConsentSourceUnlessCookie(t *testing.T) {
	site, err := islands.New(quiet(), islands.WithLocales("en", "ar"), islands.WithInitialConsent(true))
	require.NoError(t, err)
	srv := httptest.NewServer(site.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ar")
	require.NoError(t, err)
	page, err := shell.Inspect(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.True(t, page.Consent.AnalyticsAllowed)
	assert.Equal(t, "rtl", page.Attrs["dir"])

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/ar", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: shell.CookieConsent, Value: "denied"})
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	page, err = shell.Inspect(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.False(t, page.Consent.AnalyticsAllowed)
}

func TestSite_FileConsentWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "consent.yaml")
	site, err := islands.New(quiet(),
		islands.WithConsentFile(path),
		islands.WithWatch(true),
		islands.WithConsentDebounce(20*time.Millisecond),
	)
	require.NoError(t, err)
	require.NoError(t, site.Start(ctx))
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer stopCancel()
		assert.NoError(t, site.Stop(stopCtx))
	}()

	assert.True(t, site.State().(platform.SiteState).Watching)
	assert.Equal(t, "consent-file", site.State().(platform.SiteState).ConsentSrc)

	yes := true
	_, err = islands.WriteConsent(path, &yes)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return core.AnalyticsAllowed(site.Consent().Current())
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSite_EventsBridgeFeed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	site, err := islands.New(quiet(), islands.WithTransports("feed"), islands.WithInitialConsent(true))
	require.NoError(t, err)

	events := site.Events()
	require.NotNil(t, events)
	require.NoError(t, events.Start(ctx))

	_, err = islands.Simulate(ctx, site, &islands.Script{
		Route: "/en",
		Steps: []platform.Step{{Navigate: "/en/books/foo"}},
	})
	require.NoError(t, err)

	select {
	case e := <-events.Events():
		assert.Equal(t, "route_view{locale=en,pathname=/en/books/foo}", fmt.Sprint(e))
	case <-time.After(2 * time.Second):
		t.Fatal("no event bridged")
	}
}

func TestSite_SlowCollectorDoesNotBlockDispatch(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	site, err := islands.New(quiet(),
		islands.WithTransports("http"),
		islands.WithCollector(srv.URL, nil),
		islands.WithInitialConsent(true),
	)
	require.NoError(t, err)
	require.NoError(t, site.Start(context.Background()))
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer stopCancel()
		assert.NoError(t, site.Stop(stopCtx))
	}()

	start := time.Now()
	out := site.Gate().TryDispatch(context.Background(), core.BriefOpen("en"), core.NewFireGuard(), site.Consent().Current())
	assert.Less(t, time.Since(start), 50*time.Millisecond)
	assert.True(t, out.Dispatched())
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.NotNil(t, site.State().(platform.SiteState).Queue)
}

func TestSite_DispatchAfterStopIsReported(t *testing.T) {
	var reported []error
	site, err := islands.New(quiet(),
		islands.WithTransports("feed"),
		islands.WithInitialConsent(true),
		islands.WithReporter(core.ReporterFunc(func(err error, _ ...any) {
			reported = append(reported, err)
		})),
	)
	require.NoError(t, err)
	require.NoError(t, site.Start(context.Background()))
	require.NoError(t, site.Stop(context.Background()))
	require.NoError(t, site.Stop(context.Background()))

	out := site.Gate().TryDispatch(context.Background(), core.BriefOpen("en"), core.NewFireGuard(), site.Consent().Current())
	assert.Equal(t, telemetry.StatusTransportError, out.Status)
	assert.ErrorIs(t, out.Err, transport.ErrFeedClosed)
	assert.Len(t, reported, 1)
}

func TestSimulate_DefaultScript(t *testing.T) {
	recorder := transport.NewRecorder()
	site, err := islands.New(quiet(),
		islands.WithTransport(recorder),
		islands.WithIsland(deferred.Island{Name: "reader", Routes: []string{"/*/books/**"}}),
		islands.WithIsland(deferred.Island{Name: "analytics", RequiresAnalytics: true}),
	)
	require.NoError(t, err)

	tr, err := islands.Simulate(context.Background(), site, islands.DefaultScript("en"))
	require.NoError(t, err)

	outcomes := make(map[string][]string)
	for _, s := range tr.Steps {
		outcomes[s.Action] = append(outcomes[s.Action], s.Outcome)
	}
	// The first navigation waits for consent, the re-render is not a navigation.
	assert.Equal(t, []string{"skipped(consent_denied)", "skipped(consent_denied)"}, outcomes["navigate /en/books/foo"])
	// The denied brief_open is delivered by the grant; the remount gets a fresh guard.
	assert.Equal(t, []string{"skipped(consent_denied)", "skipped(already_fired)", "dispatched"}, outcomes["open brief"])
	assert.Equal(t, []string{"activated"}, outcomes["interactive"])
	// The host is already interactive, so the remounted instance activates at once.
	assert.Equal(t, []string{"activated"}, outcomes["mount"])
	assert.Equal(t, []string{"past"}, outcomes["scroll 120"])

	assert.Equal(t, 1, recorder.Count(core.EventRouteView))
	assert.Equal(t, 2, recorder.Count(core.EventBriefOpen))
	assert.Equal(t, 1, recorder.Count(core.EventCaseStudyEngagement))

	last := tr.Steps[len(tr.Steps)-1]
	assert.Equal(t, "en", last.Attributes["lang"])
}

func TestSimulate_RejectsEmptyStep(t *testing.T) {
	site, err := islands.New(quiet())
	require.NoError(t, err)
	_, err = islands.Simulate(context.Background(), site, &islands.Script{Steps: []platform.Step{{}}})
	assert.Error(t, err)
}

func TestConsentFileOps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "consent.yaml")

	snap, err := islands.ReadConsent(path)
	require.NoError(t, err)
	assert.Nil(t, snap)

	no := false
	snap, err = islands.WriteConsent(path, &no)
	require.NoError(t, err)
	assert.False(t, snap.AnalyticsAllowed)

	snap, err = islands.ReadConsent(path)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.False(t, snap.AnalyticsAllowed)

	_, err = islands.WriteConsent(path, nil)
	require.NoError(t, err)
	snap, err = islands.ReadConsent(path)
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, platform.ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9090"
locales: [en, ar]
theme: dark
scroll_threshold: 40
consent:
  file: state/consent.yaml
  watch: true
  debounce: 250ms
telemetry:
  transports: [log, feed]
  buffer: 8
islands:
  - name: reader
    routes: ["/*/books/**"]
  - name: analytics
    requires_analytics: true
`), 0o644))

	cfg, err := islands.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, core.ThemeDark, cfg.Theme)
	assert.Equal(t, filepath.Join(dir, "state", "consent.yaml"), cfg.Consent.File)
	assert.Equal(t, 250*time.Millisecond, cfg.Consent.Debounce)
	require.Len(t, cfg.Islands, 2)
	assert.True(t, cfg.Islands[1].RequiresAnalytics)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "state"), 0o755))
	site, err := islands.New(append(cfg.Options(), quiet())...)
	require.NoError(t, err)
	st := site.State().(platform.SiteState)
	assert.Equal(t, []string{"reader", "analytics"}, st.Islands)
	assert.True(t, st.Feed)
	assert.Equal(t, "consent-file", st.ConsentSrc)

	require.NoError(t, os.WriteFile(path, []byte("theme: neon\n"), 0o644))
	_, err = islands.LoadConfig(path)
	assert.Error(t, err)
}
