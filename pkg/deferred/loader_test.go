package deferred_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/islands/pkg/core"
	"github.com/aretw0/islands/pkg/deferred"
)

func bundleServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != core.DeferredBundlePath {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte("/* islands */"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoader_StartsMatchingIslands(t *testing.T) {
	srv := bundleServer(t, http.StatusOK)
	loader := deferred.NewLoader(deferred.NewHTTPFetcher(srv.URL), nil)

	var started []string
	initFn := func(name string) func(context.Context, deferred.Bootstrap) error {
		return func(context.Context, deferred.Bootstrap) error {
			started = append(started, name)
			return nil
		}
	}
	require.NoError(t, loader.Register(deferred.Island{Name: "nav", Init: initFn("nav")}))
	require.NoError(t, loader.Register(deferred.Island{Name: "reader", Routes: []string{"/*/books/**"}, Init: initFn("reader")}))
	require.NoError(t, loader.Register(deferred.Island{Name: "cases", Routes: []string{"/*/work/*"}, Init: initFn("cases")}))
	require.NoError(t, loader.Register(deferred.Island{Name: "analytics", RequiresAnalytics: true, Init: initFn("analytics")}))

	err := loader.Activate(context.Background(), deferred.Bootstrap{Route: "/en/books/foo"})
	require.NoError(t, err)

	assert.Equal(t, []string{"nav", "reader"}, started)
	state := loader.State().(deferred.LoaderState)
	assert.Equal(t, []string{"analytics"}, state.Skipped)
	assert.Equal(t, len("/* islands */"), state.BundleBytes)
}

func TestLoader_AnalyticsIslandWithConsent(t *testing.T) {
	srv := bundleServer(t, http.StatusOK)
	loader := deferred.NewLoader(deferred.NewHTTPFetcher(srv.URL), nil)

	started := false
	require.NoError(t, loader.Register(deferred.Island{
		Name:              "analytics",
		RequiresAnalytics: true,
		Init: func(context.Context, deferred.Bootstrap) error {
			started = true
			return nil
		},
	}))

	require.NoError(t, loader.Activate(context.Background(), deferred.Bootstrap{Route: "/en", InitialAnalyticsConsent: true}))
	assert.True(t, started)
}

func TestLoader_FetchFailure(t *testing.T) {
	srv := bundleServer(t, http.StatusServiceUnavailable)
	loader := deferred.NewLoader(deferred.NewHTTPFetcher(srv.URL), nil)

	err := loader.Activate(context.Background(), deferred.Bootstrap{Route: "/en"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDeferredLoad)
	assert.Contains(t, err.Error(), "HTTP 503")
}

func TestLoader_IslandFailureDoesNotStopOthers(t *testing.T) {
	srv := bundleServer(t, http.StatusOK)
	loader := deferred.NewLoader(deferred.NewHTTPFetcher(srv.URL), nil)

	boom := errors.New("boom")
	require.NoError(t, loader.Register(deferred.Island{Name: "broken", Init: func(context.Context, deferred.Bootstrap) error { return boom }}))
	require.NoError(t, loader.Register(deferred.Island{Name: "ok"}))

	err := loader.Activate(context.Background(), deferred.Bootstrap{Route: "/en"})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, core.ErrDeferredLoad)
	assert.Equal(t, []string{"ok"}, loader.State().(deferred.LoaderState).Activated)
}

func TestLoader_RejectsBadPattern(t *testing.T) {
	loader := deferred.NewLoader(deferred.NewHTTPFetcher("http://localhost"), nil)
	err := loader.Register(deferred.Island{Name: "bad", Routes: []string{"/en/[unclosed"}})
	assert.ErrorIs(t, err, deferred.ErrBadPattern)
}
