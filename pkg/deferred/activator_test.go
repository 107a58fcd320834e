package deferred_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/islands/pkg/adapters/memory"
	"github.com/aretw0/islands/pkg/core"
	"github.com/aretw0/islands/pkg/deferred"
)

type reports struct {
	mu   sync.Mutex
	errs []error
}

func (r *reports) Report(err error, _ ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *reports) all() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func waitDone(t *testing.T, a *deferred.Activator) {
	t.Helper()
	select {
	case <-a.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for activation")
	}
}

func TestActivator_RunsOnlyAfterSignal(t *testing.T) {
	signal := memory.NewSignal()
	a := deferred.NewActivator(context.Background(), signal)
	defer a.Close()

	var calls atomic.Int32
	require.NoError(t, a.Schedule(func(context.Context, deferred.Bootstrap) error {
		calls.Add(1)
		return nil
	}, nil))

	assert.Equal(t, deferred.StatusScheduled, a.Status())
	select {
	case <-a.Done():
		t.Fatal("activation ran before the interactive signal")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Zero(t, calls.Load())

	signal.Fire()
	waitDone(t, a)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, deferred.StatusActivated, a.Status())
}

func TestActivator_ExactlyOnceUnderRepeatedSignals(t *testing.T) {
	signal := memory.NewSignal()
	a := deferred.NewActivator(context.Background(), signal)
	defer a.Close()

	var calls atomic.Int32
	require.NoError(t, a.Schedule(func(context.Context, deferred.Bootstrap) error {
		calls.Add(1)
		return nil
	}, nil))

	signal.Fire()
	signal.Fire()
	waitDone(t, a)
	signal.Fire()

	assert.Equal(t, int32(1), calls.Load())
	assert.Zero(t, signal.Listeners(), "listener must be released after activation")
}

func TestActivator_SecondScheduleRejected(t *testing.T) {
	a := deferred.NewActivator(context.Background(), memory.NewSignal())
	defer a.Close()

	noop := func(context.Context, deferred.Bootstrap) error { return nil }
	require.NoError(t, a.Schedule(noop, nil))
	assert.ErrorIs(t, a.Schedule(noop, nil), deferred.ErrAlreadyScheduled)
}

func TestActivator_ThreadsConsentIntoBootstrap(t *testing.T) {
	tests := []struct {
		name    string
		consent *core.ConsentSnapshot
		want    bool
	}{
		{"undecided", nil, false},
		{"denied", &core.ConsentSnapshot{AnalyticsAllowed: false}, false},
		{"granted", &core.ConsentSnapshot{AnalyticsAllowed: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal := memory.NewSignal()
			a := deferred.NewActivator(context.Background(), signal, deferred.WithPage("p1", "/en", "en"))
			defer a.Close()

			var got deferred.Bootstrap
			require.NoError(t, a.Schedule(func(_ context.Context, boot deferred.Bootstrap) error {
				got = boot
				return nil
			}, tt.consent))
			signal.Fire()
			waitDone(t, a)

			assert.Equal(t, tt.want, got.InitialAnalyticsConsent)
			assert.Equal(t, "/en", got.Route)
			assert.Equal(t, "p1", got.PageID)
			assert.Equal(t, tt.want, a.State().(deferred.ActivatorState).InitialAnalyticsConsent)
		})
	}
}

func TestActivator_FailureIsReportedNotRetried(t *testing.T) {
	signal := memory.NewSignal()
	rep := &reports{}
	a := deferred.NewActivator(context.Background(), signal, deferred.WithReporter(rep))
	defer a.Close()

	var calls atomic.Int32
	boom := errors.New("script error")
	require.NoError(t, a.Schedule(func(context.Context, deferred.Bootstrap) error {
		calls.Add(1)
		return boom
	}, nil))

	signal.Fire()
	waitDone(t, a)
	signal.Fire()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, deferred.StatusFailed, a.Status())
	errs := rep.all()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], core.ErrDeferredLoad)
	assert.ErrorIs(t, errs[0], boom)
}

func TestActivator_PanicIsContained(t *testing.T) {
	signal := memory.NewSignal()
	rep := &reports{}
	a := deferred.NewActivator(context.Background(), signal, deferred.WithReporter(rep))
	defer a.Close()

	require.NoError(t, a.Schedule(func(context.Context, deferred.Bootstrap) error {
		panic("island exploded")
	}, nil))

	assert.NotPanics(t, signal.Fire)
	waitDone(t, a)
	assert.Equal(t, deferred.StatusFailed, a.Status())
	require.Len(t, rep.all(), 1)
}

func TestActivator_CloseBeforeSignalCancels(t *testing.T) {
	signal := memory.NewSignal()
	a := deferred.NewActivator(context.Background(), signal)

	var calls atomic.Int32
	require.NoError(t, a.Schedule(func(context.Context, deferred.Bootstrap) error {
		calls.Add(1)
		return nil
	}, nil))
	a.Close()
	signal.Fire()

	waitDone(t, a)
	assert.Zero(t, calls.Load())
	assert.Zero(t, signal.Listeners())
	assert.Equal(t, deferred.StatusCancelled, a.Status())
	assert.ErrorIs(t, a.Schedule(nil, nil), deferred.ErrClosed)
}

// alreadyInteractive fires listeners during registration, like a host that
// became interactive before the page scheduled its bundle.
type alreadyInteractive struct {
	cancelled atomic.Int32
}

func (s *alreadyInteractive) OnInteractive(fn func()) func() {
	fn()
	return func() { s.cancelled.Add(1) }
}

func TestActivator_HostAlreadyInteractive(t *testing.T) {
	signal := &alreadyInteractive{}
	a := deferred.NewActivator(context.Background(), signal)
	defer a.Close()

	var calls atomic.Int32
	require.NoError(t, a.Schedule(func(context.Context, deferred.Bootstrap) error {
		calls.Add(1)
		return nil
	}, nil))

	waitDone(t, a)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), signal.cancelled.Load())
}
