package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/islands/pkg/core"
)

func TestHTTP_PostsJSON(t *testing.T) {
	var got Record
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Collector-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, map[string]string{"X-Collector-Key": "secret"})
	err := h.Send(context.Background(), "brief_open", map[string]string{"locale": "en"})
	require.NoError(t, err)

	assert.Equal(t, "brief_open", got.Name)
	assert.Equal(t, map[string]string{"locale": "en"}, got.Payload)
	assert.False(t, got.SentAt.IsZero())
}

func TestHTTP_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, nil)
	h.Backoff = time.Millisecond
	require.NoError(t, h.Send(context.Background(), "route_view", map[string]string{"pathname": "/en", "locale": "en"}))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTP_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, nil)
	h.Backoff = time.Millisecond
	err := h.Send(context.Background(), "brief_open", map[string]string{"locale": "en"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestMulti_JoinsErrors(t *testing.T) {
	ok := NewRecorder()
	bad := NewRecorder()
	bad.Fail = errors.New("boom")

	err := Multi{ok, bad}.Send(context.Background(), "brief_open", map[string]string{"locale": "en"})
	require.Error(t, err)
	assert.ErrorIs(t, err, bad.Fail)
	assert.Equal(t, 1, ok.Count(core.EventBriefOpen))
	assert.Equal(t, 1, bad.Count(core.EventBriefOpen))
}

func TestFeed_NeverBlocks(t *testing.T) {
	f := NewFeed(1)
	require.NoError(t, f.Send(context.Background(), "brief_open", map[string]string{"locale": "en"}))
	assert.ErrorIs(t, f.Send(context.Background(), "brief_open", map[string]string{"locale": "en"}), ErrFeedFull)

	rec := <-f.Records()
	assert.Equal(t, "brief_open{locale=en}", rec.String())
}

func TestRecorder_CopiesPayload(t *testing.T) {
	r := NewRecorder()
	payload := map[string]string{"locale": "en"}
	require.NoError(t, r.Send(context.Background(), "brief_open", payload))
	payload["locale"] = "fr"
	assert.Equal(t, "en", r.Records()[0].Payload["locale"])
}

func TestFeed_SendAfterCloseFails(t *testing.T) {
	f := NewFeed(4)
	f.Close()
	f.Close()

	err := f.Send(context.Background(), "brief_open", map[string]string{"locale": "en"})
	assert.ErrorIs(t, err, ErrFeedClosed)

	_, ok := <-f.Records()
	assert.False(t, ok)
}

func TestQueue_SendReturnsWhileCollectorIsSlow(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	q := NewQueue(NewHTTP(srv.URL, nil), 8)
	require.NoError(t, q.Start(context.Background()))
	defer q.Stop(context.Background())

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Send(context.Background(), "brief_open", map[string]string{"locale": "en"}))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestQueue_ReportsDeliveryFailures(t *testing.T) {
	down := NewRecorder()
	down.Fail = errors.New("collector down")
	reported := make(chan error, 1)

	q := NewQueue(down, 4, WithQueueReporter(core.ReporterFunc(func(err error, _ ...any) {
		reported <- err
	})))
	require.NoError(t, q.Start(context.Background()))
	defer q.Stop(context.Background())

	require.NoError(t, q.Send(context.Background(), "route_view", map[string]string{"pathname": "/en", "locale": "en"}))

	select {
	case err := <-reported:
		assert.ErrorIs(t, err, core.ErrTransport)
		assert.ErrorIs(t, err, down.Fail)
	case <-time.After(time.Second):
		t.Fatal("delivery failure was not reported")
	}
	assert.Eventually(t, func() bool { return q.State().Metadata["failed"] == "1" }, time.Second, 5*time.Millisecond)
}

func TestQueue_FullAndClosed(t *testing.T) {
	rec := NewRecorder()
	q := NewQueue(rec, 1)

	require.NoError(t, q.Send(context.Background(), "brief_open", map[string]string{"locale": "en"}))
	assert.ErrorIs(t, q.Send(context.Background(), "brief_open", map[string]string{"locale": "en"}), ErrQueueFull)

	require.NoError(t, q.Stop(context.Background()))
	assert.ErrorIs(t, q.Send(context.Background(), "brief_open", map[string]string{"locale": "en"}), ErrQueueClosed)
	assert.Empty(t, rec.Records())
}

func TestQueue_DeliversAfterStart(t *testing.T) {
	rec := NewRecorder()
	q := NewQueue(rec, 4)
	require.NoError(t, q.Send(context.Background(), "brief_open", map[string]string{"locale": "en"}))
	assert.Empty(t, rec.Records())

	require.NoError(t, q.Start(context.Background()))
	defer q.Stop(context.Background())
	assert.Eventually(t, func() bool { return rec.Count(core.EventBriefOpen) == 1 }, time.Second, 5*time.Millisecond)
	assert.Error(t, q.Start(context.Background()))
}
