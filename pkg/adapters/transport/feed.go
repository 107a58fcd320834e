package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/islands/pkg/core"
)

var (
	// ErrFeedFull is returned when the feed buffer cannot take another record.
	ErrFeedFull = errors.New("telemetry feed is full")
	// ErrFeedClosed is returned by Send after Close.
	ErrFeedClosed = errors.New("telemetry feed is closed")
)

// Feed publishes records on a buffered channel without ever blocking Send.
type Feed struct {
	mu     sync.RWMutex
	closed bool
	ch     chan Record
}

// NewFeed creates a feed buffering up to size records.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 100
	}
	return &Feed{ch: make(chan Record, size)}
}

// Records returns the receive side of the feed.
func (f *Feed) Records() <-chan Record {
	return f.ch
}

// Send implements core.Transport.
func (f *Feed) Send(_ context.Context, name string, payload map[string]string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return ErrFeedClosed
	}
	select {
	case f.ch <- newRecord(name, payload):
		return nil
	default:
		return ErrFeedFull
	}
}

// Close closes the channel. Later sends return ErrFeedClosed.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	close(f.ch)
}

var _ core.Transport = (*Feed)(nil)
