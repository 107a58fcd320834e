// Package lifecycle exposes dispatched telemetry records as a lifecycle event source.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/islands/pkg/adapters/transport"
)

type dispatchSource struct {
	records <-chan transport.Record
	out     chan lifecycle.Event
}

// NewSource bridges a record channel (see transport.Feed) to the generic
// lifecycle Event interface. Records print as name{key=value,...}.
func NewSource(records <-chan transport.Record) lifecycle.Source {
	return &dispatchSource{
		records: records,
		out:     make(chan lifecycle.Event),
	}
}

func (s *dispatchSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards records until ctx is done or the record channel closes, then
// closes Events.
func (s *dispatchSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case r, ok := <-s.records:
				if !ok {
					return nil
				}
				select {
				case s.out <- r:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
