// Package transport provides telemetry transports: an HTTP collector client,
// a delivery queue, a slog sink, a channel feed, fan-out and an in-memory
// recorder.
package transport

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/islands/pkg/core"
)

// Record is one delivered event.
type Record struct {
	Name    string            `json:"event"`
	Payload map[string]string `json:"payload"`
	SentAt  time.Time         `json:"sent_at"`
}

// String renders the record as name{k=v,...} with sorted keys.
func (r Record) String() string {
	keys := make([]string, 0, len(r.Payload))
	for k := range r.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+r.Payload[k])
	}
	return fmt.Sprintf("%s{%s}", r.Name, strings.Join(parts, ","))
}

func newRecord(name string, payload map[string]string) Record {
	return Record{Name: name, Payload: maps.Clone(payload), SentAt: time.Now().UTC()}
}

// Recorder keeps every event in memory. Set Fail to make sends fail.
type Recorder struct {
	mu      sync.Mutex
	records []Record
	Fail    error
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Send implements core.Transport. Failed sends are still recorded as attempts.
func (r *Recorder) Send(_ context.Context, name string, payload map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, newRecord(name, payload))
	return r.Fail
}

// Records returns a copy of everything sent so far.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Count returns how many events named name were sent.
func (r *Recorder) Count(name core.EventName) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.Name == string(name) {
			n++
		}
	}
	return n
}

// Multi sends every event to all transports and joins their errors.
type Multi []core.Transport

// Send implements core.Transport.
func (m Multi) Send(ctx context.Context, name string, payload map[string]string) error {
	var errs []error
	for _, t := range m {
		if err := t.Send(ctx, name, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ core.Transport = (*Recorder)(nil)
	_ core.Transport = Multi(nil)
)
