package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/aretw0/lifecycle/pkg/core/worker"

	"github.com/aretw0/islands/pkg/core"
)

var (
	// ErrQueueFull is returned when the delivery queue cannot take another record.
	ErrQueueFull = errors.New("telemetry queue is full")
	// ErrQueueClosed is returned by Send after the queue was stopped.
	ErrQueueClosed = errors.New("telemetry queue is closed")
)

// DefaultQueueSize is the queue capacity used when none is given.
const DefaultQueueSize = 256

// Queue puts a slow transport behind a buffered channel drained by a
// lifecycle worker. Send only enqueues; delivery failures go to the reporter
// wrapped in core.ErrTransport.
type Queue struct {
	*worker.BaseWorker
	next     core.Transport
	reporter core.ErrorReporter
	logger   *slog.Logger
	ch       chan Record
	cancel   context.CancelFunc

	mu     sync.Mutex
	closed bool

	delivered atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithQueueLogger sets the logger.
func WithQueueLogger(logger *slog.Logger) QueueOption {
	return func(q *Queue) {
		q.logger = logger
	}
}

// WithQueueReporter sets the collaborator delivery failures are reported to.
func WithQueueReporter(r core.ErrorReporter) QueueOption {
	return func(q *Queue) {
		q.reporter = r
	}
}

// NewQueue creates a queue of size records in front of next. Records wait
// until Start.
func NewQueue(next core.Transport, size int, opts ...QueueOption) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	q := &Queue{
		BaseWorker: worker.NewBaseWorker("telemetry-queue"),
		next:       next,
		ch:         make(chan Record, size),
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.logger == nil {
		q.logger = slog.Default()
	}
	if q.reporter == nil {
		q.reporter = core.LogReporter{Logger: q.logger}
	}
	return q
}

// Send implements core.Transport. It never waits on the wrapped transport.
func (q *Queue) Send(_ context.Context, name string, payload map[string]string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.rejected.Add(1)
		return ErrQueueClosed
	}
	select {
	case q.ch <- newRecord(name, payload):
		return nil
	default:
		q.rejected.Add(1)
		return ErrQueueFull
	}
}

func (q *Queue) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	status := q.BaseWorker.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("telemetry queue already started (status: %s)", status)
	}

	runCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	q.SetStatus(worker.StatusRunning)
	return q.StartFunc(runCtx, q.run)
}

// Stop rejects further records and ends delivery. Records still queued are
// dropped.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	if q.cancel != nil {
		q.StopRequested = true
		q.cancel()
	}
	return q.BaseWorker.Stop(ctx)
}

func (q *Queue) State() worker.State {
	return q.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"queued":            fmt.Sprint(len(q.ch)),
			"delivered":         fmt.Sprint(q.delivered.Load()),
			"failed":            fmt.Sprint(q.failed.Load()),
			"rejected":          fmt.Sprint(q.rejected.Load()),
		}
	})
}

func (q *Queue) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("telemetry queue panic: %v", recovered)
			if q.logger.Enabled(ctx, slog.LevelDebug) {
				q.logger.Error("telemetry queue panic", "error", err, "stack", string(debug.Stack()))
			} else {
				q.logger.Error("telemetry queue panic", "error", err)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			if n := len(q.ch); n > 0 {
				q.logger.Warn("telemetry queue stopped with undelivered records", "count", n)
			}
			return nil
		case rec := <-q.ch:
			q.deliver(ctx, rec)
		}
	}
}

func (q *Queue) deliver(ctx context.Context, rec Record) {
	if err := q.next.Send(ctx, rec.Name, rec.Payload); err != nil {
		if ctx.Err() != nil {
			return
		}
		q.failed.Add(1)
		q.reporter.Report(fmt.Errorf("%w: %s: %w", core.ErrTransport, rec.Name, err), "event", rec.Name)
		return
	}
	q.delivered.Add(1)
}

var _ core.Transport = (*Queue)(nil)
