// Package telemetry implements the consent-checked, exactly-once event gate
// and the observers that feed it.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/aretw0/islands/pkg/core"
)

// Gate hands events to the transport at most once per guard and only with
// analytics consent.
type Gate struct {
	transport core.Transport
	reporter  core.ErrorReporter
	logger    *slog.Logger

	dispatched      atomic.Int64
	alreadyFired    atomic.Int64
	consentDenied   atomic.Int64
	invalid         atomic.Int64
	transportErrors atomic.Int64
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithLogger sets the logger used for dispatch decisions.
func WithLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

// WithReporter sets the collaborator transport failures are reported to.
func WithReporter(r core.ErrorReporter) GateOption {
	return func(g *Gate) {
		g.reporter = r
	}
}

// NewGate creates a Gate in front of transport.
func NewGate(transport core.Transport, opts ...GateOption) *Gate {
	g := &Gate{transport: transport}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.reporter == nil {
		g.reporter = core.LogReporter{Logger: g.logger}
	}
	return g
}

// TryDispatch decides whether event may fire for the occurrence guarded by
// guard under consent.
//
// A latched guard short-circuits to AlreadyFired. Denied or absent consent
// skips without latching, so the same occurrence can still fire after a later
// grant. Otherwise the guard latches before the transport is called; a
// transport failure leaves it latched and is never retried here.
func (g *Gate) TryDispatch(ctx context.Context, event core.TelemetryEvent, guard *core.FireGuard, consent *core.ConsentSnapshot) Outcome {
	if guard == nil {
		g.invalid.Add(1)
		return Outcome{Status: StatusInvalid, Err: fmt.Errorf("%w: nil guard", core.ErrInvalidEvent)}
	}
	if err := event.Validate(); err != nil {
		g.invalid.Add(1)
		return Outcome{Status: StatusInvalid, Err: err}
	}

	if guard.Latched() {
		g.alreadyFired.Add(1)
		return skipped(ReasonAlreadyFired)
	}
	if !core.AnalyticsAllowed(consent) {
		g.consentDenied.Add(1)
		g.logger.Debug("telemetry skipped", "event", event.Name, "reason", ReasonConsentDenied)
		return skipped(ReasonConsentDenied)
	}
	if !guard.Latch() {
		g.alreadyFired.Add(1)
		return skipped(ReasonAlreadyFired)
	}

	ev := event.Clone()
	if err := g.transport.Send(ctx, string(ev.Name), ev.Payload); err != nil {
		g.transportErrors.Add(1)
		err = fmt.Errorf("%w: %s: %w", core.ErrTransport, ev.Name, err)
		g.reporter.Report(err, "event", string(ev.Name), "locale", ev.Locale)
		return Outcome{Status: StatusTransportError, Err: err}
	}

	g.dispatched.Add(1)
	g.logger.Debug("telemetry dispatched", "event", ev.Name, "locale", ev.Locale)
	return dispatched()
}
