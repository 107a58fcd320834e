package core

import "errors"

// Common errors.
var (
	// ErrInvalidEvent is returned when a telemetry event violates the
	// precondition of the gate (missing name, locale or payload fields).
	ErrInvalidEvent = errors.New("invalid telemetry event")

	// ErrTransport marks a failed handoff to the telemetry transport.
	ErrTransport = errors.New("telemetry transport failed")

	// ErrDeferredLoad marks a deferred bundle that failed to fetch or execute.
	ErrDeferredLoad = errors.New("deferred bundle failed to load")

	// ErrLocaleUnresolved is returned by a LocaleResolver that cannot map a route.
	ErrLocaleUnresolved = errors.New("locale could not be resolved")
)
