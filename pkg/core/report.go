package core

import "log/slog"

// ErrorReporter is the error-observability collaborator. Reports never reach
// the user and never block rendering.
type ErrorReporter interface {
	Report(err error, attrs ...any)
}

// LogReporter reports errors through slog.
type LogReporter struct {
	Logger *slog.Logger
}

// Report implements ErrorReporter.
func (r LogReporter) Report(err error, attrs ...any) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("coordinator error", append([]any{"error", err}, attrs...)...)
}

// ReporterFunc adapts a function to ErrorReporter.
type ReporterFunc func(err error, attrs ...any)

// Report implements ErrorReporter.
func (f ReporterFunc) Report(err error, attrs ...any) { f(err, attrs...) }
