package transport

import (
	"context"
	"log/slog"

	"github.com/aretw0/islands/pkg/core"
)

// Log writes every event to a slog.Logger at info level.
type Log struct {
	Logger *slog.Logger
}

// Send implements core.Transport.
func (l Log) Send(ctx context.Context, name string, payload map[string]string) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := make([]any, 0, len(payload)+1)
	attrs = append(attrs, "event", name)
	for k, v := range payload {
		attrs = append(attrs, slog.String(k, v))
	}
	logger.InfoContext(ctx, "telemetry", attrs...)
	return nil
}

var _ core.Transport = Log{}
