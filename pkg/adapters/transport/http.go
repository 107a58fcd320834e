package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/islands/pkg/core"
)

const (
	requestTimeout = 5 * time.Second
	maxRetries     = 3
)

// HTTP posts events as JSON to a collector endpoint, retrying on 5xx. Send
// blocks for the whole exchange, so hand it to a gate only behind a Queue.
type HTTP struct {
	URL     string
	Headers map[string]string
	Client  *http.Client
	// Backoff is the delay unit between attempts. Zero means one second.
	Backoff time.Duration
}

// NewHTTP creates a collector client for url.
func NewHTTP(url string, headers map[string]string) *HTTP {
	return &HTTP{
		URL:     url,
		Headers: headers,
		Client:  &http.Client{Timeout: requestTimeout},
	}
}

// Send implements core.Transport.
func (h *HTTP) Send(ctx context.Context, name string, payload map[string]string) error {
	body, err := json.Marshal(newRecord(name, payload))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	backoff := h.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range h.Headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return fmt.Errorf("collector rejected: HTTP %d", resp.StatusCode)
		}
		// 5xx: retry
		lastErr = fmt.Errorf("collector server error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("collector failed after %d attempts: %w", maxRetries, lastErr)
}

var _ core.Transport = (*HTTP)(nil)
