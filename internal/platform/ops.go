package platform

import (
	"fmt"
	"time"

	"github.com/aretw0/islands/pkg/adapters/consentfile"
	"github.com/aretw0/islands/pkg/adapters/memory"
	"github.com/aretw0/islands/pkg/adapters/transport"
	"github.com/aretw0/islands/pkg/core"
)

// openConsent builds the consent source for the configured adapter.
func openConsent(o *options) (core.ConsentSource, *consentfile.Source, error) {
	if o.consent != nil {
		return o.consent, nil, nil
	}

	switch o.adapter {
	case "memory":
		var initial *core.ConsentSnapshot
		if allowed, ok := o.config["initial_consent"].(bool); ok {
			initial = &core.ConsentSnapshot{AnalyticsAllowed: allowed, DecidedAt: time.Now().UTC()}
		}
		return memory.NewConsent(initial), nil, nil
	case "file":
		path, _ := o.config["consent_path"].(string)
		if path == "" {
			return nil, nil, fmt.Errorf("file consent adapter needs a path")
		}
		fopts := []consentfile.Option{}
		if o.logger != nil {
			fopts = append(fopts, consentfile.WithLogger(o.logger))
		}
		if d, ok := o.config["consent_debounce"].(time.Duration); ok && d > 0 {
			fopts = append(fopts, consentfile.WithDebounce(d))
		}
		src, err := consentfile.NewSource(path, fopts...)
		if err != nil {
			return nil, nil, err
		}
		return src, src, nil
	default:
		return nil, nil, fmt.Errorf("unknown consent adapter: %s", o.adapter)
	}
}

// openTransport builds the telemetry transport from the configured names.
// The "http" collector is put behind a delivery queue that Site.Start runs.
func openTransport(o *options) (core.Transport, *transport.Feed, *transport.Queue, error) {
	if o.transport != nil {
		return o.transport, nil, nil, nil
	}

	var (
		out   transport.Multi
		feed  *transport.Feed
		queue *transport.Queue
	)
	for _, name := range o.transports {
		switch name {
		case "log":
			out = append(out, transport.Log{Logger: o.logger})
		case "http":
			if queue != nil {
				continue
			}
			url, _ := o.config["collector_url"].(string)
			if url == "" {
				return nil, nil, nil, fmt.Errorf("http transport needs a collector url")
			}
			headers, _ := o.config["collector_headers"].(map[string]string)
			size, _ := o.config["event_buffer"].(int)
			queue = transport.NewQueue(transport.NewHTTP(url, headers), size,
				transport.WithQueueLogger(o.logger),
				transport.WithQueueReporter(o.reporter))
			out = append(out, queue)
		case "feed":
			if feed != nil {
				continue
			}
			size, _ := o.config["event_buffer"].(int)
			feed = transport.NewFeed(size)
			out = append(out, feed)
		default:
			return nil, nil, nil, fmt.Errorf("unknown transport: %s", name)
		}
	}
	if len(out) == 0 {
		return nil, nil, nil, fmt.Errorf("no telemetry transport configured")
	}
	if len(out) == 1 {
		return out[0], feed, queue, nil
	}
	return out, feed, queue, nil
}

// ReadConsent returns the decision stored in a consent file.
func ReadConsent(path string) (*core.ConsentSnapshot, error) {
	return consentfile.Load(path)
}

// WriteConsent stores a decision in a consent file. A nil allowed clears it.
func WriteConsent(path string, allowed *bool) (*core.ConsentSnapshot, error) {
	if allowed == nil {
		return nil, consentfile.Save(path, nil)
	}
	snap := &core.ConsentSnapshot{AnalyticsAllowed: *allowed, DecidedAt: time.Now().UTC().Truncate(time.Second)}
	if err := consentfile.Save(path, snap); err != nil {
		return nil, err
	}
	return snap, nil
}
