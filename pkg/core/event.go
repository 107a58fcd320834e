package core

import "fmt"

// EventName identifies a recognized telemetry event kind.
type EventName string

const (
	EventRouteView           EventName = "route_view"
	EventBriefOpen           EventName = "brief_open"
	EventCaseStudyEngagement EventName = "case_study_engagement"
)

// payloadKeys lists the fixed payload shape of every recognized kind.
var payloadKeys = map[EventName][]string{
	EventRouteView:           {"pathname", "locale"},
	EventBriefOpen:           {"locale"},
	EventCaseStudyEngagement: {"slug", "locale"},
}

// TelemetryEvent is one semantic occurrence. Build a new one per occurrence.
type TelemetryEvent struct {
	Name    EventName
	Payload map[string]string
	Locale  string
}

// RouteView builds a route_view event.
func RouteView(pathname, locale string) TelemetryEvent {
	return TelemetryEvent{
		Name:    EventRouteView,
		Payload: map[string]string{"pathname": pathname, "locale": locale},
		Locale:  locale,
	}
}

// BriefOpen builds a brief_open event.
func BriefOpen(locale string) TelemetryEvent {
	return TelemetryEvent{
		Name:    EventBriefOpen,
		Payload: map[string]string{"locale": locale},
		Locale:  locale,
	}
}

// CaseStudyEngagement builds a case_study_engagement event.
func CaseStudyEngagement(slug, locale string) TelemetryEvent {
	return TelemetryEvent{
		Name:    EventCaseStudyEngagement,
		Payload: map[string]string{"slug": slug, "locale": locale},
		Locale:  locale,
	}
}

// Validate checks the event against its kind's fixed shape.
func (e TelemetryEvent) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidEvent)
	}
	if e.Locale == "" {
		return fmt.Errorf("%w: %s has empty locale", ErrInvalidEvent, e.Name)
	}
	keys, ok := payloadKeys[e.Name]
	if !ok {
		return fmt.Errorf("%w: unknown event %q", ErrInvalidEvent, e.Name)
	}
	if len(e.Payload) != len(keys) {
		return fmt.Errorf("%w: %s expects %d payload fields, got %d", ErrInvalidEvent, e.Name, len(keys), len(e.Payload))
	}
	for _, k := range keys {
		if _, ok := e.Payload[k]; !ok {
			return fmt.Errorf("%w: %s missing payload field %q", ErrInvalidEvent, e.Name, k)
		}
	}
	return nil
}

// Clone returns a copy whose payload can be handed to a transport safely.
func (e TelemetryEvent) Clone() TelemetryEvent {
	payload := make(map[string]string, len(e.Payload))
	for k, v := range e.Payload {
		payload[k] = v
	}
	e.Payload = payload
	return e
}
