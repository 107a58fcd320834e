package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/islands/pkg/core"
)

func TestTelemetryEvent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		event   core.TelemetryEvent
		wantErr bool
	}{
		{"route view", core.RouteView("/en/books/foo", "en"), false},
		{"brief open", core.BriefOpen("fr"), false},
		{"engagement", core.CaseStudyEngagement("atlas", "ar"), false},
		{"empty name", core.TelemetryEvent{Locale: "en"}, true},
		{"empty locale", core.BriefOpen(""), true},
		{"unknown kind", core.TelemetryEvent{Name: "scroll_depth", Locale: "en", Payload: map[string]string{"locale": "en"}}, true},
		{"extra field", core.TelemetryEvent{Name: core.EventBriefOpen, Locale: "en", Payload: map[string]string{"locale": "en", "x": "y"}}, true},
		{"missing field", core.TelemetryEvent{Name: core.EventRouteView, Locale: "en", Payload: map[string]string{"locale": "en", "path": "/"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, core.ErrInvalidEvent)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTelemetryEvent_CloneIsolatesPayload(t *testing.T) {
	ev := core.RouteView("/en", "en")
	c := ev.Clone()
	c.Payload["pathname"] = "/mutated"
	assert.Equal(t, "/en", ev.Payload["pathname"])
}

func TestAnalyticsAllowed(t *testing.T) {
	assert.False(t, core.AnalyticsAllowed(nil))
	assert.False(t, core.AnalyticsAllowed(&core.ConsentSnapshot{}))
	assert.True(t, core.AnalyticsAllowed(&core.ConsentSnapshot{AnalyticsAllowed: true}))
}
