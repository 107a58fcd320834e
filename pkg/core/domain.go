// Package core holds the domain types and host contracts shared by the
// coordinator components.
package core

import "time"

// DeferredBundlePath is the fixed path the deferred island bundle is served from.
const DeferredBundlePath = "/deferred/islands.js"

// InitialConsentGlobal is the window property the server uses to hand the
// initial analytics consent to the deferred bundle.
const InitialConsentGlobal = "__INITIAL_ANALYTICS_CONSENT__"

// ConsentSnapshot is one consent decision. Snapshots are values: a new decision
// produces a new snapshot. A nil *ConsentSnapshot means no decision was made yet.
type ConsentSnapshot struct {
	AnalyticsAllowed bool      `yaml:"analytics_allowed" json:"analytics_allowed"`
	DecidedAt        time.Time `yaml:"decided_at,omitempty" json:"decided_at,omitempty"`
}

// AnalyticsAllowed reports whether the (possibly absent) snapshot allows analytics.
// An absent decision never allows analytics.
func AnalyticsAllowed(c *ConsentSnapshot) bool {
	return c != nil && c.AnalyticsAllowed
}

// Direction is the text direction of a locale.
type Direction string

const (
	DirLTR Direction = "ltr"
	DirRTL Direction = "rtl"
)

// Locale is the resolved locale of a route.
type Locale struct {
	Tag       string
	Direction Direction
}

// Theme is a document color theme.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)
