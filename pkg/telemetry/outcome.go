package telemetry

import "fmt"

// Status is the result class of a dispatch attempt.
type Status int

const (
	StatusDispatched Status = iota
	StatusSkipped
	StatusTransportError
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusDispatched:
		return "dispatched"
	case StatusSkipped:
		return "skipped"
	case StatusTransportError:
		return "transport_error"
	case StatusInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// SkipReason explains a skipped dispatch. Skips are expected, not errors.
type SkipReason string

const (
	ReasonNone          SkipReason = ""
	ReasonAlreadyFired  SkipReason = "already_fired"
	ReasonConsentDenied SkipReason = "consent_denied"
	// ReasonNoNavigation is reported by the route observer for the first path
	// it sees and for re-renders that never produced an occurrence.
	ReasonNoNavigation SkipReason = "no_navigation"
	// ReasonInactive is reported by observers that are not mounted.
	ReasonInactive SkipReason = "inactive"
)

// Outcome is what TryDispatch and the observers return.
type Outcome struct {
	Status Status
	Reason SkipReason
	Err    error
}

// Dispatched reports whether the event was handed to the transport successfully.
func (o Outcome) Dispatched() bool { return o.Status == StatusDispatched }

func (o Outcome) String() string {
	switch o.Status {
	case StatusSkipped:
		return fmt.Sprintf("skipped(%s)", o.Reason)
	case StatusTransportError, StatusInvalid:
		return fmt.Sprintf("%s: %v", o.Status, o.Err)
	default:
		return o.Status.String()
	}
}

func dispatched() Outcome { return Outcome{Status: StatusDispatched} }

func skipped(reason SkipReason) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}
