package audit

import (
	"encoding/json"
	"time"
)

// EventName is the discriminator carried in every audit event.
type EventName string

const (
	EventStart          EventName = "F2F_CRI_START"
	EventVendorStart    EventName = "F2F_VENDOR_START"
	EventAuthCodeIssued EventName = "F2F_CRI_AUTH_CODE_ISSUED"
	EventEnd            EventName = "F2F_CRI_END"
	EventVendorResponse EventName = "F2F_VENDOR_RESPONSE_RECEIVED"
	EventVCIssued       EventName = "F2F_CRI_VC_ISSUED"
	EventSessionAborted EventName = "F2F_CRI_SESSION_ABORTED"
)

// User identifies the journey an event belongs to.
type User struct {
	SessionID            string `json:"session_id"`
	UserID               string `json:"user_id"`
	IPAddress            string `json:"ip_address,omitempty"`
	PersistentSessionID  string `json:"persistent_session_id,omitempty"`
	GovukSigninJourneyID string `json:"govuk_signin_journey_id,omitempty"`
}

// Event is the common audit envelope. Restricted holds PII for the
// restricted audit stream; Extensions holds non-personal context.
type Event struct {
	EventName        EventName      `json:"event_name"`
	ClientID         string         `json:"client_id,omitempty"`
	ComponentID      string         `json:"component_id"`
	Timestamp        int64          `json:"timestamp"`
	EventTimestampMs int64          `json:"event_timestamp_ms"`
	User             User           `json:"user"`
	Restricted       map[string]any `json:"restricted,omitempty"`
	Extensions       map[string]any `json:"extensions,omitempty"`
}

// Stamp sets both timestamps from t unless they were already set.
func (e *Event) Stamp(t time.Time) {
	if e.Timestamp == 0 {
		e.Timestamp = t.Unix()
	}
	if e.EventTimestampMs == 0 {
		e.EventTimestampMs = t.UnixMilli()
	}
}

// WithDeviceInformation records the opaque encoded device header under restricted.
func (e *Event) WithDeviceInformation(encoded string) {
	if encoded == "" {
		return
	}
	if e.Restricted == nil {
		e.Restricted = map[string]any{}
	}
	e.Restricted["device_information"] = map[string]string{"encoded": encoded}
}

// Marshal encodes the event for a sink.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
