// Package telemetry defines the typed events that flow over the WebSocket
// connection between bmistationd and its clients (bmictl watch, wall
// displays). Every event carries the shared envelope so clients can filter
// by type without knowing the full schema.
package telemetry

import "time"

// EventType identifies the kind of WebSocket event.
type EventType string

const (
	EventHeartbeat   EventType = "heartbeat"
	EventState       EventType = "state"
	EventLog         EventType = "log"
	EventScan        EventType = "scan"
	EventPerson      EventType = "person"
	EventReading     EventType = "reading"
	EventProgress    EventType = "progress"
	EventMeasurement EventType = "measurement"
	EventSaved       EventType = "saved"
	EventCleared     EventType = "cleared"
)

// Event is the base envelope shared by every event type.
type Event struct {
	Type EventType `json:"type"`
	TS   string    `json:"ts"`
}

// NewEvent builds an envelope stamped with the current UTC time.
func NewEvent(t EventType) Event {
	return Event{Type: t, TS: NowTS()}
}

// NowTS returns the current UTC time as an RFC 3339 nano string, matching
// the timestamp format used across all events.
func NowTS() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Heartbeat is sent periodically so clients can detect connectivity and
// monitor daemon uptime.
type Heartbeat struct {
	Event
	State         string `json:"state"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// StateTransition is emitted whenever the session moves between operating
// states (e.g. IDLE -> PERSON_READY).
type StateTransition struct {
	Event
	From string `json:"from"`
	To   string `json:"to"`
}

// LogLine carries a human-readable log message at a severity level.
type LogLine struct {
	Event
	Level     string `json:"level"`
	Component string `json:"component,omitempty"`
	Message   string `json:"message"`
}

// Scan is emitted when the access controller reports a face match.
type Scan struct {
	Event
	SessionID string `json:"session_id"`
	PersonID  string `json:"person_id"`
	Name      string `json:"name,omitempty"`
	DeviceID  string `json:"device_id,omitempty"`
	DeviceIP  string `json:"device_ip,omitempty"`
}

// Person is emitted once the scanned person's details resolve from the API.
type Person struct {
	Event
	SessionID string `json:"session_id"`
	PersonID  string `json:"person_id"`
	Name      string `json:"name"`
	Position  string `json:"position,omitempty"`
}

// Reading carries a live weight/height pair from the scale.
type Reading struct {
	Event
	Weight float64 `json:"weight"`
	Height float64 `json:"height"`
	BMI    float64 `json:"bmi"`
}

// Progress reports sample accumulation while the scale is collecting.
type Progress struct {
	Event
	Count  int `json:"count"`
	Target int `json:"target"`
}

// Measurement is emitted when a sampling session completes with its
// averaged result.
type Measurement struct {
	Event
	Weight   float64 `json:"weight"`
	Height   float64 `json:"height"`
	BMI      float64 `json:"bmi"`
	Category string  `json:"category"`
}

// Saved is emitted after a measurement is accepted by the remote API.
type Saved struct {
	Event
	SessionID     string  `json:"session_id"`
	PersonID      string  `json:"person_id"`
	MeasurementID int64   `json:"measurement_id"`
	Weight        float64 `json:"weight"`
	Height        float64 `json:"height"`
	BMI           float64 `json:"bmi"`
	Category      string  `json:"category"`
}

// Cleared is emitted when the person session resets to empty.
type Cleared struct {
	Event
	SessionID string `json:"session_id,omitempty"`
}
