// Package telemetry defines the typed event structs that flow over the
// WebSocket connection between chimed and its clock-face clients.
// Heartbeats and state transitions are broadcast as these structs; other
// emitters build the equivalent map[string]any payloads so they can attach
// fields per event.
package telemetry

import "time"

// EventType identifies the kind of WebSocket event.
type EventType string

const (
	EventDue          EventType = "event_due"
	EventHourly       EventType = "hourly_announcement"
	EventHeartbeat    EventType = "heartbeat"
	EventState        EventType = "state"
	EventLog          EventType = "log"
	EventEventsChange EventType = "events_changed"
	EventSettings     EventType = "settings_changed"
)

// Event is the base envelope shared by every event type.
type Event struct {
	Type      EventType `json:"type"`
	TS        string    `json:"ts"`
	Component string    `json:"component,omitempty"`
}

// NowTS returns the current UTC time as an RFC 3339 nano string, matching
// the timestamp format used across all events.
func NowTS() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Due announces a fired event. The presentation layer renders the content
// fields; the daemon does not wait for it.
type Due struct {
	Event
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Time       string `json:"time"`
	Message    string `json:"message,omitempty"`
	Voice      string `json:"voice,omitempty"`
	PictureURL string `json:"pictureUrl,omitempty"`
	AudioURL   string `json:"audioUrl,omitempty"`
	Disabled   bool   `json:"disabled"` // one-time events switch off after firing
}

// Hourly announces the top of an hour inside the configured window, with
// the announcement text already formatted for speech.
type Hourly struct {
	Event
	Clock        string `json:"clock"` // "HH:MM" of the simulated or real instant
	Announcement string `json:"announcement"`
}

// Heartbeat is sent periodically so clients can detect connectivity and
// monitor daemon uptime.
type Heartbeat struct {
	Event
	State         string `json:"state"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// StateTransition is emitted whenever the daemon moves between operating
// states (e.g. RUNNING -> PAUSED).
type StateTransition struct {
	Event
	From string `json:"from"`
	To   string `json:"to"`
}

// LogLine carries a human-readable log message at a severity level.
type LogLine struct {
	Event
	Level   string `json:"level"`
	Message string `json:"message"`
}
