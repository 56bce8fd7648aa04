package event

import (
	"fmt"
	"strconv"
	"strings"
)

// Event is one scheduled reminder. The content fields (message, picture,
// audio, voice) are opaque to the engine; the presentation layer renders
// them when the event fires.
type Event struct {
	ID         int64      `json:"id"`
	Time       string     `json:"time"` // "HH:MM", local wall clock
	Name       string     `json:"name"`
	Enabled    bool       `json:"enabled"`
	Recurrence Recurrence `json:"recurrence"`
	Message    string     `json:"message,omitempty"`
	Voice      string     `json:"voice,omitempty"`
	PictureURL string     `json:"pictureUrl,omitempty"`
	AudioURL   string     `json:"audioUrl,omitempty"`
}

// ParseClock parses a "HH:MM" wall-clock string.
func ParseClock(s string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("clock time %q: want HH:MM", s)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("clock time %q: bad hour", s)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock time %q: bad minute", s)
	}
	return hour, minute, nil
}

// CanonicalClock re-renders a clock string zero-padded ("8:00" -> "08:00")
// so stored times compare equal to the scheduler's formatted minute.
// Unparseable input is returned unchanged.
func CanonicalClock(s string) string {
	hour, minute, err := ParseClock(s)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// Validate enforces the create/edit boundary rules. Records failing here
// are never written to the store.
//
// Deliberately absent: a "must have at least one content field" rule. An
// event with only a name is a valid silent marker.
func (e Event) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("event name is required")
	}
	if e.Time == "" {
		return fmt.Errorf("event time is required")
	}
	if _, _, err := ParseClock(e.Time); err != nil {
		return err
	}
	return e.Recurrence.Validate()
}
