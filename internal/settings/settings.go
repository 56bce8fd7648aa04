// Package settings models the user-settings document shared with the
// browser clock face. The engine owns only the fields it acts on (hourly
// announcement, debug clock); everything else — TTS voices, clock face
// options, background theming — belongs to the presentation layer and is
// round-tripped untouched so the browser never loses state to the daemon.
package settings

import (
	"encoding/json"
	"fmt"
)

// BlobName is the key of the settings document in the state store.
const BlobName = "settings"

// Store is the subset of the blob store the settings document needs.
type Store interface {
	Load(name string) (data []byte, ok bool, err error)
	Save(name string, data []byte) error
}

// Settings holds the engine-owned fields. extra carries every key the
// engine does not understand, preserved verbatim across load/save.
type Settings struct {
	EnableHourlyAnnouncement bool
	HourlyStart              string // "HH:MM"
	HourlyEnd                string
	HourlyFormat             string // optional template with a {time} placeholder
	Hourly24Hour             bool
	DebugMode                bool
	DebugSpeed               float64

	extra map[string]json.RawMessage
}

// Default returns the settings applied when no document is stored.
func Default() Settings {
	return Settings{
		HourlyStart: "08:00",
		HourlyEnd:   "22:00",
		DebugSpeed:  1,
	}
}

// Keys on the wire, matching the historical document format.
const (
	keyHourlyEnable = "enableHourlyAnnouncement"
	keyHourlyStart  = "hourlyAnnouncementStart"
	keyHourlyEnd    = "hourlyAnnouncementEnd"
	keyHourlyFormat = "hourlyAnnouncementFormat"
	keyHourly24     = "hourlyAnnouncement24Hour"
	keyDebugMode    = "debugMode"
	keyDebugSpeed   = "debugSpeed"
)

func (s Settings) MarshalJSON() ([]byte, error) {
	doc := make(map[string]json.RawMessage, len(s.extra)+7)
	for k, v := range s.extra {
		doc[k] = v
	}
	put := func(key string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		doc[key] = b
		return nil
	}
	for key, v := range map[string]any{
		keyHourlyEnable: s.EnableHourlyAnnouncement,
		keyHourlyStart:  s.HourlyStart,
		keyHourlyEnd:    s.HourlyEnd,
		keyHourlyFormat: s.HourlyFormat,
		keyHourly24:     s.Hourly24Hour,
		keyDebugMode:    s.DebugMode,
		keyDebugSpeed:   s.DebugSpeed,
	} {
		if err := put(key, v); err != nil {
			return nil, err
		}
	}
	return json.Marshal(doc)
}

func (s *Settings) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	*s = Default()
	take := func(key string, dst any) {
		raw, ok := doc[key]
		if !ok {
			return
		}
		if err := json.Unmarshal(raw, dst); err == nil {
			delete(doc, key)
		}
	}
	take(keyHourlyEnable, &s.EnableHourlyAnnouncement)
	take(keyHourlyStart, &s.HourlyStart)
	take(keyHourlyEnd, &s.HourlyEnd)
	take(keyHourlyFormat, &s.HourlyFormat)
	take(keyHourly24, &s.Hourly24Hour)
	take(keyDebugMode, &s.DebugMode)
	take(keyDebugSpeed, &s.DebugSpeed)
	if s.DebugSpeed <= 0 {
		s.DebugSpeed = 1
	}

	migrateClockType(doc)

	s.extra = doc
	return nil
}

// migrateClockType upgrades the retired single-choice clockType field into
// the show-digital/show-analog booleans the face uses now. Presentation
// fields, but the daemon is the one place that sees every stored document.
func migrateClockType(doc map[string]json.RawMessage) {
	raw, ok := doc["clockType"]
	if !ok {
		return
	}
	_, hasDigital := doc["showDigitalClock"]
	_, hasAnalog := doc["showAnalogClock"]
	if !hasDigital && !hasAnalog {
		var kind string
		if err := json.Unmarshal(raw, &kind); err == nil {
			digital, _ := json.Marshal(kind == "digital")
			analog, _ := json.Marshal(kind == "analog")
			doc["showDigitalClock"] = digital
			doc["showAnalogClock"] = analog
		}
	}
	delete(doc, "clockType")
}

// Load reads the settings document, falling back to defaults when the blob
// is absent or malformed.
func Load(store Store) (Settings, error) {
	data, ok, err := store.Load(BlobName)
	if err != nil {
		return Default(), fmt.Errorf("load settings: %w", err)
	}
	if !ok {
		return Default(), nil
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Default(), nil
	}
	return s, nil
}

// Save persists the settings document.
func Save(store Store, s Settings) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := store.Save(BlobName, b); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	return nil
}
