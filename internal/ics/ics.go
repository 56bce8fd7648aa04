// Package ics converts iCalendar (RFC 5545) data into reminder events, so a
// school timetable or family calendar export can be loaded with one command.
package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	ical "github.com/arran4/golang-ical"

	"github.com/nwhitfield/chime/internal/event"
)

// Import parses an ICS payload into events. VEVENTs without a usable
// summary or start time are skipped and reported in skipped; one bad entry
// must not sink a whole calendar import.
func Import(body []byte) (events []event.Event, skipped []string, err error) {
	if len(body) == 0 {
		return nil, nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("parse calendar: %w", err)
	}

	for _, ve := range cal.Events() {
		ev, cerr := convertVEvent(ve)
		if cerr != nil {
			skipped = append(skipped, cerr.Error())
			continue
		}
		events = append(events, ev)
	}
	return events, skipped, nil
}

// convertVEvent maps one VEVENT onto a reminder. Only the time of day
// matters: the engine schedules by wall clock, with the RRULE (when
// present) carried over to drive recurrence.
func convertVEvent(ve *ical.VEvent) (event.Event, error) {
	var ev event.Event

	uid := ""
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		uid = p.Value
	}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Name = strings.TrimSpace(p.Value)
	}
	if ev.Name == "" {
		return ev, fmt.Errorf("vevent %q: missing summary", uid)
	}

	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.Message = strings.TrimSpace(p.Value)
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return ev, fmt.Errorf("vevent %q: no usable start time: %w", uid, err)
	}

	// All-day entries (VALUE=DATE) carry no clock time to schedule on.
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		if !strings.Contains(p.Value, "T") {
			return ev, fmt.Errorf("vevent %q: all-day entries are not schedulable", uid)
		}
	}
	ev.Time = start.Local().Format("15:04")

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil && p.Value != "" {
		ev.Recurrence = event.RRule(p.Value)
	} else {
		ev.Recurrence = event.Once()
	}

	if err := ev.Validate(); err != nil {
		return ev, fmt.Errorf("vevent %q: %w", uid, err)
	}
	return ev, nil
}
