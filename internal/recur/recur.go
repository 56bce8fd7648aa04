// Package recur decides whether a due event should actually fire. It is
// the pure core of the engine: no clocks, no stores, no side effects —
// just the event, its last-fired timestamp, and the current instant.
package recur

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/nwhitfield/chime/internal/event"
)

// ShouldTrigger reports whether ev is due to fire at now, given the epoch
// millis of its last firing (0 = never fired).
//
// Preconditions checked here rather than assumed: a disabled event, a
// malformed clock time, or an unknown recurrence kind all answer false —
// bad records degrade to "does nothing", they never panic the tick.
func ShouldTrigger(ev event.Event, lastFiredMillis int64, now time.Time) bool {
	if !ev.Enabled {
		return false
	}

	hour, minute, err := event.ParseClock(ev.Time)
	if err != nil {
		return false
	}

	// An event cannot fire before its clock time arrives today.
	eventTime := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if eventTime.After(now) {
		return false
	}

	elapsed := now.UnixMilli() - lastFiredMillis

	switch ev.Recurrence.Kind {
	case event.KindOnce:
		return lastFiredMillis == 0

	case event.KindDaily:
		return elapsed >= (24 * time.Hour).Milliseconds()

	case event.KindWeekly:
		if !containsDay(ev.Recurrence.Days, int(now.Weekday())) {
			return false
		}
		return elapsed >= (7 * 24 * time.Hour).Milliseconds()

	case event.KindYearly:
		if int(now.Month()) != ev.Recurrence.Month || now.Day() != ev.Recurrence.Day {
			return false
		}
		return elapsed >= (365 * 24 * time.Hour).Milliseconds()

	case event.KindInterval:
		unit, ok := event.UnitDuration(ev.Recurrence.Unit)
		if !ok {
			return false
		}
		return elapsed >= int64(ev.Recurrence.Every)*unit.Milliseconds()

	case event.KindRRule:
		return rruleDue(ev, lastFiredMillis, now)

	case event.KindInvalid:
		return false
	}
	return false
}

// containsDay reports whether days holds weekday (0=Sunday .. 6=Saturday).
// An empty set matches nothing.
func containsDay(days []int, weekday int) bool {
	for _, d := range days {
		if d == weekday {
			return true
		}
	}
	return false
}

// rruleDue evaluates an RFC 5545 rule: due when the rule yields an
// occurrence today, at or before now, that is later than the last firing.
// The rule's DTSTART is the event's creation instant (its id).
func rruleDue(ev event.Event, lastFiredMillis int64, now time.Time) bool {
	r, err := rrule.StrToRRule(ev.Recurrence.Rule)
	if err != nil {
		return false
	}
	r.DTStart(time.UnixMilli(ev.ID).In(now.Location()))

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, occ := range r.Between(dayStart, now, true) {
		if occ.UnixMilli() > lastFiredMillis {
			return true
		}
	}
	return false
}
