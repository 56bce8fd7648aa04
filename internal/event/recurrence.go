// Package event defines the scheduled-event model, its recurrence rules,
// legacy-shape migration, and the in-memory store backing the scheduler.
package event

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Kind discriminates the recurrence variants. The zero value is invalid so
// a Recurrence built without choosing a kind never fires.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindOnce
	KindDaily
	KindWeekly
	KindYearly
	KindInterval
	KindRRule
)

// Unit is the step unit for interval recurrence.
type Unit string

const (
	UnitMinutes Unit = "minutes"
	UnitHours   Unit = "hours"
	UnitDays    Unit = "days"
	UnitWeeks   Unit = "weeks"
	UnitYears   Unit = "years"
)

// UnitDuration returns the fixed length of one unit. Years use a flat 365
// days; the engine is deliberately not calendar-aware here.
func UnitDuration(u Unit) (time.Duration, bool) {
	switch u {
	case UnitMinutes:
		return time.Minute, true
	case UnitHours:
		return time.Hour, true
	case UnitDays:
		return 24 * time.Hour, true
	case UnitWeeks:
		return 7 * 24 * time.Hour, true
	case UnitYears:
		return 365 * 24 * time.Hour, true
	}
	return 0, false
}

// Recurrence is a tagged union: only the fields belonging to Kind are
// meaningful. Construct through the helpers below so the invariants hold.
type Recurrence struct {
	Kind Kind

	// Weekly: weekdays the event may fire on, 0=Sunday .. 6=Saturday.
	Days []int

	// Yearly: calendar date, month 1-12 and day 1-31.
	Month int
	Day   int

	// Interval: fire every Every Units.
	Every int
	Unit  Unit

	// RRule: raw RFC 5545 recurrence rule.
	Rule string
}

func Once() Recurrence               { return Recurrence{Kind: KindOnce} }
func Daily() Recurrence              { return Recurrence{Kind: KindDaily} }
func Weekly(days ...int) Recurrence  { return Recurrence{Kind: KindWeekly, Days: days} }
func Yearly(month, day int) Recurrence {
	return Recurrence{Kind: KindYearly, Month: month, Day: day}
}
func Every(n int, u Unit) Recurrence { return Recurrence{Kind: KindInterval, Every: n, Unit: u} }
func RRule(rule string) Recurrence   { return Recurrence{Kind: KindRRule, Rule: rule} }

// Validate rejects rules that must never reach the store. The evaluator
// assumes these hold.
func (r Recurrence) Validate() error {
	switch r.Kind {
	case KindOnce, KindDaily:
		return nil
	case KindWeekly:
		if len(r.Days) == 0 {
			return fmt.Errorf("weekly recurrence needs at least one weekday")
		}
		for _, d := range r.Days {
			if d < 0 || d > 6 {
				return fmt.Errorf("weekday %d out of range 0-6", d)
			}
		}
		return nil
	case KindYearly:
		if r.Month < 1 || r.Month > 12 {
			return fmt.Errorf("yearly recurrence month %d out of range 1-12", r.Month)
		}
		if r.Day < 1 || r.Day > 31 {
			return fmt.Errorf("yearly recurrence day %d out of range 1-31", r.Day)
		}
		return nil
	case KindInterval:
		if r.Every < 1 {
			return fmt.Errorf("interval value must be at least 1, got %d", r.Every)
		}
		if _, ok := UnitDuration(r.Unit); !ok {
			return fmt.Errorf("unknown interval unit %q", r.Unit)
		}
		return nil
	case KindRRule:
		if _, err := rrule.StrToRRule(r.Rule); err != nil {
			return fmt.Errorf("invalid RRULE %q: %w", r.Rule, err)
		}
		return nil
	}
	return fmt.Errorf("unknown recurrence kind")
}

// Describe renders the rule for listings, e.g. "Repeats on Mon, Wed".
func (r Recurrence) Describe() string {
	switch r.Kind {
	case KindOnce:
		return "One-time event"
	case KindDaily:
		return "Repeats daily"
	case KindWeekly:
		names := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
		parts := make([]string, 0, len(r.Days))
		for _, d := range r.Days {
			if d >= 0 && d <= 6 {
				parts = append(parts, names[d])
			}
		}
		if len(parts) == 0 {
			return "Repeats weekly"
		}
		return "Repeats on " + strings.Join(parts, ", ")
	case KindYearly:
		if r.Month >= 1 && r.Month <= 12 {
			return fmt.Sprintf("Repeats yearly on %s %d", time.Month(r.Month).String()[:3], r.Day)
		}
		return "Repeats yearly"
	case KindInterval:
		unit := string(r.Unit)
		if r.Every == 1 {
			return "Repeats every " + strings.TrimSuffix(unit, "s")
		}
		return fmt.Sprintf("Repeats every %d %s", r.Every, unit)
	case KindRRule:
		return "Repeats by rule " + r.Rule
	}
	return "Recurring event"
}

// recurrenceJSON is the persisted/API wire shape, kept compatible with the
// historical record format.
type recurrenceJSON struct {
	Type          string `json:"type"`
	Days          []int  `json:"days,omitempty"`
	Month         int    `json:"month,omitempty"`
	Day           int    `json:"day,omitempty"`
	IntervalValue int    `json:"intervalValue,omitempty"`
	IntervalUnit  string `json:"intervalUnit,omitempty"`
	Rule          string `json:"rule,omitempty"`
}

func (r Recurrence) MarshalJSON() ([]byte, error) {
	w := recurrenceJSON{}
	switch r.Kind {
	case KindOnce:
		w.Type = "none"
	case KindDaily:
		w.Type = "daily"
	case KindWeekly:
		w.Type = "weekly"
		w.Days = r.Days
	case KindYearly:
		w.Type = "yearly"
		w.Month = r.Month
		w.Day = r.Day
	case KindInterval:
		w.Type = "interval"
		w.IntervalValue = r.Every
		w.IntervalUnit = string(r.Unit)
	case KindRRule:
		w.Type = "rrule"
		w.Rule = r.Rule
	default:
		w.Type = "none"
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts the wire shape. An unrecognized type yields
// KindInvalid rather than an error: stale persisted data must load, and the
// evaluator treats invalid rules as never due.
func (r *Recurrence) UnmarshalJSON(data []byte) error {
	var w recurrenceJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Type {
	case "none", "":
		*r = Once()
	case "daily":
		*r = Daily()
	case "weekly":
		*r = Weekly(w.Days...)
	case "yearly":
		*r = Yearly(w.Month, w.Day)
	case "interval":
		every := w.IntervalValue
		if every == 0 {
			every = 1
		}
		unit := Unit(w.IntervalUnit)
		if unit == "" {
			unit = UnitDays
		}
		*r = Every(every, unit)
	case "rrule":
		*r = RRule(w.Rule)
	default:
		*r = Recurrence{Kind: KindInvalid}
	}
	return nil
}
