package recur

import (
	"testing"
	"time"

	"github.com/nwhitfield/chime/internal/event"
)

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ev(clock string, r event.Recurrence) event.Event {
	return event.Event{ID: 1700000000000, Time: clock, Name: "test", Enabled: true, Recurrence: r}
}

func TestOneTimeFiresExactlyOnce(t *testing.T) {
	e := ev("08:00", event.Once())
	now := at("2024-01-01T08:00:00")

	if !ShouldTrigger(e, 0, now) {
		t.Fatal("never-fired one-time event at its clock time: want true")
	}
	// Re-evaluated in the same minute after the firing was recorded.
	if ShouldTrigger(e, now.UnixMilli(), now) {
		t.Fatal("already-fired one-time event: want false")
	}
}

func TestEventTimeInFutureNeverFires(t *testing.T) {
	e := ev("08:00", event.Once())
	if ShouldTrigger(e, 0, at("2024-01-01T07:59:59")) {
		t.Fatal("event before its clock time: want false")
	}
}

func TestDisabledEventNeverFires(t *testing.T) {
	e := ev("08:00", event.Daily())
	e.Enabled = false
	if ShouldTrigger(e, 0, at("2024-01-01T08:00:00")) {
		t.Fatal("disabled event: want false")
	}
}

func TestDailyPeriodicity(t *testing.T) {
	e := ev("08:00", event.Daily())
	fired := at("2024-01-01T08:00:00")

	tests := []struct {
		now  time.Time
		want bool
	}{
		{at("2024-01-02T07:59:00"), false}, // 23h59m elapsed
		{at("2024-01-02T08:00:00"), true},  // exactly 24h, inclusive
		{at("2024-01-03T08:00:00"), true},
	}
	for _, tc := range tests {
		// The scheduler only evaluates events whose HH:MM matches now, but
		// the evaluator itself gates on elapsed time alone once the clock
		// time has passed.
		if got := ShouldTrigger(e, fired.UnixMilli(), tc.now); got != tc.want {
			t.Errorf("daily at %v: got %v, want %v", tc.now, got, tc.want)
		}
	}
}

func TestWeeklyDayGating(t *testing.T) {
	// Monday and Wednesday.
	e := ev("08:00", event.Weekly(1, 3))
	fired := at("2024-01-01T08:00:00") // a Monday

	// 2024-01-16 is a Tuesday, 15 days later: elapsed is ample but the
	// weekday does not match.
	if ShouldTrigger(e, fired.UnixMilli(), at("2024-01-16T08:00:00")) {
		t.Fatal("weekly event on a non-selected weekday: want false")
	}
	// 2024-01-08 is the next Monday, exactly 7 days later.
	if !ShouldTrigger(e, fired.UnixMilli(), at("2024-01-08T08:00:00")) {
		t.Fatal("weekly event on a selected weekday with 7d elapsed: want true")
	}
	// Matching weekday but under 7 days: 2024-01-03 is the Wednesday after.
	if ShouldTrigger(e, fired.UnixMilli(), at("2024-01-03T08:00:00")) {
		t.Fatal("weekly event with only 2d elapsed: want false")
	}
}

func TestWeeklyEmptyDaysNeverFires(t *testing.T) {
	e := ev("08:00", event.Recurrence{Kind: event.KindWeekly})
	if ShouldTrigger(e, 0, at("2024-01-01T08:00:00")) {
		t.Fatal("weekly event with no selected days: want false")
	}
}

func TestYearlyDateGating(t *testing.T) {
	e := ev("09:00", event.Yearly(3, 14))
	fired := at("2023-03-14T09:00:00")

	if ShouldTrigger(e, fired.UnixMilli(), at("2024-03-13T09:00:00")) {
		t.Fatal("yearly event on the wrong date: want false")
	}
	if !ShouldTrigger(e, fired.UnixMilli(), at("2024-03-14T09:00:00")) {
		t.Fatal("yearly event on its date after 366 days: want true")
	}
	// Never fired: the date alone decides.
	if !ShouldTrigger(e, 0, at("2024-03-14T09:00:00")) {
		t.Fatal("never-fired yearly event on its date: want true")
	}
}

func TestIntervalBoundaryInclusive(t *testing.T) {
	e := ev("00:00", event.Every(2, event.UnitHours))
	fired := int64(1704067200000) // 2024-01-01T00:00:00Z as millis

	base := time.UnixMilli(fired).UTC()
	if ShouldTrigger(e, fired, base.Add(2*time.Hour-time.Millisecond)) {
		t.Fatal("interval at 7199999ms elapsed: want false")
	}
	if !ShouldTrigger(e, fired, base.Add(2*time.Hour)) {
		t.Fatal("interval at exactly 7200000ms elapsed: want true")
	}
}

func TestIntervalUnits(t *testing.T) {
	tests := []struct {
		unit    event.Unit
		elapsed time.Duration
	}{
		{event.UnitMinutes, time.Minute},
		{event.UnitHours, time.Hour},
		{event.UnitDays, 24 * time.Hour},
		{event.UnitWeeks, 7 * 24 * time.Hour},
		{event.UnitYears, 365 * 24 * time.Hour},
	}
	for _, tc := range tests {
		e := ev("00:00", event.Every(1, tc.unit))
		fired := at("2024-01-01T00:00:00")

		if ShouldTrigger(e, fired.UnixMilli(), fired.Add(tc.elapsed-time.Second)) {
			t.Errorf("unit %s just before boundary: want false", tc.unit)
		}
		if !ShouldTrigger(e, fired.UnixMilli(), fired.Add(tc.elapsed)) {
			t.Errorf("unit %s at boundary: want true", tc.unit)
		}
	}
}

func TestMalformedTimeDoesNotFire(t *testing.T) {
	for _, bad := range []string{"", "8", "25:00", "08:61", "ab:cd"} {
		e := ev(bad, event.Daily())
		if ShouldTrigger(e, 0, at("2024-01-01T12:00:00")) {
			t.Errorf("malformed time %q: want false", bad)
		}
	}
}

func TestInvalidKindDoesNotFire(t *testing.T) {
	e := ev("08:00", event.Recurrence{Kind: event.KindInvalid})
	if ShouldTrigger(e, 0, at("2024-01-01T08:00:00")) {
		t.Fatal("invalid recurrence kind: want false")
	}
}

func TestRRuleFiresOncePerOccurrence(t *testing.T) {
	// Daily rule anchored at the event's creation instant.
	created := at("2024-01-01T08:00:00")
	e := event.Event{
		ID:         created.UnixMilli(),
		Time:       "08:00",
		Name:       "rule",
		Enabled:    true,
		Recurrence: event.RRule("FREQ=DAILY"),
	}

	now := at("2024-01-02T08:00:00")
	if !ShouldTrigger(e, created.UnixMilli(), now) {
		t.Fatal("rrule with a fresh occurrence today: want true")
	}
	// After recording the firing, the same occurrence no longer triggers.
	if ShouldTrigger(e, now.UnixMilli(), now) {
		t.Fatal("rrule occurrence already fired: want false")
	}
}

func TestRRuleUnparseableDoesNotFire(t *testing.T) {
	e := ev("08:00", event.RRule("FREQ=SOMETIMES"))
	if ShouldTrigger(e, 0, at("2024-01-01T08:00:00")) {
		t.Fatal("unparseable rrule: want false")
	}
}
