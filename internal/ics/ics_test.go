package ics

import (
	"strings"
	"testing"

	"github.com/nwhitfield/chime/internal/event"
)

// calendar wraps VEVENT bodies in a minimal VCALENDAR with CRLF line endings.
func calendar(vevents ...string) []byte {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\nVERSION:2.0\nPRODID:-//chime//EN\n")
	for _, ve := range vevents {
		b.WriteString("BEGIN:VEVENT\n")
		b.WriteString(strings.TrimSpace(ve))
		b.WriteString("\nEND:VEVENT\n")
	}
	b.WriteString("END:VCALENDAR\n")
	return []byte(strings.ReplaceAll(b.String(), "\n", "\r\n"))
}

func TestImportBasicEvent(t *testing.T) {
	body := calendar(`
UID:breakfast@test
DTSTART:20260828T073000
SUMMARY:Breakfast
DESCRIPTION:Eat up`)

	events, skipped, err := Import(body)
	if err != nil {
		t.Fatal(err)
	}
	if len(skipped) != 0 {
		t.Fatalf("unexpected skips: %v", skipped)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events", len(events))
	}
	ev := events[0]
	if ev.Name != "Breakfast" || ev.Message != "Eat up" {
		t.Errorf("fields: %+v", ev)
	}
	if ev.Time != "07:30" {
		t.Errorf("time = %q", ev.Time)
	}
	if ev.Recurrence.Kind != event.KindOnce {
		t.Errorf("no RRULE should mean one-time, got kind %d", ev.Recurrence.Kind)
	}
}

func TestImportCarriesRRule(t *testing.T) {
	body := calendar(`
UID:school@test
DTSTART:20260831T081500
SUMMARY:School run
RRULE:FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR`)

	events, _, err := Import(body)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events", len(events))
	}
	if events[0].Recurrence.Kind != event.KindRRule {
		t.Fatalf("kind = %d", events[0].Recurrence.Kind)
	}
	if !strings.Contains(events[0].Recurrence.Rule, "FREQ=WEEKLY") {
		t.Errorf("rrule = %q", events[0].Recurrence.Rule)
	}
}

func TestImportSkipsUnusableEntries(t *testing.T) {
	body := calendar(
		// All-day: no clock time to schedule on.
		`UID:holiday@test
DTSTART;VALUE=DATE:20260901
SUMMARY:Holiday`,
		// No summary.
		`UID:anon@test
DTSTART:20260828T120000`,
		// Good entry, must survive its bad siblings.
		`UID:lunch@test
DTSTART:20260828T120000
SUMMARY:Lunch`,
	)

	events, skipped, err := Import(body)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Name != "Lunch" {
		t.Fatalf("events = %+v", events)
	}
	if len(skipped) != 2 {
		t.Fatalf("skipped = %v", skipped)
	}
}

func TestImportEmptyBody(t *testing.T) {
	if _, _, err := Import(nil); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestImportGarbage(t *testing.T) {
	if _, _, err := Import([]byte("this is not a calendar")); err == nil {
		t.Fatal("expected parse error")
	}
}
