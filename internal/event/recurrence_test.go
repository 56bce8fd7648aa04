package event

import (
	"encoding/json"
	"testing"
)

func TestRecurrenceUnmarshalWireShapes(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Recurrence
	}{
		{"none", `{"type":"none"}`, Once()},
		{"empty type", `{"type":""}`, Once()},
		{"daily", `{"type":"daily"}`, Daily()},
		{"weekly", `{"type":"weekly","days":[1,3,5]}`, Weekly(1, 3, 5)},
		{"yearly", `{"type":"yearly","month":12,"day":25}`, Yearly(12, 25)},
		{"interval", `{"type":"interval","intervalValue":2,"intervalUnit":"hours"}`, Every(2, UnitHours)},
		{"interval defaults", `{"type":"interval"}`, Every(1, UnitDays)},
		{"rrule", `{"type":"rrule","rule":"FREQ=DAILY;INTERVAL=2"}`, RRule("FREQ=DAILY;INTERVAL=2")},
	}
	for _, tc := range cases {
		var got Recurrence
		if err := json.Unmarshal([]byte(tc.in), &got); err != nil {
			t.Errorf("%s: unmarshal: %v", tc.name, err)
			continue
		}
		if got.Kind != tc.want.Kind || got.Month != tc.want.Month || got.Day != tc.want.Day ||
			got.Every != tc.want.Every || got.Unit != tc.want.Unit || got.Rule != tc.want.Rule ||
			len(got.Days) != len(tc.want.Days) {
			t.Errorf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestRecurrenceUnknownTypeLoadsAsInvalid(t *testing.T) {
	// Stale persisted data must load; the evaluator treats it as never due.
	var r Recurrence
	if err := json.Unmarshal([]byte(`{"type":"lunar"}`), &r); err != nil {
		t.Fatalf("unknown type should not error: %v", err)
	}
	if r.Kind != KindInvalid {
		t.Fatalf("unknown type: got kind %d, want KindInvalid", r.Kind)
	}
	if err := r.Validate(); err == nil {
		t.Fatal("invalid kind should fail validation")
	}
}

func TestRecurrenceMarshalRoundTrip(t *testing.T) {
	for _, r := range []Recurrence{
		Once(), Daily(), Weekly(0, 6), Yearly(7, 4), Every(90, UnitMinutes), RRule("FREQ=WEEKLY;BYDAY=MO"),
	} {
		b, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("marshal %+v: %v", r, err)
		}
		var back Recurrence
		if err := json.Unmarshal(b, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}
		if back.Kind != r.Kind {
			t.Errorf("round trip of %+v via %s lost kind: %+v", r, b, back)
		}
	}
}

func TestRecurrenceMarshalType(t *testing.T) {
	b, err := json.Marshal(Daily())
	if err != nil {
		t.Fatal(err)
	}
	var w map[string]any
	if err := json.Unmarshal(b, &w); err != nil {
		t.Fatal(err)
	}
	if w["type"] != "daily" {
		t.Fatalf("daily marshals as %v", w["type"])
	}
}

func TestRecurrenceValidate(t *testing.T) {
	bad := []Recurrence{
		Weekly(),
		Weekly(7),
		Weekly(-1),
		Yearly(0, 10),
		Yearly(13, 10),
		Yearly(6, 0),
		Yearly(6, 32),
		Every(0, UnitDays),
		Every(3, "fortnights"),
		RRule("not a rule"),
		{Kind: KindInvalid},
	}
	for _, r := range bad {
		if err := r.Validate(); err == nil {
			t.Errorf("expected validation error for %+v", r)
		}
	}

	good := []Recurrence{
		Once(), Daily(), Weekly(0), Weekly(1, 2, 3, 4, 5), Yearly(2, 29),
		Every(1, UnitMinutes), Every(10, UnitYears), RRule("FREQ=MONTHLY;BYMONTHDAY=1"),
	}
	for _, r := range good {
		if err := r.Validate(); err != nil {
			t.Errorf("unexpected validation error for %+v: %v", r, err)
		}
	}
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		r    Recurrence
		want string
	}{
		{Once(), "One-time event"},
		{Daily(), "Repeats daily"},
		{Weekly(1, 3), "Repeats on Mon, Wed"},
		{Yearly(12, 25), "Repeats yearly on Dec 25"},
		{Every(1, UnitHours), "Repeats every hour"},
		{Every(3, UnitWeeks), "Repeats every 3 weeks"},
	}
	for _, tc := range cases {
		if got := tc.r.Describe(); got != tc.want {
			t.Errorf("Describe(%+v) = %q, want %q", tc.r, got, tc.want)
		}
	}
}
