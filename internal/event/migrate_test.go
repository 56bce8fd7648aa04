package event

import (
	"encoding/json"
	"testing"
)

func TestDecodeEventsModernShapeUntouched(t *testing.T) {
	data := []byte(`[
		{"id":1,"time":"07:30","name":"Breakfast","enabled":true,"recurrence":{"type":"daily"}}
	]`)
	events, migrated, err := decodeEvents(data)
	if err != nil {
		t.Fatal(err)
	}
	if migrated {
		t.Fatal("modern record reported as migrated")
	}
	if len(events) != 1 || events[0].Recurrence.Kind != KindDaily {
		t.Fatalf("unexpected decode result: %+v", events)
	}
}

func TestDecodeEventsLegacyTypeDiscriminator(t *testing.T) {
	// Oldest shape: flat "type", content field under its own key, no
	// "enabled", repeatDaily boolean.
	data := []byte(`[
		{"id":2,"time":"19:00","name":"Bath","type":"picture","pictureUrl":"bath.png","repeatDaily":true}
	]`)
	events, migrated, err := decodeEvents(data)
	if err != nil {
		t.Fatal(err)
	}
	if !migrated {
		t.Fatal("legacy record not reported as migrated")
	}
	ev := events[0]
	if !ev.Enabled {
		t.Error("legacy record should default to enabled")
	}
	if ev.PictureURL != "bath.png" {
		t.Errorf("content field lost: %+v", ev)
	}
	if ev.Recurrence.Kind != KindDaily {
		t.Errorf("repeatDaily=true should become daily recurrence, got kind %d", ev.Recurrence.Kind)
	}
}

func TestDecodeEventsRepeatDailyFalse(t *testing.T) {
	data := []byte(`[
		{"id":3,"time":"09:00","name":"Dentist","enabled":true,"repeatDaily":false}
	]`)
	events, migrated, err := decodeEvents(data)
	if err != nil {
		t.Fatal(err)
	}
	if !migrated {
		t.Fatal("expected migration")
	}
	if events[0].Recurrence.Kind != KindOnce {
		t.Errorf("repeatDaily=false should become one-time, got kind %d", events[0].Recurrence.Kind)
	}
}

func TestDecodeEventsRepeatDailyDoesNotClobberRecurrence(t *testing.T) {
	// A record carrying both the flag and a recurrence keeps the recurrence.
	data := []byte(`[
		{"id":4,"time":"10:00","name":"Swim","enabled":true,"repeatDaily":true,
		 "recurrence":{"type":"weekly","days":[6]}}
	]`)
	events, _, err := decodeEvents(data)
	if err != nil {
		t.Fatal(err)
	}
	if events[0].Recurrence.Kind != KindWeekly {
		t.Errorf("existing recurrence clobbered: %+v", events[0].Recurrence)
	}
}

func TestDecodeEventsMissingRecurrence(t *testing.T) {
	data := []byte(`[{"id":5,"time":"11:00","name":"Snack","enabled":true}]`)
	events, migrated, err := decodeEvents(data)
	if err != nil {
		t.Fatal(err)
	}
	if !migrated {
		t.Fatal("expected migration for missing recurrence")
	}
	if events[0].Recurrence.Kind != KindOnce {
		t.Errorf("missing recurrence should default to one-time, got kind %d", events[0].Recurrence.Kind)
	}
}

func TestUpgradeRecordFixedPoint(t *testing.T) {
	// After one upgrade, a second run must be a no-op.
	m := map[string]any{
		"id": float64(6), "time": "08:00", "name": "Old",
		"type": "announcement", "message": "hi", "repeatDaily": true,
	}
	if !upgradeRecord(m) {
		t.Fatal("first upgrade should report changes")
	}
	before, _ := json.Marshal(m)
	if upgradeRecord(m) {
		t.Fatal("second upgrade should be a no-op")
	}
	after, _ := json.Marshal(m)
	if string(before) != string(after) {
		t.Fatalf("record changed on second run: %s -> %s", before, after)
	}
}

func TestDecodeEventsMalformed(t *testing.T) {
	if _, _, err := decodeEvents([]byte(`{"not":"a list"}`)); err == nil {
		t.Fatal("expected error for non-list payload")
	}
}
