package event

import "encoding/json"

// Legacy record migration. Persisted event lists have gone through several
// shapes over the app's life:
//
//  1. a flat "type" discriminator ("announcement"/"picture"/"audio") with
//     the matching content field, and an optional boolean "repeatDaily"
//  2. "repeatDaily" alongside the modern multi-content fields
//  3. the current shape with a "recurrence" object
//
// Each upgrade step converts one known legacy trait; the chain is applied
// repeatedly until a record stops changing, so any historical combination
// converges on the current shape without per-combination special cases.

type upgradeStep func(map[string]any) bool

var upgradeChain = []upgradeStep{
	dropTypeDiscriminator,
	foldRepeatDaily,
	ensureRecurrence,
}

// dropTypeDiscriminator removes the flat "type" field. The content fields
// already live on the record under their own keys in every shape observed,
// so only the discriminator itself has to go. Records predating the
// "enabled" field default to enabled.
func dropTypeDiscriminator(m map[string]any) bool {
	if _, ok := m["type"]; !ok {
		return false
	}
	delete(m, "type")
	if _, ok := m["enabled"]; !ok {
		m["enabled"] = true
	}
	return true
}

// foldRepeatDaily converts the boolean repeatDaily flag into a recurrence
// object. A record that already carries a recurrence just loses the flag.
func foldRepeatDaily(m map[string]any) bool {
	raw, ok := m["repeatDaily"]
	if !ok {
		return false
	}
	delete(m, "repeatDaily")
	if _, has := m["recurrence"]; !has {
		if b, _ := raw.(bool); b {
			m["recurrence"] = map[string]any{"type": "daily"}
		} else {
			m["recurrence"] = map[string]any{"type": "none"}
		}
	}
	return true
}

// ensureRecurrence defaults a missing or null recurrence to one-time.
func ensureRecurrence(m map[string]any) bool {
	if r, ok := m["recurrence"]; ok && r != nil {
		return false
	}
	m["recurrence"] = map[string]any{"type": "none"}
	return true
}

// upgradeRecord runs the chain to its fixed point. Reports whether the
// record was touched at all.
func upgradeRecord(m map[string]any) bool {
	touched := false
	for {
		changed := false
		for _, step := range upgradeChain {
			if step(m) {
				changed = true
				touched = true
			}
		}
		if !changed {
			return touched
		}
	}
}

// decodeEvents parses a persisted event list, upgrading legacy records in
// place. migrated reports whether any record needed upgrading, so the
// caller knows to persist the modern form back.
func decodeEvents(data []byte) (events []Event, migrated bool, err error) {
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, err
	}

	events = make([]Event, 0, len(raw))
	for _, m := range raw {
		if upgradeRecord(m) {
			migrated = true
		}
		b, err := json.Marshal(m)
		if err != nil {
			return nil, false, err
		}
		var ev Event
		if err := json.Unmarshal(b, &ev); err != nil {
			return nil, false, err
		}
		events = append(events, ev)
	}
	return events, migrated, nil
}
