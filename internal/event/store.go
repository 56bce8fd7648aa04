package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"sync"
)

// ErrNotFound reports an id with no matching event.
var ErrNotFound = errors.New("event not found")

// Blob names in the state store.
const (
	blobEvents    = "events"
	blobLastFired = "last_triggered"
)

// BlobStore persists named JSON blobs. Satisfied by blob.Store.
type BlobStore interface {
	Load(name string) (data []byte, ok bool, err error)
	Save(name string, data []byte) error
}

// Store owns the event list and the id -> last-fired-millis map. One mutex
// covers both so a trigger commit (record firing, disable one-time events,
// persist) is atomic with respect to concurrent ticks and HTTP handlers.
type Store struct {
	mu    sync.Mutex
	blobs BlobStore
	log   *log.Logger

	events    []Event
	lastFired map[int64]int64
}

// NewStore creates an empty store. Call Load to read persisted state.
func NewStore(blobs BlobStore, logger *log.Logger) *Store {
	return &Store{
		blobs:     blobs,
		log:       logger,
		lastFired: make(map[int64]int64),
	}
}

// Load reads both blobs. Malformed JSON degrades to the empty collection
// with a log line — a corrupt state file must never keep the daemon from
// starting. Legacy-shaped records are upgraded and persisted back.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok, err := s.blobs.Load(blobEvents)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	if ok {
		events, migrated, derr := decodeEvents(data)
		if derr != nil {
			s.log.Printf("discarding malformed event list: %v", derr)
			s.events = nil
		} else {
			// Older writers stored unpadded times, which would never
			// match a formatted minute.
			for i := range events {
				if c := CanonicalClock(events[i].Time); c != events[i].Time {
					events[i].Time = c
					migrated = true
				}
			}
			s.events = events
			if migrated {
				s.log.Printf("upgraded %d legacy event records", len(events))
				if perr := s.persistEvents(); perr != nil {
					return perr
				}
			}
		}
	}

	data, ok, err = s.blobs.Load(blobLastFired)
	if err != nil {
		return fmt.Errorf("load last-fired map: %w", err)
	}
	if ok {
		fired, derr := decodeLastFired(data)
		if derr != nil {
			s.log.Printf("discarding malformed last-fired map: %v", derr)
			fired = make(map[int64]int64)
		}
		s.lastFired = fired
	}
	return nil
}

// List returns the events ordered by time of day, a copy safe to hold
// across ticks.
func (s *Store) List() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Event, len(s.events))
	copy(out, s.events)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// Get returns the event with the given id.
func (s *Store) Get(id int64) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range s.events {
		if ev.ID == id {
			return ev, true
		}
	}
	return Event{}, false
}

// Create validates and stores a new event. The caller assigns the id from
// the clock source; on the rare same-millisecond collision the id is bumped
// until unique.
func (s *Store) Create(ev Event) (Event, error) {
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}

	ev.Time = CanonicalClock(ev.Time)

	s.mu.Lock()
	defer s.mu.Unlock()

	for s.hasID(ev.ID) {
		ev.ID++
	}
	ev.Enabled = true
	s.events = append(s.events, ev)
	if err := s.persistEvents(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// Update overwrites the fields of an existing event. Editing re-enables an
// event that a one-time firing had disabled.
func (s *Store) Update(id int64, ev Event) (Event, error) {
	ev.ID = id
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	ev.Time = CanonicalClock(ev.Time)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.events {
		if s.events[i].ID == id {
			ev.Enabled = true
			s.events[i] = ev
			if err := s.persistEvents(); err != nil {
				return Event{}, err
			}
			return ev, nil
		}
	}
	return Event{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
}

// Delete removes an event and its last-fired record.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.events {
		if s.events[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	s.events = append(s.events[:idx], s.events[idx+1:]...)
	delete(s.lastFired, id)

	if err := s.persistEvents(); err != nil {
		return err
	}
	return s.persistLastFired()
}

// LastFired returns the epoch millis of the event's last firing, 0 if it
// has never fired.
func (s *Store) LastFired(id int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFired[id]
}

// Due returns the enabled events whose clock time matches hhmm.
func (s *Store) Due(hhmm string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []Event
	for _, ev := range s.events {
		if ev.Enabled && ev.Time == hhmm {
			due = append(due, ev)
		}
	}
	return due
}

// CommitTrigger records a firing: last-fired is set and persisted, and a
// one-time event is disabled and the list persisted. All under one lock so
// no tick can observe the firing half-applied. Reports whether the event
// was disabled.
func (s *Store) CommitTrigger(id int64, firedAt int64) (disabled bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastFired[id] = firedAt
	if err := s.persistLastFired(); err != nil {
		return false, err
	}

	for i := range s.events {
		if s.events[i].ID == id && s.events[i].Recurrence.Kind == KindOnce {
			s.events[i].Enabled = false
			if err := s.persistEvents(); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// PruneLastFired drops last-fired entries whose event no longer exists.
// Run by the nightly maintenance job.
func (s *Store) PruneLastFired() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for id := range s.lastFired {
		if !s.hasID(id) {
			delete(s.lastFired, id)
			pruned++
		}
	}
	if pruned == 0 {
		return 0, nil
	}
	return pruned, s.persistLastFired()
}

func (s *Store) hasID(id int64) bool {
	for _, ev := range s.events {
		if ev.ID == id {
			return true
		}
	}
	return false
}

// persistEvents and persistLastFired expect s.mu held.

func (s *Store) persistEvents() error {
	b, err := json.Marshal(s.events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	if err := s.blobs.Save(blobEvents, b); err != nil {
		return fmt.Errorf("persist events: %w", err)
	}
	return nil
}

func (s *Store) persistLastFired() error {
	// JSON objects key on strings; the map is persisted as id-string -> millis.
	wire := make(map[string]int64, len(s.lastFired))
	for id, ts := range s.lastFired {
		wire[strconv.FormatInt(id, 10)] = ts
	}
	b, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("encode last-fired map: %w", err)
	}
	if err := s.blobs.Save(blobLastFired, b); err != nil {
		return fmt.Errorf("persist last-fired map: %w", err)
	}
	return nil
}

func decodeLastFired(data []byte) (map[int64]int64, error) {
	var wire map[string]json.Number
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	out := make(map[int64]int64, len(wire))
	for k, v := range wire {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		// Historical writers stored fractional millis; truncate.
		if f, err := v.Float64(); err == nil {
			out[id] = int64(f)
		}
	}
	return out, nil
}
