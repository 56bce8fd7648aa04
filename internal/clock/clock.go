// Package clock supplies the current instant to the rest of the daemon.
// A Source is either transparent (real wall clock) or simulating: in
// simulated mode every read advances an accumulator by the real elapsed
// time multiplied by a speed factor, so the whole engine can be run at
// 60x or 3600x for debugging without touching the scheduler logic.
package clock

import (
	"sync"
	"time"
)

// Tick cadence bounds for the scheduler loop. The loop runs at 1s in real
// time; when simulating it speeds up proportionally but never below 100ms
// so a 1000x clock does not spin the CPU.
const (
	nominalTick = time.Second
	minTick     = 100 * time.Millisecond
)

// Source produces the current instant. Safe for concurrent use: the
// scheduler goroutine and HTTP handlers both read it.
//
// Reads are not idempotent in simulated mode — each Now or Timestamp call
// advances the simulated accumulator. Two calls in the same tick return
// different instants.
type Source struct {
	mu sync.Mutex

	realNow func() time.Time

	enabled bool
	speed   float64

	// Simulated state, all in fractional epoch milliseconds so sub-ms
	// advances at low speeds are not lost to truncation.
	seeded   bool
	simNow   float64
	lastReal float64
	lastSim  float64
}

// NewSource returns a Source in real-clock mode.
func NewSource() *Source {
	return NewSourceFunc(time.Now)
}

// NewSourceFunc returns a Source that reads the real clock through now.
// Tests inject a controlled function here to drive the simulation
// deterministically.
func NewSourceFunc(now func() time.Time) *Source {
	return &Source{realNow: now, speed: 1}
}

// SetMode switches between real and simulated time. Enabling seeds the
// simulated instant from the real clock only if no simulated instant is
// currently held, so re-applying a new speed changes pace without
// rewinding time already advanced. Disabling clears the simulated instant;
// a later enable re-anchors to the real clock.
//
// speed must be > 0; callers validate before forwarding user input.
func (s *Source) SetMode(enabled bool, speed float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enabled = enabled
	s.speed = speed

	if enabled {
		real := millis(s.realNow())
		if !s.seeded {
			s.simNow = real
			s.lastSim = real
			s.seeded = true
		}
		s.lastReal = real
		return
	}

	s.seeded = false
	s.simNow = 0
}

// Now returns the current instant. In simulated mode this advances the
// accumulator: simNow = lastSim + (realNow - lastReal) * speed.
func (s *Source) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return s.realNow()
	}

	real := millis(s.realNow())
	s.simNow = s.lastSim + (real-s.lastReal)*s.speed
	s.lastReal = real
	s.lastSim = s.simNow

	return fromMillis(s.simNow)
}

// Timestamp returns the current instant as truncated epoch milliseconds.
// Same advancing semantics as Now.
func (s *Source) Timestamp() int64 {
	return s.Now().UnixMilli()
}

// Mode reports whether simulation is enabled and at what speed.
func (s *Source) Mode() (enabled bool, speed float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled, s.speed
}

// TickInterval returns how often the scheduler loop should wake: the
// nominal 1s in real mode, scaled down by speed and floored at 100ms
// when simulating.
func (s *Source) TickInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.speed <= 1 {
		return nominalTick
	}
	d := time.Duration(float64(nominalTick) / s.speed)
	if d < minTick {
		d = minTick
	}
	return d
}

func millis(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Millisecond)
}

func fromMillis(ms float64) time.Time {
	return time.Unix(0, int64(ms*float64(time.Millisecond)))
}
