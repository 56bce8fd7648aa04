package clock

import (
	"testing"
	"time"
)

// fakeTime is a controllable real-clock stand-in.
type fakeTime struct {
	t time.Time
}

func (f *fakeTime) now() time.Time            { return f.t }
func (f *fakeTime) advance(d time.Duration)   { f.t = f.t.Add(d) }
func at(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestRealModePassesThrough(t *testing.T) {
	ft := &fakeTime{t: at("2024-01-01T07:59:59")}
	src := NewSourceFunc(ft.now)

	if got := src.Now(); !got.Equal(ft.t) {
		t.Fatalf("Now in real mode: got %v, want %v", got, ft.t)
	}
	ft.advance(3 * time.Second)
	if got := src.Now(); !got.Equal(ft.t) {
		t.Fatalf("Now after advance: got %v, want %v", got, ft.t)
	}
}

func TestSimulatedAdvanceScalesBySpeed(t *testing.T) {
	ft := &fakeTime{t: at("2024-01-01T12:00:00")}
	src := NewSourceFunc(ft.now)
	src.SetMode(true, 60)

	anchor := src.Now() // no real time elapsed yet
	if !anchor.Equal(ft.t) {
		t.Fatalf("anchor: got %v, want %v", anchor, ft.t)
	}

	ft.advance(1 * time.Second)
	got := src.Now()
	want := at("2024-01-01T12:01:00")
	if !got.Equal(want) {
		t.Fatalf("after 1s real at 60x: got %v, want %v", got, want)
	}

	ft.advance(500 * time.Millisecond)
	got = src.Now()
	want = at("2024-01-01T12:01:30")
	if !got.Equal(want) {
		t.Fatalf("after 0.5s real at 60x: got %v, want %v", got, want)
	}
}

func TestSimulatedMonotonic(t *testing.T) {
	ft := &fakeTime{t: at("2024-06-01T00:00:00")}
	src := NewSourceFunc(ft.now)
	src.SetMode(true, 3.5)

	prev := src.Now()
	for i := 0; i < 200; i++ {
		ft.advance(time.Duration(i%7) * 100 * time.Millisecond)
		cur := src.Now()
		if cur.Before(prev) {
			t.Fatalf("iteration %d: %v before %v", i, cur, prev)
		}
		prev = cur
	}
}

func TestSpeedChangeKeepsAnchor(t *testing.T) {
	ft := &fakeTime{t: at("2024-01-01T12:00:00")}
	src := NewSourceFunc(ft.now)
	src.SetMode(true, 60)

	ft.advance(1 * time.Second)
	src.Now() // simulated is now 12:01:00

	// Re-enabling with a new speed must not rewind the simulated clock.
	src.SetMode(true, 10)
	ft.advance(1 * time.Second)
	got := src.Now()
	want := at("2024-01-01T12:01:10")
	if !got.Equal(want) {
		t.Fatalf("after speed change: got %v, want %v", got, want)
	}
}

func TestDisableReanchorsOnReenable(t *testing.T) {
	ft := &fakeTime{t: at("2024-01-01T12:00:00")}
	src := NewSourceFunc(ft.now)

	src.SetMode(true, 1000)
	ft.advance(10 * time.Second) // simulated runs far ahead
	src.Now()

	src.SetMode(false, 1)
	ft.advance(time.Minute)

	// Re-enable: simulated clock anchors to the real clock now, with no
	// drift carried over from the earlier session.
	src.SetMode(true, 2)
	got := src.Now()
	if !got.Equal(ft.t) {
		t.Fatalf("re-enable anchor: got %v, want %v", got, ft.t)
	}
}

func TestTimestampTruncatesToMillis(t *testing.T) {
	ft := &fakeTime{t: time.UnixMilli(1704096000123)}
	src := NewSourceFunc(ft.now)

	if got := src.Timestamp(); got != 1704096000123 {
		t.Fatalf("Timestamp: got %d, want 1704096000123", got)
	}
}

func TestTickInterval(t *testing.T) {
	tests := []struct {
		enabled bool
		speed   float64
		want    time.Duration
	}{
		{false, 1, time.Second},
		{true, 1, time.Second},
		{true, 2, 500 * time.Millisecond},
		{true, 60, 100 * time.Millisecond},  // floored
		{true, 1000, 100 * time.Millisecond}, // floored
	}
	for _, tc := range tests {
		src := NewSourceFunc(time.Now)
		src.SetMode(tc.enabled, tc.speed)
		if got := src.TickInterval(); got != tc.want {
			t.Errorf("TickInterval(enabled=%v speed=%v): got %v, want %v",
				tc.enabled, tc.speed, got, tc.want)
		}
	}
}
