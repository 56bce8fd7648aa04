// Package demo seeds the daemon with sample events and an accelerated
// simulated clock so the scheduler, CLI, and clock face can be exercised
// end-to-end without waiting for real wall-clock minutes to pass.
package demo

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nwhitfield/chime/internal/clock"
	"github.com/nwhitfield/chime/internal/event"
	"github.com/nwhitfield/chime/internal/ws"
)

// Runner configures demo mode: a fast clock plus a small set of sample
// events timed to start firing within the first few simulated minutes.
type Runner struct {
	Hub   *ws.Hub
	Clock *clock.Source
	Store *event.Store
	Log   *log.Logger

	// Speed is the simulated clock multiplier.
	Speed float64
}

// New creates a demo runner.
func New(hub *ws.Hub, src *clock.Source, store *event.Store, logger *log.Logger) *Runner {
	return &Runner{
		Hub:   hub,
		Clock: src,
		Store: store,
		Log:   logger,
		Speed: 60,
	}
}

// Run enables the accelerated clock, seeds sample events if the store is
// empty, and then blocks until ctx is cancelled. The regular scheduler loop
// does the rest.
func (r *Runner) Run(ctx context.Context) {
	r.Clock.SetMode(true, r.Speed)
	r.broadcast(map[string]any{
		"type":    "log",
		"level":   "info",
		"message": fmt.Sprintf("demo mode active, simulated clock at %gx", r.Speed),
	})

	if len(r.Store.List()) == 0 {
		r.seed()
	}

	<-ctx.Done()
	r.Clock.SetMode(false, 1)
}

// seed creates a handful of sample events a few simulated minutes out so
// triggers appear on screen almost immediately.
func (r *Runner) seed() {
	now := r.Clock.Now()
	at := func(offset time.Duration) string {
		return now.Add(offset).Format("15:04")
	}

	samples := []event.Event{
		{
			ID:         r.Clock.Timestamp(),
			Name:       "Wake up",
			Time:       at(2 * time.Minute),
			Message:    "Good morning! Time to get up.",
			Recurrence: event.Daily(),
		},
		{
			ID:         r.Clock.Timestamp() + 1,
			Name:       "Brush teeth",
			Time:       at(4 * time.Minute),
			Message:    "Two minutes, top and bottom!",
			Recurrence: event.Every(6, event.UnitHours),
		},
		{
			ID:         r.Clock.Timestamp() + 2,
			Name:       "Library day",
			Time:       at(6 * time.Minute),
			Message:    "Pack your library books.",
			Recurrence: event.Weekly(int(now.Weekday())),
		},
		{
			ID:         r.Clock.Timestamp() + 3,
			Name:       "Surprise",
			Time:       at(8 * time.Minute),
			Message:    "This one only happens once.",
			Recurrence: event.Once(),
		},
	}

	for _, ev := range samples {
		if _, err := r.Store.Create(ev); err != nil {
			r.Log.Printf("demo seed %q: %v", ev.Name, err)
			continue
		}
		r.broadcast(map[string]any{
			"type":    "log",
			"level":   "info",
			"message": fmt.Sprintf("demo event seeded: %q at %s", ev.Name, ev.Time),
		})
	}
	r.broadcast(map[string]any{"type": "events_changed"})
}

func (r *Runner) broadcast(v map[string]any) {
	v["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	v["component"] = "demo"
	r.Hub.BroadcastJSON(v)
}
