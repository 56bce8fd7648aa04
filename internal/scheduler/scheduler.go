// Package scheduler drives the once-per-tick evaluation loop at the heart of
// the chimed daemon. Each tick it reads the (possibly simulated) clock, and
// at the top of every minute checks which events are due and whether an
// hourly announcement should go out.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nwhitfield/chime/internal/clock"
	"github.com/nwhitfield/chime/internal/event"
	"github.com/nwhitfield/chime/internal/recur"
	"github.com/nwhitfield/chime/internal/settings"
)

// Broadcaster fans a JSON-marshalable payload out to connected clients.
// Satisfied by ws.Hub.
type Broadcaster interface {
	BroadcastJSON(v any)
}

// Command represents an external command sent to the scheduler via its
// Commands channel. The Reply channel receives exactly one result.
type Command struct {
	Type    string
	Payload json.RawMessage
	Reply   chan<- CommandResult
}

// CommandResult is the response sent back through a Command's Reply channel.
type CommandResult struct {
	OK       bool   `json:"ok"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Runner owns the tick loop. It evaluates due events against the store,
// commits trigger history, and broadcasts the results to connected displays.
type Runner struct {
	Hub   Broadcaster
	Clock *clock.Source
	Store *event.Store
	Log   *log.Logger

	// Commands receives external commands from HTTP handlers.
	// The scheduler drains this channel between ticks.
	Commands chan Command

	// SettingsFn returns the current settings document. Set by the app
	// layer, which owns settings persistence.
	SettingsFn func() settings.Settings

	// DebugChanged is called after a debug command flips the simulated
	// clock so the app layer can persist the new mode.
	DebugChanged func(enabled bool, speed float64)

	paused atomic.Bool

	// lastMinute guards against evaluating the same wall-clock minute
	// twice when accelerated ticks land on second zero repeatedly.
	lastMinute string
}

// New creates a scheduler runner.
func New(hub Broadcaster, src *clock.Source, store *event.Store, logger *log.Logger) *Runner {
	return &Runner{
		Hub:      hub,
		Clock:    src,
		Store:    store,
		Log:      logger,
		Commands: make(chan Command, 4),
	}
}

// IsPaused reports whether the scheduler is paused.
func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

// Run is the main loop. It sleeps for one tick interval (shortened when the
// simulated clock is accelerated), handles any pending command, and then
// evaluates the current instant. It returns when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, setState func(string)) {
	r.broadcast(map[string]any{
		"type":    "log",
		"level":   "info",
		"message": "scheduler started",
	})
	setState("RUNNING")

	for {
		switch r.sleepOrCommand(ctx, r.Clock.TickInterval(), setState) {
		case sleepCancelled:
			return
		case sleepInterrupted:
			continue
		}

		if r.paused.Load() {
			continue
		}
		r.Tick()
	}
}

// Tick evaluates a single instant of the clock. Exported so tests can step
// the scheduler without running the loop.
func (r *Runner) Tick() {
	now := r.Clock.Now()
	if now.Second() != 0 {
		return
	}

	// One evaluation per minute, even if several accelerated ticks land
	// inside the same simulated minute.
	minuteKey := now.Format("2006-01-02 15:04")
	if minuteKey == r.lastMinute {
		return
	}
	r.lastMinute = minuteKey

	hhmm := now.Format("15:04")

	if now.Minute() == 0 {
		r.announceHour(now, hhmm)
	}

	for _, ev := range r.Store.Due(hhmm) {
		r.fire(ev, now)
	}
}

// fire evaluates and commits a single due event. A panic in one event's
// evaluation must not take down the rest of the minute, so each event is
// isolated behind a recover.
func (r *Runner) fire(ev event.Event, now time.Time) {
	defer func() {
		if p := recover(); p != nil {
			r.Log.Printf("panic evaluating event %d (%s): %v\n%s", ev.ID, ev.Name, p, debug.Stack())
		}
	}()

	if !recur.ShouldTrigger(ev, r.Store.LastFired(ev.ID), now) {
		return
	}

	disabled, err := r.Store.CommitTrigger(ev.ID, now.UnixMilli())
	if err != nil {
		r.Log.Printf("commit trigger for event %d: %v", ev.ID, err)
		r.broadcast(map[string]any{
			"type":    "log",
			"level":   "error",
			"message": fmt.Sprintf("failed to record trigger for %q: %v", ev.Name, err),
		})
		return
	}

	r.Log.Printf("event due: %q at %s", ev.Name, ev.Time)
	r.broadcast(map[string]any{
		"type":       "event_due",
		"id":         ev.ID,
		"name":       ev.Name,
		"time":       ev.Time,
		"message":    ev.Message,
		"voice":      ev.Voice,
		"pictureUrl": ev.PictureURL,
		"audioUrl":   ev.AudioURL,
		"disabled":   disabled,
	})
}

// announceHour broadcasts the hourly announcement when enabled and inside
// the configured window.
func (r *Runner) announceHour(now time.Time, hhmm string) {
	if r.SettingsFn == nil {
		return
	}
	st := r.SettingsFn()
	if !st.EnableHourlyAnnouncement {
		return
	}
	if !withinWindow(hhmm, st.HourlyStart, st.HourlyEnd) {
		return
	}

	text := AnnouncementText(now, st)
	r.Log.Printf("hourly announcement: %s", text)
	r.broadcast(map[string]any{
		"type":         "hourly_announcement",
		"clock":        hhmm,
		"announcement": text,
	})
}

// withinWindow reports whether t ("HH:MM") falls inside [start, end],
// inclusive on both ends. A window whose end precedes its start crosses
// midnight: 22:00-06:00 covers late evening and early morning.
func withinWindow(t, start, end string) bool {
	if start == "" || end == "" {
		return true
	}
	if start <= end {
		return t >= start && t <= end
	}
	return t >= start || t <= end
}

// AnnouncementText renders the spoken announcement for the top of the hour.
// A custom format is honored only when it carries a {time} placeholder; any
// other format falls back to the stock phrasing for the clock style.
func AnnouncementText(now time.Time, st settings.Settings) string {
	hour := now.Hour()
	display := hour % 12
	if display == 0 {
		display = 12
	}
	period := now.Format("PM")

	if strings.Contains(st.HourlyFormat, "{time}") {
		var timeText string
		if st.Hourly24Hour {
			timeText = fmt.Sprintf("%d:%02d", hour, now.Minute())
		} else {
			timeText = fmt.Sprintf("%d %s", display, period)
		}
		return strings.ReplaceAll(st.HourlyFormat, "{time}", timeText)
	}

	if st.Hourly24Hour {
		return fmt.Sprintf("It is now %d hundred hours", hour)
	}
	return fmt.Sprintf("It is now %d %s", display, period)
}

// sleepResult indicates what ended a sleep period.
type sleepResult int

const (
	sleepCompleted   sleepResult = iota // timer expired normally
	sleepCancelled                      // context was cancelled
	sleepInterrupted                    // a command was received and handled
)

// sleepOrCommand blocks for duration d, until ctx is cancelled, or until a
// command arrives on r.Commands. Commands are handled inline. Returns what
// ended the sleep.
func (r *Runner) sleepOrCommand(ctx context.Context, d time.Duration, setState func(string)) sleepResult {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return sleepCancelled
	case <-t.C:
		return sleepCompleted
	case cmd := <-r.Commands:
		r.handleCommand(cmd, setState)
		return sleepInterrupted
	}
}

// handleCommand dispatches an incoming command to the appropriate handler.
func (r *Runner) handleCommand(cmd Command, setState func(string)) {
	switch cmd.Type {
	case "pause":
		r.handlePauseCommand(cmd, setState)
	case "resume":
		r.handleResumeCommand(cmd, setState)
	case "debug":
		r.handleDebugCommand(cmd)
	case "trigger":
		r.handleTriggerCommand(cmd)
	default:
		cmd.Reply <- CommandResult{OK: false, Error: "unknown command: " + cmd.Type}
	}
}

func (r *Runner) handlePauseCommand(cmd Command, setState func(string)) {
	if r.paused.Load() {
		cmd.Reply <- CommandResult{OK: true, Message: "scheduler already paused"}
		return
	}
	r.paused.Store(true)
	setState("PAUSED")
	r.broadcast(map[string]any{
		"type":    "log",
		"level":   "info",
		"message": "scheduler paused by user",
	})
	cmd.Reply <- CommandResult{OK: true, Message: "scheduler paused"}
}

func (r *Runner) handleResumeCommand(cmd Command, setState func(string)) {
	if !r.paused.Load() {
		cmd.Reply <- CommandResult{OK: true, Message: "scheduler already running"}
		return
	}
	r.paused.Store(false)
	setState("RUNNING")
	r.broadcast(map[string]any{
		"type":    "log",
		"level":   "info",
		"message": "scheduler resumed by user",
	})
	cmd.Reply <- CommandResult{OK: true, Message: "scheduler resumed"}
}

// handleDebugCommand flips the simulated clock on or off.
func (r *Runner) handleDebugCommand(cmd Command) {
	var payload struct {
		Enabled bool    `json:"enabled"`
		Speed   float64 `json:"speed"`
	}
	if err := json.Unmarshal(cmd.Payload, &payload); err != nil {
		cmd.Reply <- CommandResult{OK: false, Error: "invalid payload: " + err.Error()}
		return
	}
	if payload.Enabled && payload.Speed <= 0 {
		cmd.Reply <- CommandResult{OK: false, Error: "speed must be > 0"}
		return
	}

	r.Clock.SetMode(payload.Enabled, payload.Speed)
	// New simulated timeline means the minute guard no longer applies.
	r.lastMinute = ""

	if r.DebugChanged != nil {
		r.DebugChanged(payload.Enabled, payload.Speed)
	}

	var msg string
	if payload.Enabled {
		msg = fmt.Sprintf("simulated clock enabled at %gx", payload.Speed)
	} else {
		msg = "simulated clock disabled, back to real time"
	}
	r.broadcast(map[string]any{
		"type":    "log",
		"level":   "info",
		"message": msg,
	})
	cmd.Reply <- CommandResult{OK: true, Message: msg}
}

// handleTriggerCommand fires an event immediately, bypassing the recurrence
// check. Used from the CLI to test an event's sound and picture without
// waiting for its scheduled time.
func (r *Runner) handleTriggerCommand(cmd Command) {
	var payload struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(cmd.Payload, &payload); err != nil {
		cmd.Reply <- CommandResult{OK: false, Error: "invalid payload: " + err.Error()}
		return
	}

	ev, ok := r.Store.Get(payload.ID)
	if !ok {
		cmd.Reply <- CommandResult{OK: false, Error: fmt.Sprintf("no event with id %d", payload.ID)}
		return
	}

	now := r.Clock.Now()
	disabled, err := r.Store.CommitTrigger(ev.ID, now.UnixMilli())
	if err != nil {
		cmd.Reply <- CommandResult{OK: false, Error: "record trigger: " + err.Error()}
		return
	}

	r.broadcast(map[string]any{
		"type":       "event_due",
		"id":         ev.ID,
		"name":       ev.Name,
		"time":       ev.Time,
		"message":    ev.Message,
		"voice":      ev.Voice,
		"pictureUrl": ev.PictureURL,
		"audioUrl":   ev.AudioURL,
		"disabled":   disabled,
	})
	r.broadcast(map[string]any{
		"type":    "log",
		"level":   "info",
		"message": fmt.Sprintf("manual trigger: %q", ev.Name),
	})

	cmd.Reply <- CommandResult{
		OK:       true,
		Message:  fmt.Sprintf("triggered %q", ev.Name),
		Disabled: disabled,
	}
}

func (r *Runner) broadcast(v map[string]any) {
	v["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	v["component"] = "scheduler"
	r.Hub.BroadcastJSON(v)
}
