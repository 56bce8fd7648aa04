// Package app wires together the HTTP server, WebSocket hub, state store,
// clock source, and scheduler. It owns the daemon's lifecycle and is the
// single source of truth for the current operating state.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nwhitfield/chime/internal/blob"
	"github.com/nwhitfield/chime/internal/clock"
	"github.com/nwhitfield/chime/internal/config"
	"github.com/nwhitfield/chime/internal/demo"
	"github.com/nwhitfield/chime/internal/event"
	"github.com/nwhitfield/chime/internal/scheduler"
	"github.com/nwhitfield/chime/internal/settings"
	"github.com/nwhitfield/chime/internal/telemetry"
	"github.com/nwhitfield/chime/internal/ws"
)

// Options holds everything the App needs from the caller.
type Options struct {
	Logger     *log.Logger
	Cfg        config.Config
	ConfigPath string
	Bind       string
}

// App is the top-level daemon process. It manages the HTTP server, the
// WebSocket event hub, the persistent state store, and the scheduler.
type App struct {
	log        *log.Logger
	cfg        config.Config
	configPath string
	bind       string
	server     *http.Server

	startedAt time.Time
	state     atomic.Value // current state string (BOOTING, RUNNING, PAUSED)

	wsHub     *ws.Hub
	blobs     *blob.Store
	store     *event.Store
	clock     *clock.Source
	scheduler *scheduler.Runner
	cron      *cron.Cron

	settingsMu sync.Mutex
	settings   settings.Settings

	logBufMu sync.Mutex
	logBuf   []logEntry
}

// logEntry is one line of the in-memory log ring exposed at /api/logs.
type logEntry struct {
	TS      string `json:"ts"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

const logBufCap = 500

// New creates an App in the BOOTING state. Call Run to start serving.
func New(opts Options) *App {
	a := &App{
		log:        opts.Logger,
		cfg:        opts.Cfg,
		configPath: opts.ConfigPath,
		bind:       opts.Bind,
		startedAt:  time.Now(),
		wsHub:      ws.NewHub(),
		clock:      clock.NewSource(),
	}
	a.state.Store("BOOTING")
	return a
}

// Run opens the state store, starts the HTTP server, WebSocket hub,
// heartbeat ticker, maintenance cron, and scheduler. It blocks until the
// context is cancelled or the server returns an error.
func (a *App) Run(ctx context.Context) error {
	bind := a.bind
	if bind == "" {
		bind = a.cfg.Server.Bind
	}
	if bind == "" {
		bind = "0.0.0.0:8080"
	}

	blobs, err := blob.Open(a.cfg.Data.StateDB)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer blobs.Close()
	a.blobs = blobs

	a.store = event.NewStore(blobs, a.log)
	if err := a.store.Load(); err != nil {
		return fmt.Errorf("load events: %w", err)
	}

	st, err := settings.Load(blobs)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	a.settings = st
	if st.DebugMode {
		a.clock.SetMode(true, st.DebugSpeed)
		a.record("info", fmt.Sprintf("simulated clock restored at %gx", st.DebugSpeed))
	}

	a.scheduler = scheduler.New(a.wsHub, a.clock, a.store, a.log)
	a.scheduler.SettingsFn = a.currentSettings
	a.scheduler.DebugChanged = a.persistDebugMode

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", a.handleHealthz)
	mux.HandleFunc("/api/status", a.handleStatus)
	mux.HandleFunc("/api/version", a.handleVersion)
	mux.HandleFunc("/api/events", a.handleEvents)
	mux.HandleFunc("/api/events/", a.handleEventByID)
	mux.HandleFunc("/api/settings", a.handleSettings)
	mux.HandleFunc("/api/debug", a.handleDebug)
	mux.HandleFunc("/api/pause", a.handlePause)
	mux.HandleFunc("/api/resume", a.handleResume)
	mux.HandleFunc("/api/trigger", a.handleTrigger)
	mux.HandleFunc("/api/logs", a.handleLogs)
	mux.Handle("/ws", a.wsHub.Handler())

	a.server = &http.Server{
		Addr:              bind,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}

	a.log.Printf("listening on http://%s", bind)

	go a.wsHub.Run(ctx)
	go a.heartbeatLoop(ctx)
	a.startMaintenance()

	if a.cfg.Demo.Enabled {
		d := demo.New(a.wsHub, a.clock, a.store, a.log)
		d.Speed = a.cfg.Demo.Speed
		go d.Run(ctx)
	}
	go a.scheduler.Run(ctx, a.transition)

	go func() {
		<-ctx.Done()
		a.log.Printf("shutdown requested")
		if a.cron != nil {
			a.cron.Stop()
		}
		_ = a.server.Shutdown(context.Background())
	}()

	return a.server.Serve(ln)
}

// startMaintenance registers the nightly housekeeping job: checkpoint the
// SQLite WAL and prune trigger history for deleted events.
func (a *App) startMaintenance() {
	if a.cfg.Maintenance.Schedule == "" {
		return
	}
	a.cron = cron.New()
	_, err := a.cron.AddFunc(a.cfg.Maintenance.Schedule, func() {
		if err := a.blobs.Checkpoint(); err != nil {
			a.record("error", "wal checkpoint failed: "+err.Error())
		}
		n, err := a.store.PruneLastFired()
		if err != nil {
			a.record("error", "trigger history prune failed: "+err.Error())
			return
		}
		a.record("info", fmt.Sprintf("maintenance complete, pruned %d orphaned trigger records", n))
	})
	if err != nil {
		a.log.Printf("maintenance schedule rejected: %v", err)
		return
	}
	a.cron.Start()
}

// currentSettings returns a copy of the active settings document.
func (a *App) currentSettings() settings.Settings {
	a.settingsMu.Lock()
	defer a.settingsMu.Unlock()
	return a.settings
}

// persistDebugMode records a clock mode change in the settings document so
// the simulated clock survives a daemon restart.
func (a *App) persistDebugMode(enabled bool, speed float64) {
	a.settingsMu.Lock()
	a.settings.DebugMode = enabled
	if enabled {
		a.settings.DebugSpeed = speed
	}
	st := a.settings
	a.settingsMu.Unlock()

	if err := settings.Save(a.blobs, st); err != nil {
		a.record("error", "persist debug mode: "+err.Error())
	}
}

// transition atomically updates the daemon state and broadcasts the change
// to all connected WebSocket clients.
func (a *App) transition(newState string) {
	old := a.state.Load().(string)
	if old == newState {
		return
	}
	a.state.Store(newState)

	a.wsHub.BroadcastJSON(telemetry.StateTransition{
		Event: telemetry.Event{
			Type:      telemetry.EventState,
			TS:        telemetry.NowTS(),
			Component: "chimed",
		},
		From: old,
		To:   newState,
	})
}

// heartbeatLoop sends a periodic heartbeat event so clients can detect
// connectivity and track uptime without polling.
func (a *App) heartbeatLoop(ctx context.Context) {
	t := time.NewTicker(10 * time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.wsHub.BroadcastJSON(telemetry.Heartbeat{
				Event: telemetry.Event{
					Type: telemetry.EventHeartbeat,
					TS:   telemetry.NowTS(),
				},
				State:         a.state.Load().(string),
				UptimeSeconds: int64(time.Since(a.startedAt).Seconds()),
			})
		}
	}
}

// record logs a message, appends it to the in-memory ring, and broadcasts
// it to connected clients.
func (a *App) record(level, msg string) {
	a.log.Printf("%s", msg)

	a.logBufMu.Lock()
	a.logBuf = append(a.logBuf, logEntry{
		TS:      time.Now().UTC().Format(time.RFC3339Nano),
		Level:   level,
		Message: msg,
	})
	if len(a.logBuf) > logBufCap {
		a.logBuf = a.logBuf[len(a.logBuf)-logBufCap:]
	}
	a.logBufMu.Unlock()

	a.emit("chimed", map[string]any{
		"type":    "log",
		"level":   level,
		"message": msg,
	})
}

// emit stamps a payload with a timestamp and component name, then pushes it
// to every connected WebSocket client.
func (a *App) emit(component string, payload map[string]any) {
	payload["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	payload["component"] = component
	a.wsHub.BroadcastJSON(payload)
}

// sendSchedulerCommand sends a command to the scheduler and waits for the reply.
func (a *App) sendSchedulerCommand(cmdType string, payload json.RawMessage) scheduler.CommandResult {
	reply := make(chan scheduler.CommandResult, 1)
	a.scheduler.Commands <- scheduler.Command{
		Type:    cmdType,
		Payload: payload,
		Reply:   reply,
	}
	return <-reply
}
