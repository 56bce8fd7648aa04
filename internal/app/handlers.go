package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nwhitfield/chime/internal/event"
	"github.com/nwhitfield/chime/internal/scheduler"
	"github.com/nwhitfield/chime/internal/settings"
)

// ---------------------------------------------------------------------------
// Core handlers
// ---------------------------------------------------------------------------

func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	// If the client asks for JSON, return component-level health checks.
	if r.Header.Get("Accept") == "application/json" {
		a.handleHealthDetailed(w, r)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (a *App) handleHealthDetailed(w http.ResponseWriter, _ *http.Request) {
	checks := map[string]any{}
	allOK := true

	// State database reachable.
	if _, err := a.blobs.Names(); err != nil {
		checks["state_db"] = map[string]any{"ok": false, "error": err.Error()}
		allOK = false
	} else {
		checks["state_db"] = map[string]any{"ok": true, "path": a.cfg.Data.StateDB}
	}

	// Config file readable.
	if a.configPath != "" {
		if _, err := os.Stat(a.configPath); err != nil {
			checks["config_file"] = map[string]any{"ok": false, "error": err.Error()}
			allOK = false
		} else {
			checks["config_file"] = map[string]any{"ok": true, "path": a.configPath}
		}
	}

	status := http.StatusOK
	if !allOK {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"healthy": allOK,
		"checks":  checks,
	})
}

func (a *App) handleStatus(w http.ResponseWriter, _ *http.Request) {
	simEnabled, simSpeed := a.clock.Mode()
	now := a.clock.Now()

	resp := map[string]any{
		"name":           "chime",
		"state":          a.state.Load().(string),
		"uptime_seconds": int64(time.Since(a.startedAt).Seconds()),
		"state_db":       a.cfg.Data.StateDB,
		"demo_enabled":   a.cfg.Demo.Enabled,
		"paused":         a.scheduler.IsPaused(),
		"event_count":    len(a.store.List()),
		"clock": map[string]any{
			"now":       now.Format(time.RFC3339),
			"simulated": simEnabled,
			"speed":     simSpeed,
		},
	}

	// Disk usage for the state database's volume.
	if du := diskUsage(filepath.Dir(a.cfg.Data.StateDB)); du != nil {
		resp["disk"] = du
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (a *App) handleVersion(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"version":    Version,
		"go_version": GoVersion,
		"built_at":   BuiltAt,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// ---------------------------------------------------------------------------
// Event CRUD
// ---------------------------------------------------------------------------

func (a *App) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"events": a.store.List()})

	case http.MethodPost:
		var ev event.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			jsonError(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		// Ids are creation timestamps; the store bumps collisions.
		if ev.ID == 0 {
			ev.ID = a.clock.Timestamp()
		}
		created, err := a.store.Create(ev)
		if err != nil {
			jsonError(w, err.Error(), errStatus(err))
			return
		}
		a.record("info", "event created: "+created.Name)
		a.emit("chimed", map[string]any{"type": "events_changed"})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(created)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (a *App) handleEventByID(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/events/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		jsonError(w, "invalid event id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		ev, ok := a.store.Get(id)
		if !ok {
			jsonError(w, "event not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ev)

	case http.MethodPut:
		var ev event.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			jsonError(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		updated, err := a.store.Update(id, ev)
		if err != nil {
			jsonError(w, err.Error(), errStatus(err))
			return
		}
		a.record("info", "event updated: "+updated.Name)
		a.emit("chimed", map[string]any{"type": "events_changed"})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(updated)

	case http.MethodDelete:
		if err := a.store.Delete(id); err != nil {
			jsonError(w, err.Error(), errStatus(err))
			return
		}
		a.record("info", "event deleted: "+idStr)
		a.emit("chimed", map[string]any{"type": "events_changed"})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// errStatus maps store errors to HTTP status codes.
func errStatus(err error) int {
	if errors.Is(err, event.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

func (a *App) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a.currentSettings())

	case http.MethodPut:
		var st settings.Settings
		if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
			jsonError(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := settings.Save(a.blobs, st); err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}

		a.settingsMu.Lock()
		prev := a.settings
		a.settings = st
		a.settingsMu.Unlock()

		// A debug-mode change in the document flips the clock too. Routed
		// through the scheduler so its minute guard resets with the clock.
		if st.DebugMode != prev.DebugMode || st.DebugSpeed != prev.DebugSpeed {
			payload, _ := json.Marshal(map[string]any{
				"enabled": st.DebugMode,
				"speed":   st.DebugSpeed,
			})
			a.sendSchedulerCommand("debug", payload)
		}

		a.record("info", "settings updated")
		a.emit("chimed", map[string]any{"type": "settings_changed"})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(st)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ---------------------------------------------------------------------------
// Scheduler controls
// ---------------------------------------------------------------------------

func (a *App) handleDebug(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Enabled bool    `json:"enabled"`
		Speed   float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Enabled && req.Speed <= 0 {
		req.Speed = 60
	}

	payload, _ := json.Marshal(req)
	result := a.sendSchedulerCommand("debug", payload)
	writeCommandResult(w, result)
}

func (a *App) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	result := a.sendSchedulerCommand("pause", nil)
	writeCommandResult(w, result)
}

func (a *App) handleResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	result := a.sendSchedulerCommand("resume", nil)
	writeCommandResult(w, result)
}

func (a *App) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}

	payload, _ := json.Marshal(req)
	result := a.sendSchedulerCommand("trigger", payload)
	writeCommandResult(w, result)
}

// ---------------------------------------------------------------------------
// Logs
// ---------------------------------------------------------------------------

func (a *App) handleLogs(w http.ResponseWriter, r *http.Request) {
	a.logBufMu.Lock()
	entries := make([]logEntry, len(a.logBuf))
	copy(entries, a.logBuf)
	a.logBufMu.Unlock()

	levelFilter := r.URL.Query().Get("level")
	if levelFilter != "" {
		var filtered []logEntry
		for _, e := range entries {
			if e.Level == levelFilter {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	limitStr := r.URL.Query().Get("limit")
	if limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 && n < len(entries) {
			entries = entries[len(entries)-n:]
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"logs": entries})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":    false,
		"error": msg,
	})
}

// writeCommandResult writes a scheduler.CommandResult as JSON.
func writeCommandResult(w http.ResponseWriter, result scheduler.CommandResult) {
	w.Header().Set("Content-Type", "application/json")
	if !result.OK {
		w.WriteHeader(http.StatusInternalServerError)
	}
	_ = json.NewEncoder(w).Encode(result)
}
