package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chime.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Data.StateDB != "/var/lib/chime/state.db" {
		t.Errorf("state_db = %q", cfg.Data.StateDB)
	}
	if cfg.Server.Bind != "0.0.0.0:8080" {
		t.Errorf("bind = %q", cfg.Server.Bind)
	}
	if cfg.Demo.Enabled || cfg.Demo.Speed != 60 {
		t.Errorf("demo = %+v", cfg.Demo)
	}
	if err := validate(cfg); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
bind = "127.0.0.1:9999"

[demo]
enabled = true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Bind != "127.0.0.1:9999" {
		t.Errorf("bind not overridden: %q", cfg.Server.Bind)
	}
	if !cfg.Demo.Enabled {
		t.Error("demo.enabled not overridden")
	}
	// Untouched sections keep their defaults.
	if cfg.Data.StateDB != "/var/lib/chime/state.db" {
		t.Errorf("state_db default lost: %q", cfg.Data.StateDB)
	}
	if cfg.Demo.Speed != 60 {
		t.Errorf("demo.speed default lost: %g", cfg.Demo.Speed)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty state_db", "[data]\nstate_db = \"\"\n"},
		{"empty bind", "[server]\nbind = \"\"\n"},
		{"zero demo speed", "[demo]\nspeed = 0\n"},
		{"negative demo speed", "[demo]\nspeed = -5\n"},
		{"bad cron expression", "[maintenance]\nschedule = \"not a cron line\"\n"},
		{"malformed toml", "[server\nbind=\n"},
	}
	for _, tc := range cases {
		path := writeConfig(t, tc.body)
		if _, err := Load(path); err == nil {
			t.Errorf("%s: accepted", tc.name)
		}
	}
}

func TestValidateAcceptsCronSchedules(t *testing.T) {
	for _, expr := range []string{"30 3 * * *", "@daily", "0 */6 * * *"} {
		cfg := Default()
		cfg.Maintenance.Schedule = expr
		if err := validate(cfg); err != nil {
			t.Errorf("schedule %q rejected: %v", expr, err)
		}
	}
}
