// Package config handles loading, defaulting, and validation of the chimed
// TOML configuration file. Every section maps to a typed struct so the rest
// of the codebase gets strong typing without manual key lookups.
package config

import (
	"errors"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config is the top-level configuration, mirroring the TOML sections.
type Config struct {
	Data        DataConfig        `toml:"data"        json:"data"`
	Logging     LoggingConfig     `toml:"logging"     json:"logging"`
	Server      ServerConfig      `toml:"server"      json:"server"`
	Demo        DemoConfig        `toml:"demo"        json:"demo"`
	Maintenance MaintenanceConfig `toml:"maintenance" json:"maintenance"`
}

type DataConfig struct {
	// StateDB is the path of the SQLite file holding events, trigger
	// history, and settings.
	StateDB string `toml:"state_db" json:"state_db"`
}

type LoggingConfig struct {
	Level string `toml:"level" json:"level"`
}

type ServerConfig struct {
	Bind string `toml:"bind" json:"bind"`
}

type DemoConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`
	// Speed is the simulated clock multiplier used while demo mode runs.
	Speed float64 `toml:"speed" json:"speed"`
}

type MaintenanceConfig struct {
	// Schedule is a cron expression for the nightly housekeeping job
	// (WAL checkpoint, orphaned trigger-history pruning).
	Schedule string `toml:"schedule" json:"schedule"`
}

// Default returns a Config populated with sane defaults. Values here are
// used whenever the TOML file omits a field.
func Default() Config {
	return Config{
		Data: DataConfig{
			StateDB: "/var/lib/chime/state.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Bind: "0.0.0.0:8080",
		},
		Demo: DemoConfig{
			Enabled: false,
			Speed:   60,
		},
		Maintenance: MaintenanceConfig{
			Schedule: "30 3 * * *",
		},
	}
}

// Load reads the TOML file at path, layers it on top of the defaults, and
// validates the result. An error is returned if the file can't be read,
// parsed, or if any constraint is violated.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Data.StateDB == "" {
		return errors.New("data.state_db must not be empty")
	}
	if cfg.Server.Bind == "" {
		return errors.New("server.bind must not be empty")
	}
	if cfg.Demo.Speed <= 0 {
		return errors.New("demo.speed must be > 0")
	}
	if cfg.Maintenance.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Maintenance.Schedule); err != nil {
			return errors.New("maintenance.schedule is not a valid cron expression")
		}
	}
	return nil
}
