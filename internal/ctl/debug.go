package ctl

import (
	"fmt"
	"strings"
)

// DebugOptions configures the debug command.
type DebugOptions struct {
	Enable bool
	Speed  float64
	JSON   bool
}

// Debug switches the daemon's simulated clock on or off. With the clock
// simulated, time runs at the requested multiple of real time, so a whole
// day of reminders can be exercised in minutes.
func Debug(baseURL string, opts DebugOptions) error {
	baseURL = strings.TrimRight(baseURL, "/")

	body := map[string]any{
		"enabled": opts.Enable,
		"speed":   opts.Speed,
	}

	var result struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := postJSON(baseURL, "/api/debug", body, &result); err != nil {
		return err
	}

	if opts.JSON {
		return printJSON(result)
	}

	if result.OK {
		fmt.Printf("\n  %s  %s\n\n", colorize(green, "CLOCK"), result.Message)
	} else {
		fmt.Printf("\n  %s  %s\n\n", colorize(red, "ERROR"), result.Error)
	}
	return nil
}
