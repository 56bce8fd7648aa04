package ctl

import (
	"fmt"
	"strings"
)

// TriggerOptions configures the trigger command.
type TriggerOptions struct {
	ID   int64
	JSON bool
}

// Trigger fires an event immediately, bypassing its schedule. Useful for
// checking what a reminder looks and sounds like on the display.
func Trigger(baseURL string, opts TriggerOptions) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var result struct {
		OK       bool   `json:"ok"`
		Message  string `json:"message"`
		Error    string `json:"error"`
		Disabled bool   `json:"disabled"`
	}
	if err := postJSON(baseURL, "/api/trigger", map[string]any{"id": opts.ID}, &result); err != nil {
		return err
	}

	if opts.JSON {
		return printJSON(result)
	}

	if result.OK {
		fmt.Printf("\n  %s  %s\n", colorize(green, "TRIGGERED"), result.Message)
		if result.Disabled {
			fmt.Printf("  %s\n", colorize(dim, "one-time event, now disabled"))
		}
		fmt.Println()
	} else {
		fmt.Printf("\n  %s  %s\n\n", colorize(red, "ERROR"), result.Error)
	}
	return nil
}
