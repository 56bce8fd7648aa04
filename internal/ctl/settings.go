package ctl

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Settings fetches and displays the settings document. The engine-owned
// fields get a formatted summary; everything else in the document is listed
// underneath so presentation-layer keys stay visible.
func Settings(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	status, body, err := getRaw(baseURL, "/api/settings")
	if err != nil {
		return err
	}
	if status != 200 {
		return fmt.Errorf("HTTP %d from /api/settings", status)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(doc)
	}

	str := func(key string) string {
		var v string
		_ = json.Unmarshal(doc[key], &v)
		return v
	}
	boolean := func(key string) bool {
		var v bool
		_ = json.Unmarshal(doc[key], &v)
		return v
	}
	num := func(key string) float64 {
		var v float64
		_ = json.Unmarshal(doc[key], &v)
		return v
	}

	engineKeys := map[string]bool{
		"enableHourlyAnnouncement": true,
		"hourlyAnnouncementStart":  true,
		"hourlyAnnouncementEnd":    true,
		"hourlyAnnouncementFormat": true,
		"hourlyAnnouncement24Hour": true,
		"debugMode":                true,
		"debugSpeed":               true,
	}

	fmt.Println()
	fmt.Println(header("  SETTINGS"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 44)))
	fmt.Printf("  %-22s %s\n", colorize(dim, "Hourly announcement:"), onOff(boolean("enableHourlyAnnouncement")))
	fmt.Printf("  %-22s %s - %s\n", colorize(dim, "Announcement window:"), str("hourlyAnnouncementStart"), str("hourlyAnnouncementEnd"))
	if f := str("hourlyAnnouncementFormat"); f != "" {
		fmt.Printf("  %-22s %s\n", colorize(dim, "Announcement format:"), f)
	}
	fmt.Printf("  %-22s %s\n", colorize(dim, "24-hour speech:"), onOff(boolean("hourlyAnnouncement24Hour")))
	debugStr := onOff(boolean("debugMode"))
	if boolean("debugMode") {
		debugStr += colorize(yellow, fmt.Sprintf("  (%gx)", num("debugSpeed")))
	}
	fmt.Printf("  %-22s %s\n", colorize(dim, "Simulated clock:"), debugStr)

	// Presentation keys the daemon passes through untouched.
	var extra []string
	for k := range doc {
		if !engineKeys[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	if len(extra) > 0 {
		fmt.Println()
		fmt.Printf("  %s %s\n", colorize(dim, "Display keys:"), colorize(dim, strings.Join(extra, ", ")))
	}
	fmt.Println()

	return nil
}
