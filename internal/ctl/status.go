package ctl

import (
	"fmt"
	"strings"
	"time"
)

// StatusResponse mirrors the JSON returned by GET /api/status.
type StatusResponse struct {
	Name          string `json:"name"`
	State         string `json:"state"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	StateDB       string `json:"state_db"`
	DemoEnabled   bool   `json:"demo_enabled"`
	Paused        bool   `json:"paused"`
	EventCount    int    `json:"event_count"`
	Clock         struct {
		Now       string  `json:"now"`
		Simulated bool    `json:"simulated"`
		Speed     float64 `json:"speed"`
	} `json:"clock"`
	Disk *struct {
		TotalBytes     int64 `json:"total_bytes"`
		UsedBytes      int64 `json:"used_bytes"`
		AvailableBytes int64 `json:"available_bytes"`
	} `json:"disk"`
}

// Status fetches the daemon status and prints a formatted summary.
func Status(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var s StatusResponse
	if err := getJSON(baseURL, "/api/status", &s); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(s)
	}

	uptime := formatDuration(time.Duration(s.UptimeSeconds) * time.Second)
	stateStr := colorize(stateColor(s.State), s.State)
	if s.Paused {
		stateStr = colorize(yellow, "PAUSED")
	}

	clockStr := s.Clock.Now
	if s.Clock.Simulated {
		clockStr += colorize(yellow, fmt.Sprintf("  (simulated %gx)", s.Clock.Speed))
	}

	fmt.Println()
	fmt.Println(header("  CHIME STATUS"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 38)))
	fmt.Printf("  %-12s %s\n", colorize(dim, "Daemon:"), s.Name)
	fmt.Printf("  %-12s %s\n", colorize(dim, "State:"), stateStr)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Uptime:"), uptime)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Clock:"), clockStr)
	fmt.Printf("  %-12s %d\n", colorize(dim, "Events:"), s.EventCount)
	fmt.Printf("  %-12s %s\n", colorize(dim, "State DB:"), s.StateDB)
	if s.DemoEnabled {
		fmt.Printf("  %-12s %s\n", colorize(dim, "Mode:"), "demo")
	}
	if s.Disk != nil {
		fmt.Printf("  %-12s %s free of %s\n",
			colorize(dim, "Disk:"),
			formatBytes(s.Disk.AvailableBytes),
			formatBytes(s.Disk.TotalBytes),
		)
	}
	fmt.Printf("  %-12s %s\n", colorize(dim, "Host:"), baseURL)
	fmt.Println()

	return nil
}
