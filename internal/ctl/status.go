package ctl

import (
	"fmt"
	"strings"
	"time"
)

// StatusResponse mirrors the JSON returned by GET /api/status.
type StatusResponse struct {
	Name           string `json:"name"`
	State          string `json:"state"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	CallbackAddr   string `json:"callback_addr"`
	CallbackPath   string `json:"callback_path"`
	ScaleDevice    string `json:"scale_device"`
	ScaleOK        bool   `json:"scale_ok"`
	APIBaseURL     string `json:"api_base_url"`
	JournalEnabled bool   `json:"journal_enabled"`
}

// Status fetches the daemon status and prints a formatted summary.
func Status(baseURL string, asJSON bool) error {
	var s StatusResponse
	if err := getJSON(baseURL, "/api/status", &s); err != nil {
		return err
	}
	if asJSON {
		return printJSON(s)
	}

	uptime := formatDuration(time.Duration(s.UptimeSeconds) * time.Second)
	stateStr := colorize(stateColor(s.State), s.State)
	scaleStr := colorize(green, "ok")
	if !s.ScaleOK {
		scaleStr = colorize(red, "down")
	}

	fmt.Println()
	fmt.Println(header("  BMI STATION STATUS"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 44)))
	fmt.Printf("  %-12s %s\n", colorize(dim, "Daemon:"), s.Name)
	fmt.Printf("  %-12s %s\n", colorize(dim, "State:"), stateStr)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Uptime:"), uptime)
	fmt.Printf("  %-12s %s%s\n", colorize(dim, "Callback:"), s.CallbackAddr, s.CallbackPath)
	fmt.Printf("  %-12s %s (%s)\n", colorize(dim, "Scale:"), s.ScaleDevice, scaleStr)
	fmt.Printf("  %-12s %s\n", colorize(dim, "API:"), s.APIBaseURL)
	fmt.Printf("  %-12s %v\n", colorize(dim, "Journal:"), s.JournalEnabled)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Host:"), strings.TrimRight(baseURL, "/"))
	fmt.Println()

	return nil
}
