package ctl

import "fmt"

// Save asks the daemon to store the current session's measurement.
func Save(baseURL string, jsonOutput bool) error {
	var resp map[string]any
	if err := postJSON(baseURL, "/api/session/save", nil, &resp); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(resp)
	}
	fmt.Printf("  %s measurement saved\n", colorize(green, "OK"))
	return nil
}
