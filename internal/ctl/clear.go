package ctl

import "fmt"

// Clear resets the daemon's person session to empty.
func Clear(baseURL string, jsonOutput bool) error {
	var resp map[string]any
	if err := postJSON(baseURL, "/api/session/clear", nil, &resp); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(resp)
	}
	fmt.Printf("  %s session cleared\n", colorize(green, "OK"))
	return nil
}
