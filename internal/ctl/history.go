package ctl

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HistoryEntry is one stored measurement as the daemon returns it. The
// remote API and the local journal use the same field names.
type HistoryEntry struct {
	BMI        float64    `json:"bmi"`
	Weight     float64    `json:"weight"`
	Height     float64    `json:"height"`
	Category   string     `json:"bmiCategory"`
	MeasuredAt *time.Time `json:"measuredAt"`
	PersonName string     `json:"personName"`
}

// History lists stored measurements, for one person or (journal only)
// station-wide.
func History(baseURL, personID string, limit int, jsonOutput bool) error {
	path := "/api/history"
	q := url.Values{}
	if personID != "" {
		q.Set("person", personID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp struct {
		Source       string         `json:"source"`
		Person       string         `json:"person"`
		Measurements []HistoryEntry `json:"measurements"`
	}
	if err := getJSON(baseURL, path, &resp); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(resp)
	}

	fmt.Println()
	title := "  MEASUREMENT HISTORY"
	if resp.Person != "" {
		title += " - " + resp.Person
	}
	fmt.Println(header(title))
	fmt.Printf("  %s\n", colorize(dim, "source: "+resp.Source))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 52)))

	if len(resp.Measurements) == 0 {
		fmt.Printf("  %s\n", colorize(dim, "no measurements"))
		fmt.Println()
		return nil
	}

	fmt.Printf("  %s %s %s %s %s\n",
		colorize(dim, padRight("WHEN", 18)),
		colorize(dim, padRight("WEIGHT", 9)),
		colorize(dim, padRight("HEIGHT", 8)),
		colorize(dim, padRight("BMI", 7)),
		colorize(dim, "CATEGORY"))
	for _, m := range resp.Measurements {
		when := "-"
		if m.MeasuredAt != nil {
			when = m.MeasuredAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Printf("  %s %s %s %s %s\n",
			padRight(when, 18),
			padRight(fmt.Sprintf("%.1f kg", m.Weight), 9),
			padRight(fmt.Sprintf("%.0f cm", m.Height), 8),
			padRight(fmt.Sprintf("%.2f", m.BMI), 7),
			categoryLabel(m.Category))
	}
	fmt.Println()

	return nil
}
