package ctl

import (
	"fmt"
	"strings"
	"time"
)

// SessionResponse mirrors the JSON returned by GET /api/session.
type SessionResponse struct {
	State          string     `json:"state"`
	SessionID      string     `json:"session_id"`
	PersonID       string     `json:"person_id"`
	PersonName     string     `json:"person_name"`
	PersonPosition string     `json:"person_position"`
	ScannedAt      *time.Time `json:"scanned_at"`
	Weight         float64    `json:"weight"`
	Height         float64    `json:"height"`
	BMI            float64    `json:"bmi"`
	Category       string     `json:"category"`
	BMIDelta       *float64   `json:"bmi_delta"`
	Prior          *struct {
		BMI        float64   `json:"bmi"`
		Weight     float64   `json:"weight"`
		Height     float64   `json:"height"`
		Category   string    `json:"category"`
		MeasuredAt time.Time `json:"measured_at"`
	} `json:"prior"`
	Saving bool `json:"saving"`
}

// Session fetches and prints the current person session.
func Session(baseURL string, asJSON bool) error {
	var s SessionResponse
	if err := getJSON(baseURL, "/api/session", &s); err != nil {
		return err
	}
	if asJSON {
		return printJSON(s)
	}

	fmt.Println()
	fmt.Println(header("  CURRENT SESSION"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 44)))
	fmt.Printf("  %-12s %s\n", colorize(dim, "State:"), colorize(stateColor(s.State), s.State))

	if s.PersonID == "" {
		fmt.Printf("  %s\n", colorize(dim, "no person scanned"))
	} else {
		name := s.PersonName
		if name == "" {
			name = colorize(dim, "(resolving...)")
		}
		fmt.Printf("  %-12s %s\n", colorize(dim, "Person:"), name)
		fmt.Printf("  %-12s %s\n", colorize(dim, "ID:"), s.PersonID)
		if s.PersonPosition != "" {
			fmt.Printf("  %-12s %s\n", colorize(dim, "Position:"), s.PersonPosition)
		}
		if s.ScannedAt != nil {
			fmt.Printf("  %-12s %s\n", colorize(dim, "Scanned:"), s.ScannedAt.Local().Format("15:04:05"))
		}
	}

	if s.BMI > 0 {
		fmt.Printf("  %-12s %.1f kg\n", colorize(dim, "Weight:"), s.Weight)
		fmt.Printf("  %-12s %.0f cm\n", colorize(dim, "Height:"), s.Height)
		fmt.Printf("  %-12s %s %s\n", colorize(dim, "BMI:"),
			colorize(bold, fmt.Sprintf("%.2f", s.BMI)), categoryLabel(s.Category))
		if s.BMIDelta != nil {
			fmt.Printf("  %-12s %+.2f\n", colorize(dim, "Delta:"), *s.BMIDelta)
		}
	} else {
		fmt.Printf("  %s\n", colorize(dim, "no measurement yet"))
	}

	if s.Prior != nil {
		fmt.Printf("  %-12s %.2f %s %s\n", colorize(dim, "Prior:"),
			s.Prior.BMI, categoryLabel(s.Prior.Category),
			colorize(dim, s.Prior.MeasuredAt.Local().Format("2006-01-02")))
	}
	fmt.Println()

	return nil
}

// categoryLabel colors a BMI category for terminal display.
func categoryLabel(category string) string {
	switch category {
	case "Normal":
		return colorize(green, category)
	case "Underweight", "Overweight":
		return colorize(yellow, category)
	case "Obese":
		return colorize(red, category)
	default:
		return category
	}
}
