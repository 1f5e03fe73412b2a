// Package wbapi is the HTTP client for the WbAccessControl API: token
// authentication, person lookup, and BMI measurement storage/history.
package wbapi

import (
	"strings"
	"time"
)

// Person is a turnstile person record as returned by the API.
type Person struct {
	ID          string `json:"id"`
	EmployeeNo  string `json:"employeeNo"`
	Name        string `json:"name"`
	LastName    string `json:"lastName"`
	MidName     string `json:"midName"`
	Position    string `json:"position"`
	Department  string `json:"department"`
	PhotoBase64 string `json:"photoBase64,omitempty"`
}

// FullName assembles the display name the way the access-control system
// renders it: last name first.
func (p Person) FullName() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.LastName, p.Name, p.MidName} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Measurement is a stored BMI measurement.
type Measurement struct {
	ID                int64     `json:"id"`
	TurnstilePersonID string    `json:"turnstilePersonId"`
	Weight            float64   `json:"weight"`
	Height            float64   `json:"height"`
	BMI               float64   `json:"bmi"`
	BMICategory       string    `json:"bmiCategory"`
	MeasuredAt        time.Time `json:"measuredAt"`
	DeviceID          string    `json:"deviceId,omitempty"`
	Notes             string    `json:"notes,omitempty"`
}

// CreateMeasurement is the payload for storing a new measurement.
type CreateMeasurement struct {
	TurnstilePersonID string    `json:"turnstilePersonId"`
	Weight            float64   `json:"weight"`
	Height            float64   `json:"height"`
	BMI               float64   `json:"bmi"`
	BMICategory       string    `json:"bmiCategory"`
	MeasuredAt        time.Time `json:"measuredAt"`
	DeviceID          string    `json:"deviceId,omitempty"`
	Notes             string    `json:"notes,omitempty"`
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type createResponse struct {
	ID int64 `json:"id"`
}
