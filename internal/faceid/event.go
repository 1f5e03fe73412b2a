// Package faceid ingests face-identification callbacks pushed over HTTP by
// a HikVision access controller. The listener owns the callback endpoint,
// the decoder turns raw bodies into ScanEvents.
package faceid

import "time"

// ScanEvent is a normalized face-identification scan. Immutable once
// constructed by the decoder.
type ScanEvent struct {
	PersonID   string
	EmployeeNo string
	Name       string
	ScanTime   time.Time
	DeviceID   string
	DeviceIP   string
}

// hikVisionEvent mirrors the vendor callback schema. Only the fields the
// station consumes are declared; the controller sends many more.
type hikVisionEvent struct {
	IPAddress             string                 `json:"ipAddress"`
	DateTime              string                 `json:"dateTime"`
	EventType             string                 `json:"eventType"`
	EventState            string                 `json:"eventState"`
	AccessControllerEvent *accessControllerEvent `json:"AccessControllerEvent"`
}

type accessControllerEvent struct {
	DeviceName        string `json:"deviceName"`
	MajorEventType    int    `json:"majorEventType"`
	SubEventType      int    `json:"subEventType"`
	EmployeeNoString  string `json:"employeeNoString"`
	Name              string `json:"name"`
	CardReaderNo      int    `json:"cardReaderNo"`
	DoorNo            int    `json:"doorNo"`
	CurrentVerifyMode string `json:"currentVerifyMode"`
}
