package faceid

import (
	"errors"
	"testing"
	"time"
)

const faceEventJSON = `{
	"ipAddress": "192.168.1.50",
	"dateTime": "2026-03-02T09:15:00+05:00",
	"eventType": "AccessControllerEvent",
	"AccessControllerEvent": {
		"deviceName": "Entrance-1",
		"majorEventType": 5,
		"subEventType": 75,
		"employeeNoString": "E1042",
		"name": "Aliyev Bekzod"
	}
}`

func TestDecodeFaceEvent(t *testing.T) {
	ev, err := Decode([]byte(faceEventJSON), "192.168.1.50:39813")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if ev.PersonID != "E1042" {
		t.Errorf("PersonID = %q, want E1042", ev.PersonID)
	}
	if ev.EmployeeNo != "E1042" {
		t.Errorf("EmployeeNo = %q, want E1042", ev.EmployeeNo)
	}
	if ev.Name != "Aliyev Bekzod" {
		t.Errorf("Name = %q", ev.Name)
	}
	if ev.DeviceID != "Entrance-1" {
		t.Errorf("DeviceID = %q", ev.DeviceID)
	}
	if ev.DeviceIP != "192.168.1.50" {
		t.Errorf("DeviceIP = %q", ev.DeviceIP)
	}

	want := time.Date(2026, 3, 2, 9, 15, 0, 0, time.FixedZone("", 5*3600))
	if !ev.ScanTime.Equal(want) {
		t.Errorf("ScanTime = %v, want %v", ev.ScanTime, want)
	}
}

func TestDecodeMultipartWrappedBody(t *testing.T) {
	body := "--boundary123\r\n" +
		"Content-Disposition: form-data; name=\"event_log\"\r\n\r\n" +
		`{"AccessControllerEvent":{"employeeNoString":"E1"}}` +
		"\r\n--boundary123--\r\n"

	ev, err := Decode([]byte(body), "10.1.2.3:55000")
	if err != nil {
		t.Fatalf("Decode multipart body: %v", err)
	}
	if ev.PersonID != "E1" {
		t.Errorf("PersonID = %q, want E1", ev.PersonID)
	}
	// No ipAddress in the payload: the caller's address fills in.
	if ev.DeviceIP != "10.1.2.3" {
		t.Errorf("DeviceIP = %q, want 10.1.2.3", ev.DeviceIP)
	}
}

func TestDecodeDefaultsScanTimeToReceipt(t *testing.T) {
	before := time.Now()
	ev, err := Decode([]byte(`{"AccessControllerEvent":{"employeeNoString":"E7"}}`), "")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.ScanTime.Before(before) || ev.ScanTime.After(time.Now()) {
		t.Errorf("ScanTime = %v, want receipt time", ev.ScanTime)
	}
}

func TestDecodeNotFaceEvent(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no access controller event", `{"eventType":"heartbeat","ipAddress":"1.2.3.4"}`},
		{"empty employee number", `{"AccessControllerEvent":{"deviceName":"D1","employeeNoString":""}}`},
		{"missing employee number", `{"AccessControllerEvent":{"doorNo":2}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.body), "")
			if !errors.Is(err, ErrNotFaceEvent) {
				t.Fatalf("err = %v, want ErrNotFaceEvent", err)
			}
		})
	}
}

func TestDecodeMalformedPayload(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"no braces", "just some text"},
		{"invalid json", `{"AccessControllerEvent": nope}`},
		{"reversed braces", "} {"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.body), "")
			if !errors.Is(err, ErrMalformedPayload) {
				t.Fatalf("err = %v, want ErrMalformedPayload", err)
			}
		})
	}
}

func TestDecodeIsCaseInsensitive(t *testing.T) {
	body := `{"accesscontrollerevent":{"EMPLOYEENOSTRING":"E9","NAME":"Test"}}`
	ev, err := Decode([]byte(body), "")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.PersonID != "E9" || ev.Name != "Test" {
		t.Errorf("got %+v", ev)
	}
}
