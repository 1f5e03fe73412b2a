package faceid

import (
	"bytes"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"
)

var (
	// ErrMalformedPayload marks a callback body with no recoverable JSON
	// object. The listener still acknowledges the request; the device does
	// not understand error responses.
	ErrMalformedPayload = errors.New("faceid: malformed callback payload")

	// ErrNotFaceEvent marks a syntactically valid callback that is not a
	// successful face match (door events, heartbeats, empty employee
	// numbers). Expected traffic, dropped silently.
	ErrNotFaceEvent = errors.New("faceid: not a face event")
)

// Decode turns a raw callback body into a ScanEvent. remoteAddr is the
// caller's network address, used when the payload omits its own ipAddress.
//
// The controller wraps its JSON in multipart/form-data on some firmware
// revisions, so the body is first reduced to the outermost JSON object
// before unmarshalling.
func Decode(raw []byte, remoteAddr string) (ScanEvent, error) {
	jsonBody, ok := extractJSON(raw)
	if !ok {
		return ScanEvent{}, ErrMalformedPayload
	}

	var ev hikVisionEvent
	if err := json.Unmarshal(jsonBody, &ev); err != nil {
		return ScanEvent{}, ErrMalformedPayload
	}

	if ev.AccessControllerEvent == nil {
		return ScanEvent{}, ErrNotFaceEvent
	}

	ace := ev.AccessControllerEvent
	// Only events carrying an employee number are successful face matches.
	if ace.EmployeeNoString == "" {
		return ScanEvent{}, ErrNotFaceEvent
	}

	scanTime := parseEventTime(ev.DateTime)

	deviceIP := ev.IPAddress
	if deviceIP == "" {
		deviceIP = hostOnly(remoteAddr)
	}

	return ScanEvent{
		PersonID:   ace.EmployeeNoString,
		EmployeeNo: ace.EmployeeNoString,
		Name:       ace.Name,
		ScanTime:   scanTime,
		DeviceID:   ace.DeviceName,
		DeviceIP:   deviceIP,
	}, nil
}

// extractJSON reduces a callback body to its outermost JSON object. A body
// that already starts with '{' is used verbatim; otherwise the substring
// between the first '{' and the last '}' is taken, which strips the
// multipart boundaries some firmware adds.
func extractJSON(raw []byte) ([]byte, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return trimmed, true
	}

	start := bytes.IndexByte(raw, '{')
	end := bytes.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return nil, false
	}
	return raw[start : end+1], true
}

// parseEventTime parses the controller's dateTime field, falling back to
// the receipt time when it is missing or unparseable.
func parseEventTime(s string) time.Time {
	if s == "" {
		return time.Now()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now()
}

// hostOnly strips the port from a "host:port" remote address.
func hostOnly(addr string) string {
	if addr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.TrimSpace(addr)
}
