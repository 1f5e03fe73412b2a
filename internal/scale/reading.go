// Package scale ingests the weighing/height scale's serial telemetry: a
// line classifier for the device's three message kinds, the sampling state
// machine that averages measurement bursts, and the serial read loop that
// drives both.
package scale

// Kind identifies the telemetry message carried by one line.
type Kind int

const (
	// KindRealTime is a live weight/height pair, valid at any time and
	// never accumulated.
	KindRealTime Kind = iota + 1

	// KindTrigger is the scale's "button pressed" marker.
	KindTrigger

	// KindSample is a weight/height pair to accumulate while a sampling
	// session is active.
	KindSample
)

// String returns the metrics label for a kind.
func (k Kind) String() string {
	switch k {
	case KindRealTime:
		return "real_time"
	case KindTrigger:
		return "trigger"
	case KindSample:
		return "sample"
	default:
		return "unknown"
	}
}

// Reading is one classified telemetry line. Weight and Height are only
// meaningful for KindRealTime and KindSample.
type Reading struct {
	Kind   Kind
	Weight float64
	Height float64
}

// Measurement is the averaged result of a completed sampling session.
// Weight is rounded to one decimal (kg), Height to whole centimeters.
type Measurement struct {
	Weight float64
	Height float64
}
