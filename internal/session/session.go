package session

import "time"

// Operating states reported over /api/status and the state event.
const (
	StateIdle        = "IDLE"
	StatePersonReady = "PERSON_READY"
	StateMeasured    = "MEASURED"
	StateSaving      = "SAVING"
)

// Prior is the most recent stored measurement for the current person,
// fetched from the remote API when the person scans in.
type Prior struct {
	BMI        float64   `json:"bmi"`
	Weight     float64   `json:"weight"`
	Height     float64   `json:"height"`
	Category   string    `json:"category"`
	MeasuredAt time.Time `json:"measured_at"`
}

// Snapshot is a point-in-time copy of the person session, served on
// /api/session and shown by bmictl.
type Snapshot struct {
	State          string     `json:"state"`
	SessionID      string     `json:"session_id,omitempty"`
	PersonID       string     `json:"person_id,omitempty"`
	PersonName     string     `json:"person_name,omitempty"`
	PersonPosition string     `json:"person_position,omitempty"`
	ScannedAt      *time.Time `json:"scanned_at,omitempty"`
	Weight         float64    `json:"weight"`
	Height         float64    `json:"height"`
	BMI            float64    `json:"bmi"`
	Category       string     `json:"category,omitempty"`
	BMIDelta       *float64   `json:"bmi_delta,omitempty"`
	Prior          *Prior     `json:"prior,omitempty"`
	Saving         bool       `json:"saving"`
}

// SavedRecord describes one measurement accepted by the remote API. The
// app layer appends it to the local journal.
type SavedRecord struct {
	SessionID     string
	PersonID      string
	PersonName    string
	Weight        float64
	Height        float64
	BMI           float64
	Category      string
	MeasurementID int64
	MeasuredAt    time.Time
	SavedAt       time.Time
}

// personSession is the single mutable aggregate of the correlator. All
// access goes through the correlator's mutex.
type personSession struct {
	sessionID      string
	personID       string
	personName     string
	personPosition string
	scannedAt      time.Time
	weight         float64
	height         float64
	bmi            float64
	category       string
	prior          *Prior
}

func (s *personSession) reset() {
	*s = personSession{}
}

// recompute refreshes BMI and category from the current weight/height.
func (s *personSession) recompute() {
	s.bmi = CalculateBMI(s.weight, s.height)
	s.category = CategoryFor(s.bmi)
}

// delta is the BMI change against the prior measurement, meaningful only
// once a current BMI exists.
func (s *personSession) delta() *float64 {
	if s.prior == nil || s.bmi <= 0 {
		return nil
	}
	d := s.bmi - s.prior.BMI
	return &d
}
