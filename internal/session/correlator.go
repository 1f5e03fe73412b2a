package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muhammadaliwebase/BMICalculator.New/internal/faceid"
	"github.com/muhammadaliwebase/BMICalculator.New/internal/telemetry"
	"github.com/muhammadaliwebase/BMICalculator.New/internal/wbapi"
)

// Save preconditions, reported to the API caller verbatim.
var (
	ErrNoPerson      = errors.New("no person scanned")
	ErrNoMeasurement = errors.New("no measurement taken")
	ErrSavePending   = errors.New("save already in progress")
)

// clearDelay is how long a saved result stays on screen before the
// session resets.
const clearDelay = 2 * time.Second

// API is the slice of the remote client the correlator needs. Failures
// degrade to missing data, never to a stuck session.
type API interface {
	GetPersonByID(ctx context.Context, id string) (*wbapi.Person, error)
	GetLatestMeasurement(ctx context.Context, personID string) (*wbapi.Measurement, error)
	Create(ctx context.Context, m wbapi.CreateMeasurement) (int64, error)
}

// Broadcaster fans session events out to live watchers. *ws.Hub
// satisfies it.
type Broadcaster interface {
	Broadcast(v any)
}

// Correlator merges scan events and scale measurements into the person
// session. All mutations are serialized behind one mutex; lookups and the
// save call run off-lock so neither the serial loop nor the callback
// listener ever waits on network I/O.
type Correlator struct {
	log      *zap.SugaredLogger
	api      API
	hub      Broadcaster
	deviceID string

	// OnSaved, if set, is invoked after each successful save, off-lock.
	OnSaved func(SavedRecord)
	// OnLookupMiss, if set, is invoked when a person or history lookup
	// fails or returns nothing.
	OnLookupMiss func()

	grace time.Duration
	now   func() time.Time

	mu     sync.Mutex
	cur    personSession
	epoch  uint64
	saving bool
}

// NewCorrelator wires a correlator to the remote API and event hub.
// deviceID is stamped on every saved measurement.
func NewCorrelator(log *zap.SugaredLogger, api API, hub Broadcaster, deviceID string) *Correlator {
	return &Correlator{
		log:      log,
		api:      api,
		hub:      hub,
		deviceID: deviceID,
		grace:    clearDelay,
		now:      time.Now,
	}
}

// OnScan installs the scanned person as the session's identity. The
// previous person, if any, is replaced: last scan wins. Person details and
// prior history are fetched asynchronously and applied only if no newer
// scan or clear has happened in the meantime.
func (c *Correlator) OnScan(ev faceid.ScanEvent) {
	c.mu.Lock()
	from := c.stateLocked()
	c.epoch++
	epoch := c.epoch

	c.cur.sessionID = uuid.NewString()
	c.cur.personID = ev.PersonID
	c.cur.personName = ev.Name
	c.cur.personPosition = ""
	c.cur.scannedAt = ev.ScanTime
	c.cur.prior = nil

	sessionID := c.cur.sessionID
	to := c.stateLocked()
	c.mu.Unlock()

	c.log.Infow("person scanned",
		"person", ev.PersonID, "name", ev.Name, "device", ev.DeviceID)

	c.hub.Broadcast(telemetry.Scan{
		Event:     telemetry.NewEvent(telemetry.EventScan),
		SessionID: sessionID,
		PersonID:  ev.PersonID,
		Name:      ev.Name,
		DeviceID:  ev.DeviceID,
		DeviceIP:  ev.DeviceIP,
	})
	c.transition(from, to)

	go c.lookup(epoch, sessionID, ev.PersonID)
}

// lookup resolves person details and prior history for the scan that
// started it. Results are discarded when the session has moved on.
func (c *Correlator) lookup(epoch uint64, sessionID, personID string) {
	ctx := context.Background()

	person, perr := c.api.GetPersonByID(ctx, personID)
	latest, lerr := c.api.GetLatestMeasurement(ctx, personID)
	if perr != nil {
		c.log.Warnw("person lookup failed", "person", personID, "error", perr)
	}
	if lerr != nil {
		c.log.Warnw("history lookup failed", "person", personID, "error", lerr)
	}
	if (person == nil || latest == nil) && c.OnLookupMiss != nil {
		c.OnLookupMiss()
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		c.log.Debugw("discarding stale lookup", "person", personID)
		return
	}
	var personEv *telemetry.Person
	if person != nil {
		c.cur.personName = person.FullName()
		c.cur.personPosition = person.Position
		personEv = &telemetry.Person{
			Event:     telemetry.NewEvent(telemetry.EventPerson),
			SessionID: sessionID,
			PersonID:  personID,
			Name:      c.cur.personName,
			Position:  c.cur.personPosition,
		}
	}
	if latest != nil {
		c.cur.prior = &Prior{
			BMI:        latest.BMI,
			Weight:     latest.Weight,
			Height:     latest.Height,
			Category:   latest.BMICategory,
			MeasuredAt: latest.MeasuredAt,
		}
	}
	c.mu.Unlock()

	if personEv != nil {
		c.hub.Broadcast(*personEv)
	}
}

// OnRealTime applies a live weight/height pair from the scale. Called from
// the serial loop for every real-time line.
func (c *Correlator) OnRealTime(weight, height float64) {
	c.mu.Lock()
	from := c.stateLocked()
	c.cur.weight = weight
	c.cur.height = height
	c.cur.recompute()
	bmi := c.cur.bmi
	to := c.stateLocked()
	c.mu.Unlock()

	c.hub.Broadcast(telemetry.Reading{
		Event:  telemetry.NewEvent(telemetry.EventReading),
		Weight: weight,
		Height: height,
		BMI:    bmi,
	})
	c.transition(from, to)
}

// OnMeasurement applies a completed averaged measurement.
func (c *Correlator) OnMeasurement(weight, height float64) {
	c.mu.Lock()
	from := c.stateLocked()
	c.cur.weight = weight
	c.cur.height = height
	c.cur.recompute()
	bmi, category := c.cur.bmi, c.cur.category
	to := c.stateLocked()
	c.mu.Unlock()

	c.log.Infow("measurement complete",
		"weight", weight, "height", height, "bmi", bmi, "category", category)

	c.hub.Broadcast(telemetry.Measurement{
		Event:    telemetry.NewEvent(telemetry.EventMeasurement),
		Weight:   weight,
		Height:   height,
		BMI:      bmi,
		Category: category,
	})
	c.transition(from, to)
}

// Save submits the current measurement to the remote API. It requires a
// scanned person, a nonzero BMI, and no save already in flight. On success
// the saved values become the new prior baseline and the session clears
// itself after a short display grace period. On failure the session is
// left untouched so the operator can retry.
func (c *Correlator) Save(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.cur.personID == "":
		c.mu.Unlock()
		return ErrNoPerson
	case c.cur.bmi <= 0:
		c.mu.Unlock()
		return ErrNoMeasurement
	case c.saving:
		c.mu.Unlock()
		return ErrSavePending
	}
	from := c.stateLocked()
	c.saving = true
	epoch := c.epoch
	snap := c.cur
	to := c.stateLocked()
	c.mu.Unlock()
	c.transition(from, to)

	measuredAt := c.now().UTC()
	id, err := c.api.Create(ctx, wbapi.CreateMeasurement{
		TurnstilePersonID: snap.personID,
		Weight:            snap.weight,
		Height:            snap.height,
		BMI:               snap.bmi,
		BMICategory:       snap.category,
		MeasuredAt:        measuredAt,
		DeviceID:          c.deviceID,
	})

	c.mu.Lock()
	c.saving = false
	if err != nil {
		from, to := StateSaving, c.stateLocked()
		c.mu.Unlock()
		c.transition(from, to)
		c.log.Errorw("save failed", "person", snap.personID, "error", err)
		return err
	}
	if c.epoch == epoch {
		c.cur.prior = &Prior{
			BMI:        snap.bmi,
			Weight:     snap.weight,
			Height:     snap.height,
			Category:   snap.category,
			MeasuredAt: measuredAt,
		}
	}
	after := c.stateLocked()
	c.mu.Unlock()

	c.log.Infow("measurement saved",
		"person", snap.personID, "id", id, "bmi", snap.bmi)

	c.hub.Broadcast(telemetry.Saved{
		Event:         telemetry.NewEvent(telemetry.EventSaved),
		SessionID:     snap.sessionID,
		PersonID:      snap.personID,
		MeasurementID: id,
		Weight:        snap.weight,
		Height:        snap.height,
		BMI:           snap.bmi,
		Category:      snap.category,
	})
	c.transition(StateSaving, after)

	if c.OnSaved != nil {
		c.OnSaved(SavedRecord{
			SessionID:     snap.sessionID,
			PersonID:      snap.personID,
			PersonName:    snap.personName,
			Weight:        snap.weight,
			Height:        snap.height,
			BMI:           snap.bmi,
			Category:      snap.category,
			MeasurementID: id,
			MeasuredAt:    measuredAt,
			SavedAt:       c.now().UTC(),
		})
	}

	time.AfterFunc(c.grace, func() { c.clearIfEpoch(epoch) })
	return nil
}

// Clear resets the session to empty immediately. Lookups still in flight
// for the old person will see the epoch change and discard their results.
func (c *Correlator) Clear() {
	c.mu.Lock()
	c.epoch++
	c.resetLocked()
}

// clearIfEpoch is the deferred post-save clear. A scan or explicit clear
// in the grace window bumps the epoch and turns this into a no-op.
func (c *Correlator) clearIfEpoch(epoch uint64) {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return
	}
	c.epoch++
	c.resetLocked()
}

// resetLocked empties the session and emits the cleared event. Called with
// c.mu held; releases it.
func (c *Correlator) resetLocked() {
	from := c.stateLocked()
	sessionID := c.cur.sessionID
	c.cur.reset()
	to := c.stateLocked()
	c.mu.Unlock()

	c.hub.Broadcast(telemetry.Cleared{
		Event:     telemetry.NewEvent(telemetry.EventCleared),
		SessionID: sessionID,
	})
	c.transition(from, to)
}

// Snapshot returns a copy of the current session for the status API.
func (c *Correlator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:          c.stateLocked(),
		SessionID:      c.cur.sessionID,
		PersonID:       c.cur.personID,
		PersonName:     c.cur.personName,
		PersonPosition: c.cur.personPosition,
		Weight:         c.cur.weight,
		Height:         c.cur.height,
		BMI:            c.cur.bmi,
		Category:       c.cur.category,
		BMIDelta:       c.cur.delta(),
		Saving:         c.saving,
	}
	if !c.cur.scannedAt.IsZero() {
		t := c.cur.scannedAt
		snap.ScannedAt = &t
	}
	if c.cur.prior != nil {
		p := *c.cur.prior
		snap.Prior = &p
	}
	return snap
}

// State returns the current operating state label.
func (c *Correlator) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Correlator) stateLocked() string {
	switch {
	case c.saving:
		return StateSaving
	case c.cur.personID == "":
		return StateIdle
	case c.cur.bmi > 0:
		return StateMeasured
	default:
		return StatePersonReady
	}
}

func (c *Correlator) transition(from, to string) {
	if from == to {
		return
	}
	c.hub.Broadcast(telemetry.StateTransition{
		Event: telemetry.NewEvent(telemetry.EventState),
		From:  from,
		To:    to,
	})
}
