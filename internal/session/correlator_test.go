package session

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/muhammadaliwebase/BMICalculator.New/internal/faceid"
	"github.com/muhammadaliwebase/BMICalculator.New/internal/telemetry"
	"github.com/muhammadaliwebase/BMICalculator.New/internal/wbapi"
)

// fakeAPI serves canned lookups. gate, when set, blocks lookups until it
// is closed; resolved receives a token after each history lookup returns.
type fakeAPI struct {
	mu        sync.Mutex
	latest    *wbapi.Measurement
	personErr error
	createErr error
	created   []wbapi.CreateMeasurement

	gate          chan struct{}
	resolved      chan struct{}
	createGate    chan struct{}
	createStarted chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{resolved: make(chan struct{}, 8)}
}

func (f *fakeAPI) GetPersonByID(_ context.Context, id string) (*wbapi.Person, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.personErr != nil {
		return nil, f.personErr
	}
	return &wbapi.Person{ID: id, Name: "Person " + id, Position: "Operator"}, nil
}

func (f *fakeAPI) GetLatestMeasurement(_ context.Context, _ string) (*wbapi.Measurement, error) {
	defer func() {
		select {
		case f.resolved <- struct{}{}:
		default:
		}
	}()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, nil
}

func (f *fakeAPI) Create(_ context.Context, m wbapi.CreateMeasurement) (int64, error) {
	if f.createGate != nil {
		f.createStarted <- struct{}{}
		<-f.createGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.created = append(f.created, m)
	return 99, nil
}

func (f *fakeAPI) setCreateErr(err error) {
	f.mu.Lock()
	f.createErr = err
	f.mu.Unlock()
}

type sink struct {
	mu     sync.Mutex
	events []any
}

func (s *sink) Broadcast(v any) {
	s.mu.Lock()
	s.events = append(s.events, v)
	s.mu.Unlock()
}

func (s *sink) savedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if _, ok := e.(telemetry.Saved); ok {
			n++
		}
	}
	return n
}

func newTestCorrelator(api API) (*Correlator, *sink) {
	s := &sink{}
	c := NewCorrelator(zap.NewNop().Sugar(), api, s, "BMICalculator")
	c.grace = 50 * time.Millisecond
	return c, s
}

func scan(id string) faceid.ScanEvent {
	return faceid.ScanEvent{PersonID: id, Name: "provisional", ScanTime: time.Now()}
}

func waitFor(t *testing.T, msg string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestScanResolvesPersonAndHistory(t *testing.T) {
	api := newFakeAPI()
	api.latest = &wbapi.Measurement{BMI: 23.5, Weight: 68, Height: 170, BMICategory: CategoryNormal}
	c, _ := newTestCorrelator(api)

	c.OnScan(scan("E1"))

	snap := c.Snapshot()
	if snap.PersonID != "E1" || snap.State != StatePersonReady {
		t.Fatalf("after scan: %+v", snap)
	}
	if snap.PersonName != "provisional" {
		t.Errorf("provisional name = %q", snap.PersonName)
	}

	waitFor(t, "lookup never applied", func() bool {
		return c.Snapshot().PersonName == "Person E1"
	})
	snap = c.Snapshot()
	if snap.PersonPosition != "Operator" {
		t.Errorf("position = %q", snap.PersonPosition)
	}
	if snap.Prior == nil || snap.Prior.BMI != 23.5 {
		t.Errorf("prior = %+v", snap.Prior)
	}
}

func TestLastScanWins(t *testing.T) {
	api := newFakeAPI()
	api.gate = make(chan struct{})
	c, _ := newTestCorrelator(api)

	c.OnScan(scan("E1"))
	c.OnScan(scan("E2"))
	close(api.gate)

	waitFor(t, "second lookup never applied", func() bool {
		return c.Snapshot().PersonName == "Person E2"
	})

	// The first lookup resolves against a superseded session and must not
	// flip the name back.
	<-api.resolved
	<-api.resolved
	time.Sleep(20 * time.Millisecond)
	if got := c.Snapshot().PersonName; got != "Person E2" {
		t.Fatalf("name = %q, want %q", got, "Person E2")
	}
}

func TestClearDiscardsInflightLookup(t *testing.T) {
	api := newFakeAPI()
	api.gate = make(chan struct{})
	api.latest = &wbapi.Measurement{BMI: 23.5}
	c, _ := newTestCorrelator(api)

	c.OnScan(scan("E1"))
	c.Clear()
	close(api.gate)

	<-api.resolved
	time.Sleep(20 * time.Millisecond)

	snap := c.Snapshot()
	if snap.PersonID != "" || snap.PersonName != "" || snap.Prior != nil {
		t.Fatalf("cleared session repopulated: %+v", snap)
	}
	if snap.State != StateIdle {
		t.Errorf("state = %q, want %q", snap.State, StateIdle)
	}
}

func TestMeasurementComputesBMI(t *testing.T) {
	c, _ := newTestCorrelator(newFakeAPI())

	c.OnMeasurement(70, 175)
	snap := c.Snapshot()
	if math.Abs(snap.BMI-22.86) > 0.01 {
		t.Errorf("bmi = %v, want 22.86", snap.BMI)
	}
	if snap.Category != CategoryNormal {
		t.Errorf("category = %q", snap.Category)
	}

	c.OnRealTime(70, 0)
	snap = c.Snapshot()
	if snap.BMI != 0 || snap.Category != "" {
		t.Errorf("zero height should zero bmi: %+v", snap)
	}
}

func TestDeltaAgainstPrior(t *testing.T) {
	api := newFakeAPI()
	api.latest = &wbapi.Measurement{BMI: 20.0, Weight: 61, Height: 175}
	c, _ := newTestCorrelator(api)

	c.OnScan(scan("E1"))
	waitFor(t, "prior never applied", func() bool { return c.Snapshot().Prior != nil })

	c.OnMeasurement(70, 175)
	snap := c.Snapshot()
	if snap.BMIDelta == nil {
		t.Fatal("delta not computed")
	}
	if math.Abs(*snap.BMIDelta-2.86) > 0.01 {
		t.Errorf("delta = %v, want 2.86", *snap.BMIDelta)
	}
}

func TestSavePreconditions(t *testing.T) {
	api := newFakeAPI()
	c, _ := newTestCorrelator(api)
	ctx := context.Background()

	if err := c.Save(ctx); !errors.Is(err, ErrNoPerson) {
		t.Errorf("empty session: err = %v, want ErrNoPerson", err)
	}

	c.OnScan(scan("E1"))
	if err := c.Save(ctx); !errors.Is(err, ErrNoMeasurement) {
		t.Errorf("no measurement: err = %v, want ErrNoMeasurement", err)
	}
}

func TestSaveSingleFlight(t *testing.T) {
	api := newFakeAPI()
	api.createGate = make(chan struct{})
	api.createStarted = make(chan struct{})
	c, _ := newTestCorrelator(api)
	ctx := context.Background()

	c.OnScan(scan("E1"))
	c.OnMeasurement(70, 170)

	done := make(chan error, 1)
	go func() { done <- c.Save(ctx) }()
	<-api.createStarted

	if err := c.Save(ctx); !errors.Is(err, ErrSavePending) {
		t.Fatalf("concurrent save: err = %v, want ErrSavePending", err)
	}

	close(api.createGate)
	if err := <-done; err != nil {
		t.Fatalf("first save failed: %v", err)
	}
}

func TestSaveSuccess(t *testing.T) {
	api := newFakeAPI()
	c, s := newTestCorrelator(api)
	c.grace = 100 * time.Millisecond

	var rec SavedRecord
	recCh := make(chan struct{})
	c.OnSaved = func(r SavedRecord) { rec = r; close(recCh) }

	c.OnScan(scan("E1"))
	waitFor(t, "lookup never applied", func() bool {
		return c.Snapshot().PersonName == "Person E1"
	})
	c.OnMeasurement(70, 170)

	if err := c.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	api.mu.Lock()
	created := append([]wbapi.CreateMeasurement(nil), api.created...)
	api.mu.Unlock()
	if len(created) != 1 {
		t.Fatalf("created = %+v", created)
	}
	if created[0].TurnstilePersonID != "E1" || created[0].DeviceID != "BMICalculator" {
		t.Errorf("create payload = %+v", created[0])
	}
	if created[0].BMICategory != CategoryNormal {
		t.Errorf("category = %q", created[0].BMICategory)
	}

	<-recCh
	if rec.MeasurementID != 99 || rec.PersonID != "E1" {
		t.Errorf("saved record = %+v", rec)
	}

	// The just-saved values are the new baseline: delta against self is 0.
	snap := c.Snapshot()
	if snap.Prior == nil || snap.BMIDelta == nil || *snap.BMIDelta != 0 {
		t.Errorf("post-save snapshot = %+v", snap)
	}
	if s.savedCount() != 1 {
		t.Errorf("saved events = %d, want 1", s.savedCount())
	}

	// After the grace period the session resets on its own.
	waitFor(t, "session never cleared", func() bool {
		return c.Snapshot().State == StateIdle
	})
	if snap := c.Snapshot(); snap.PersonID != "" || snap.BMI != 0 {
		t.Errorf("post-clear snapshot = %+v", snap)
	}
}

func TestSaveFailureKeepsSession(t *testing.T) {
	api := newFakeAPI()
	api.setCreateErr(errors.New("api down"))
	c, _ := newTestCorrelator(api)

	c.OnScan(scan("E1"))
	c.OnMeasurement(70, 170)

	if err := c.Save(context.Background()); err == nil {
		t.Fatal("Save succeeded against failing API")
	}

	snap := c.Snapshot()
	if snap.PersonID != "E1" || snap.BMI <= 0 {
		t.Fatalf("session lost after failed save: %+v", snap)
	}

	api.setCreateErr(nil)
	if err := c.Save(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
}

func TestScanDuringGraceCancelsClear(t *testing.T) {
	api := newFakeAPI()
	c, _ := newTestCorrelator(api)
	c.grace = 20 * time.Millisecond

	c.OnScan(scan("E1"))
	c.OnMeasurement(70, 170)
	if err := c.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	c.OnScan(scan("E2"))
	time.Sleep(60 * time.Millisecond)

	if got := c.Snapshot().PersonID; got != "E2" {
		t.Fatalf("person = %q, want E2 to survive the grace window", got)
	}
}
