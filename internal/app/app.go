// Package app wires the callback listener, the scale reader, the session
// correlator, and the daemon's own HTTP/WebSocket surface together. It owns
// the process lifecycle.
package app

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/muhammadaliwebase/BMICalculator.New/internal/config"
	"github.com/muhammadaliwebase/BMICalculator.New/internal/faceid"
	"github.com/muhammadaliwebase/BMICalculator.New/internal/journal"
	"github.com/muhammadaliwebase/BMICalculator.New/internal/metrics"
	"github.com/muhammadaliwebase/BMICalculator.New/internal/scale"
	"github.com/muhammadaliwebase/BMICalculator.New/internal/session"
	"github.com/muhammadaliwebase/BMICalculator.New/internal/telemetry"
	"github.com/muhammadaliwebase/BMICalculator.New/internal/wbapi"
	"github.com/muhammadaliwebase/BMICalculator.New/internal/ws"
)

// Options holds everything the App needs from the caller.
type Options struct {
	Logger *zap.SugaredLogger
	Cfg    config.Config
	Bind   string
}

// App is the top-level daemon process.
type App struct {
	log  *zap.SugaredLogger
	cfg  config.Config
	bind string

	startedAt time.Time

	hub        *ws.Hub
	metrics    *metrics.Metrics
	api        *wbapi.Client
	correlator *session.Correlator
	listener   *faceid.Listener
	reader     *scale.Reader
	sampler    *scale.Sampler
	journal    *journal.Store

	scaleOK      atomic.Bool
	listenerAddr atomic.Value // string
}

// New builds and wires the daemon. Call Run to start it.
func New(opts Options) *App {
	cfg := opts.Cfg
	log := opts.Logger

	a := &App{
		log:       log,
		cfg:       cfg,
		bind:      opts.Bind,
		startedAt: time.Now(),
		hub:       ws.NewHub(log),
		metrics:   metrics.New(),
	}
	a.listenerAddr.Store("")

	a.api = wbapi.NewClient(log, cfg.API.BaseURL, cfg.API.Username, cfg.API.Password,
		time.Duration(cfg.API.TimeoutSeconds)*time.Second)

	a.correlator = session.NewCorrelator(log, a.api, a.hub, cfg.API.DeviceID)
	a.correlator.OnLookupMiss = a.metrics.LookupFailures.Inc
	a.correlator.OnSaved = a.recordSave

	a.listener = faceid.NewListener(log, cfg.Listener.Port, cfg.Listener.Path)
	a.listener.OnReject = func(string) { a.metrics.CallbacksRejected.Inc() }
	a.listener.OnScan(func(ev faceid.ScanEvent) {
		a.metrics.ScansTotal.Inc()
		a.correlator.OnScan(ev)
	})

	a.sampler = scale.NewSampler()
	a.sampler.OnStarted = func() {
		a.hub.Broadcast(telemetry.Progress{
			Event:  telemetry.NewEvent(telemetry.EventProgress),
			Count:  0,
			Target: scale.SampleTarget,
		})
	}
	a.sampler.OnProgress = func(count, target int) {
		a.metrics.SamplesCollected.Inc()
		a.hub.Broadcast(telemetry.Progress{
			Event:  telemetry.NewEvent(telemetry.EventProgress),
			Count:  count,
			Target: target,
		})
	}
	a.sampler.OnComplete = func(m scale.Measurement) {
		a.metrics.Measurements.Inc()
		a.correlator.OnMeasurement(m.Weight, m.Height)
	}
	a.sampler.OnRealTime = a.correlator.OnRealTime

	a.reader = scale.NewReader(log, cfg.Scale.Device, cfg.Scale.BaudRate,
		time.Duration(cfg.Scale.ReadTimeoutMS)*time.Millisecond)
	a.reader.Handle = a.sampler.Apply
	a.reader.OnLine = func(kind string) {
		a.metrics.LinesClassified.WithLabelValues(kind).Inc()
	}

	return a
}

// recordSave is the correlator's post-save hook: counts the save and
// appends it to the local journal when one is open.
func (a *App) recordSave(rec session.SavedRecord) {
	a.metrics.SavesTotal.Inc()
	if a.journal == nil {
		return
	}
	err := a.journal.Append(journal.Entry{
		SessionID:  rec.SessionID,
		PersonID:   rec.PersonID,
		PersonName: rec.PersonName,
		Weight:     rec.Weight,
		Height:     rec.Height,
		BMI:        rec.BMI,
		Category:   rec.Category,
		RemoteID:   rec.MeasurementID,
		MeasuredAt: rec.MeasuredAt,
		SavedAt:    rec.SavedAt,
	})
	if err != nil {
		a.log.Warnw("journal append failed", "error", err)
	}
}

// Run starts every component and blocks until ctx is cancelled or the HTTP
// server fails. Shutdown order: callback listener first (no scan events
// after), then the serial reader via ctx, then the HTTP server.
func (a *App) Run(ctx context.Context) error {
	bind := a.bind
	if bind == "" {
		bind = a.cfg.Server.Bind
	}
	if bind == "" {
		bind = "0.0.0.0:9090"
	}

	if a.cfg.Journal.Enabled {
		store, err := journal.Open(a.cfg.Journal.Path)
		if err != nil {
			return err
		}
		a.journal = store
		defer store.Close()
	}

	// A failed login is not fatal; the client re-authenticates lazily and
	// the station keeps measuring without a save path.
	if !a.api.Authenticate(ctx) {
		a.log.Warnw("api authentication failed, continuing without token",
			"base_url", a.cfg.API.BaseURL)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", a.handleHealthz)
	mux.HandleFunc("/api/status", a.handleStatus)
	mux.HandleFunc("/api/version", a.handleVersion)
	mux.HandleFunc("/api/session", a.handleSession)
	mux.HandleFunc("/api/session/save", a.handleSave)
	mux.HandleFunc("/api/session/clear", a.handleClear)
	mux.HandleFunc("/api/history", a.handleHistory)
	mux.Handle("/metrics", a.metrics.Handler())
	mux.Handle("/ws", a.hub.Handler())

	server := &http.Server{
		Addr:              bind,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}

	a.log.Infow("api server listening", "addr", bind)

	go a.hub.Run(ctx)
	go a.heartbeatLoop(ctx)

	addr, err := a.listener.Start()
	if err != nil {
		_ = ln.Close()
		return err
	}
	a.listenerAddr.Store(addr)

	a.scaleOK.Store(true)
	go func() {
		if err := a.reader.Run(ctx); err != nil {
			a.scaleOK.Store(false)
			a.log.Errorw("scale reader exited", "error", err)
			a.emitLog("error", "scale", "serial reader exited: "+err.Error())
		}
	}()

	go func() {
		<-ctx.Done()
		a.log.Infow("shutdown requested")
		a.listener.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// heartbeatLoop broadcasts a periodic heartbeat so clients can detect
// connectivity and track uptime without polling.
func (a *App) heartbeatLoop(ctx context.Context) {
	t := time.NewTicker(10 * time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.hub.Broadcast(telemetry.Heartbeat{
				Event:         telemetry.NewEvent(telemetry.EventHeartbeat),
				State:         a.correlator.State(),
				UptimeSeconds: int64(time.Since(a.startedAt).Seconds()),
			})
		}
	}
}

func (a *App) emitLog(level, component, message string) {
	a.hub.Broadcast(telemetry.LogLine{
		Event:     telemetry.NewEvent(telemetry.EventLog),
		Level:     level,
		Component: component,
		Message:   message,
	})
}
