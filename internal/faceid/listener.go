package faceid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handler receives validated scan events. Handlers run on the request
// goroutine and should hand off long work instead of blocking.
type Handler func(ScanEvent)

// Listener owns the HTTP callback endpoint the access controller pushes
// scan events to. It is restartable: Start after Stop binds a fresh socket.
type Listener struct {
	log  *zap.SugaredLogger
	port int
	path string

	// OnReject, when set, is invoked for every dropped callback body
	// (malformed payloads and non-face events alike).
	OnReject func(reason string)

	mu       sync.Mutex
	handlers []Handler
	server   *http.Server
	done     chan struct{}
	addr     string
}

// NewListener creates a stopped listener for the given port and path.
func NewListener(log *zap.SugaredLogger, port int, path string) *Listener {
	return &Listener{
		log:  log,
		port: port,
		path: path,
	}
}

// OnScan registers a handler for validated scan events. Must be called
// before Start.
func (l *Listener) OnScan(h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, h)
}

// Addr returns the bound listen address, or "" when stopped.
func (l *Listener) Addr() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addr
}

// Start binds the callback socket and begins serving. The controller may
// sit on a different interface, so all interfaces are tried first; if that
// bind fails (port in use by another prefix owner, or insufficient
// privilege) the loopback interface on the same port is tried before
// giving up.
func (l *Listener) Start() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.server != nil {
		return l.addr, nil
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", l.port))
	if err != nil {
		var fallbackErr error
		ln, fallbackErr = net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", l.port))
		if fallbackErr != nil {
			return "", fmt.Errorf("faceid: bind port %d: %w", l.port, errors.Join(err, fallbackErr))
		}
		l.log.Warnw("callback listener fell back to loopback", "port", l.port, "error", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(l.path, l.handleCallback)

	l.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	l.done = make(chan struct{})
	l.addr = ln.Addr().String()

	done := l.done
	srv := l.server
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.log.Errorw("callback listener exited", "error", err)
		}
	}()

	l.log.Infow("callback listener started", "addr", l.addr, "path", l.path)
	return l.addr, nil
}

// Stop shuts the listener down and blocks until the serve loop has fully
// exited. No OnScan handler fires after Stop returns. Safe to call when
// already stopped.
func (l *Listener) Stop() {
	l.mu.Lock()
	srv := l.server
	done := l.done
	l.server = nil
	l.done = nil
	l.addr = ""
	l.mu.Unlock()

	if srv == nil {
		return
	}

	// Shutdown closes the listening socket and waits for in-flight
	// requests, which is exactly the no-callbacks-after-return guarantee.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		_ = srv.Close()
	}
	<-done
	l.log.Infow("callback listener stopped")
}

// handleCallback processes one controller callback. Parse failures are
// acknowledged with 200 anyway: the device has no useful retry behavior
// and many callback types are expected non-face traffic.
func (l *Listener) handleCallback(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			l.log.Errorw("callback handler panic", "panic", rec)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}()

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := readBody(r)
	if err != nil {
		l.log.Warnw("callback body read failed", "remote", r.RemoteAddr, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	ev, err := Decode(body, r.RemoteAddr)
	switch {
	case err == nil:
		l.log.Infow("face scan received",
			"person_id", ev.PersonID, "device", ev.DeviceID, "device_ip", ev.DeviceIP)
		l.notify(ev)
	case errors.Is(err, ErrNotFaceEvent):
		// Door events, heartbeats and the like. Expected, not logged at
		// anything above debug.
		l.log.Debugw("ignorable callback", "remote", r.RemoteAddr)
		l.reject("not_face_event")
	default:
		l.log.Warnw("malformed callback payload", "remote", r.RemoteAddr, "bytes", len(body))
		l.reject("malformed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (l *Listener) notify(ev ScanEvent) {
	l.mu.Lock()
	handlers := l.handlers
	l.mu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
}

func (l *Listener) reject(reason string) {
	if l.OnReject != nil {
		l.OnReject(reason)
	}
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	// Controllers attach snapshots on some events; cap the body well above
	// any sane metadata payload.
	const maxBody = 4 << 20
	return io.ReadAll(io.LimitReader(r.Body, maxBody))
}
