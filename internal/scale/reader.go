package scale

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// maxConsecutiveReadErrors is how many back-to-back transport errors the
// read loop tolerates before treating the port as gone.
const maxConsecutiveReadErrors = 5

// Reader owns the serial line to the scale. It reads telemetry line by
// line, classifies each one, and hands readings to Handle on its own
// goroutine — strictly sequential, which is what keeps the Sampler free of
// locks.
type Reader struct {
	log         *zap.SugaredLogger
	device      string
	baud        int
	readTimeout time.Duration

	// Handle receives every classified reading. Required before Run.
	Handle func(Reading)
	// OnLine, when set, observes every non-empty line's classification
	// result ("real_time", "trigger", "sample", "unmatched").
	OnLine func(kind string)

	// open is swapped by tests to avoid real hardware.
	open func() (io.ReadCloser, error)
}

// NewReader creates a reader for the given serial device.
func NewReader(log *zap.SugaredLogger, device string, baud int, readTimeout time.Duration) *Reader {
	r := &Reader{
		log:         log,
		device:      device,
		baud:        baud,
		readTimeout: readTimeout,
	}
	r.open = r.openSerial
	return r
}

func (r *Reader) openSerial() (io.ReadCloser, error) {
	port, err := serial.Open(r.device, &serial.Mode{BaudRate: r.baud})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", r.device, err)
	}
	// The timeout doubles as the loop's cancellation poll interval: every
	// expiry returns a zero-byte read and control comes back here.
	if err := port.SetReadTimeout(r.readTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", r.device, err)
	}
	return port, nil
}

// Run opens the port and reads until ctx is cancelled or the port is
// confirmed closed. Read timeouts are not errors; other transport errors
// are logged and tolerated until maxConsecutiveReadErrors in a row.
func (r *Reader) Run(ctx context.Context) error {
	port, err := r.open()
	if err != nil {
		return err
	}
	defer port.Close()

	r.log.Infow("scale reader started", "device", r.device, "baud", r.baud)

	var (
		pending  bytes.Buffer
		buf      = make([]byte, 256)
		errCount int
	)

	for {
		if ctx.Err() != nil {
			r.log.Infow("scale reader stopped")
			return nil
		}

		n, err := port.Read(buf)
		if n > 0 {
			errCount = 0
			pending.Write(buf[:n])
			r.drainLines(&pending)
		}
		if err != nil {
			if err == io.EOF {
				// Timeout expiry on some platforms; treat like a zero read.
				continue
			}
			errCount++
			r.log.Warnw("scale read error", "device", r.device, "error", err, "consecutive", errCount)
			if errCount >= maxConsecutiveReadErrors {
				return fmt.Errorf("scale port %s unusable: %w", r.device, err)
			}
			time.Sleep(100 * time.Millisecond)
		}
	}
}

// drainLines splits accumulated bytes on newlines and processes each
// complete line. A trailing partial line stays buffered for the next read.
func (r *Reader) drainLines(pending *bytes.Buffer) {
	for {
		raw, err := pending.ReadString('\n')
		if err != nil {
			// Incomplete line; put it back and wait for more bytes.
			pending.Reset()
			pending.WriteString(raw)
			return
		}
		r.processLine(raw)
	}
}

func (r *Reader) processLine(raw string) {
	line := trimLine(raw)
	if line == "" {
		return
	}

	reading, ok := Classify(line)
	if !ok {
		r.log.Debugw("unmatched scale line", "line", line)
		if r.OnLine != nil {
			r.OnLine("unmatched")
		}
		return
	}
	if r.OnLine != nil {
		r.OnLine(reading.Kind.String())
	}
	r.Handle(reading)
}

func trimLine(s string) string {
	for len(s) > 0 {
		last := s[len(s)-1]
		if last == '\n' || last == '\r' || last == ' ' || last == '\t' {
			s = s[:len(s)-1]
			continue
		}
		break
	}
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	return s
}
