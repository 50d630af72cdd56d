package periodconv

import (
	"log"
	"time"

	"github.com/smallnest/ringbuffer"
)

// Reporter is a realtime-safe error sink: a lock-free ring buffer the
// realtime thread writes formatted error records into without
// blocking or allocating, drained by a background goroutine that
// forwards to a *log.Logger.
type Reporter struct {
	ring   *ringbuffer.RingBuffer
	logger *log.Logger
	done   chan struct{}
}

// defaultRingSize bounds one Reporter's backlog: a few hundred error
// records' worth of formatted text. Reports beyond this are dropped
// rather than ever blocking the realtime writer.
const defaultRingSize = 16 * 1024

// NewReporter starts a background goroutine draining error records
// into logger (or log.Default() if nil) every pollInterval. Call
// Close to stop the goroutine.
func NewReporter(logger *log.Logger, pollInterval time.Duration) *Reporter {
	if logger == nil {
		logger = log.Default()
	}
	if pollInterval <= 0 {
		pollInterval = 10 * time.Millisecond
	}

	r := &Reporter{
		ring:   ringbuffer.New(defaultRingSize),
		logger: logger,
		done:   make(chan struct{}),
	}
	go r.drain(pollInterval)
	return r
}

// Report pushes err's message into the ring buffer. It allocates only
// to format the record (err.Error() and its conversion to bytes) and
// never waits for space — if the ring buffer is full, the record is
// silently dropped rather than stalling the caller.
func (r *Reporter) Report(err error) {
	if r == nil || err == nil {
		return
	}
	msg := err.Error()
	if r.ring.Free() < len(msg)+1 {
		return
	}
	_, _ = r.ring.Write([]byte(msg))
	_, _ = r.ring.Write([]byte{'\n'})
}

func (r *Reporter) drain(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	buf := make([]byte, defaultRingSize)
	for {
		select {
		case <-r.done:
			r.flush(buf)
			return
		case <-ticker.C:
			r.flush(buf)
		}
	}
}

func (r *Reporter) flush(buf []byte) {
	for {
		n, _ := r.ring.TryRead(buf)
		if n == 0 {
			return
		}
		r.logger.Print(string(buf[:n]))
	}
}

// Close signals the background drain goroutine to flush whatever is
// currently buffered and exit. It returns without waiting for that
// flush to finish.
func (r *Reporter) Close() error {
	if r == nil {
		return nil
	}
	close(r.done)
	return nil
}
