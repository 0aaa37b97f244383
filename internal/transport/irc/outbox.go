package irc

import (
	"sync"

	"github.com/vovakirdan/ircserv/internal/core"
)

// outbox is the byte-bounded outbound queue of one connection. The hub pushes,
// the writer goroutine takes.
type outbox struct {
	mu     sync.Mutex
	buf    []byte
	limit  int
	closed bool
	ready  chan struct{}
}

// newOutbox creates a queue holding at most limit bytes; 0 means unbounded.
func newOutbox(limit int) *outbox {
	return &outbox{limit: limit, ready: make(chan struct{}, 1)}
}

// Push appends line. It never blocks.
func (o *outbox) Push(line string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return errConnClosed
	}
	if o.limit > 0 && len(o.buf)+len(line) > o.limit {
		return core.ErrSendQueueFull
	}
	o.buf = append(o.buf, line...)
	o.signal()
	return nil
}

// Take removes and returns everything queued. closed reports whether Close
// was called; once it is true and data is empty nothing more will arrive.
func (o *outbox) Take() (data []byte, closed bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	data = o.buf
	o.buf = nil
	return data, o.closed
}

// Requeue puts an unwritten remainder back in front of the queue.
func (o *outbox) Requeue(rest []byte) {
	if len(rest) == 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.buf = append(append(make([]byte, 0, len(rest)+len(o.buf)), rest...), o.buf...)
	o.signal()
}

// Close rejects further pushes. Queued bytes stay available to Take.
func (o *outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	o.signal()
}

// Closed reports whether Close was called.
func (o *outbox) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// Len returns the number of queued bytes.
func (o *outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.buf)
}

// Ready fires when there is something to take.
func (o *outbox) Ready() <-chan struct{} {
	return o.ready
}

func (o *outbox) signal() {
	select {
	case o.ready <- struct{}{}:
	default:
	}
}
