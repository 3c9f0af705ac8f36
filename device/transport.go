package device

import (
	"errors"
	"io"
	"sync"
	"time"
)

// ErrClosed is returned once the transport's underlying stream has ended
// and no buffered bytes remain.
var ErrClosed = errors.New("transport closed")

// Transport is the device's byte link to the host, modeled on a CDC ACM
// receive buffer: bytes accumulate in the background and the dispatcher
// polls for them.
type Transport interface {
	// Available returns the number of buffered bytes.
	Available() int

	// AvailableTimeout waits until at least n bytes are buffered or the
	// timeout elapses, and returns the buffered count. It returns ErrClosed
	// when the stream ended before n bytes arrived.
	AvailableTimeout(timeout time.Duration, n int) (int, error)

	// Read copies up to len(p) buffered bytes into p without blocking.
	Read(p []byte) int

	// ReadByte removes one buffered byte.
	ReadByte() (byte, bool)

	// Transmit sends p as a single write.
	Transmit(p []byte) error

	// Flush discards every buffered byte.
	Flush()
}

// StreamTransport implements Transport over an io.ReadWriter. A reader
// goroutine moves incoming bytes into a buffer until the stream fails.
type StreamTransport struct {
	rw io.ReadWriter

	mu     sync.Mutex
	buf    []byte
	err    error
	notify chan struct{} // closed and replaced whenever buf grows or err is set

	wmu sync.Mutex
}

// NewStreamTransport starts receiving from rw.
func NewStreamTransport(rw io.ReadWriter) *StreamTransport {
	if rw == nil {
		panic("device: stream cannot be nil")
	}
	t := &StreamTransport{
		rw:     rw,
		notify: make(chan struct{}),
	}
	go t.receive()
	return t
}

func (t *StreamTransport) receive() {
	chunk := make([]byte, 512)
	for {
		n, err := t.rw.Read(chunk)
		t.mu.Lock()
		if n > 0 {
			t.buf = append(t.buf, chunk[:n]...)
		}
		if err != nil {
			t.err = err
		}
		if n > 0 || err != nil {
			close(t.notify)
			t.notify = make(chan struct{})
		}
		t.mu.Unlock()
		if err != nil {
			return
		}
	}
}

// Available returns the number of buffered bytes.
func (t *StreamTransport) Available() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buf)
}

// AvailableTimeout waits for n buffered bytes or the timeout.
func (t *StreamTransport) AvailableTimeout(timeout time.Duration, n int) (int, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		t.mu.Lock()
		have, err, ch := len(t.buf), t.err, t.notify
		t.mu.Unlock()

		if have >= n {
			return have, nil
		}
		if err != nil {
			return have, ErrClosed
		}

		select {
		case <-ch:
		case <-timer.C:
			return t.Available(), nil
		}
	}
}

// Read copies up to len(p) buffered bytes into p.
func (t *StreamTransport) Read(p []byte) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := copy(p, t.buf)
	t.buf = t.buf[n:]
	return n
}

// ReadByte removes one buffered byte.
func (t *StreamTransport) ReadByte() (byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.buf) == 0 {
		return 0, false
	}
	b := t.buf[0]
	t.buf = t.buf[1:]
	return b, true
}

// Transmit writes p to the stream.
func (t *StreamTransport) Transmit(p []byte) error {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	_, err := t.rw.Write(p)
	return err
}

// Flush discards buffered bytes.
func (t *StreamTransport) Flush() {
	t.mu.Lock()
	t.buf = nil
	t.mu.Unlock()
}
