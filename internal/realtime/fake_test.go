package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

var errTransportClosed = errors.New("transport closed")

type fakeTransport struct {
	inbound chan []byte
	closed  chan struct{}
	once    sync.Once

	mu   sync.Mutex
	sent []Frame
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbound: make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
}

func (t *fakeTransport) Send(data []byte) error {
	select {
	case <-t.closed:
		return errTransportClosed
	default:
	}

	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.sent = append(t.sent, frame)

	return nil
}

func (t *fakeTransport) Receive() ([]byte, error) {
	select {
	case data := <-t.inbound:
		return data, nil
	case <-t.closed:
		return nil, errTransportClosed
	}
}

func (t *fakeTransport) Close() error {
	t.once.Do(func() { close(t.closed) })

	return nil
}

func (t *fakeTransport) push(event string, data any) {
	frame, err := NewFrame(event, data)
	if err != nil {
		panic(err)
	}

	raw, err := json.Marshal(frame)
	if err != nil {
		panic(err)
	}

	t.inbound <- raw
}

func (t *fakeTransport) frames(event string) []Frame {
	t.mu.Lock()
	defer t.mu.Unlock()

	var frames []Frame
	for _, frame := range t.sent {
		if frame.Event == event {
			frames = append(frames, frame)
		}
	}

	return frames
}

func (t *fakeTransport) isClosed() bool {
	select {
	case <-t.closed:
		return true
	default:
		return false
	}
}

// fakeDialer hands out a fresh transport per dial, or fails while failing is
// set.
type fakeDialer struct {
	mu         sync.Mutex
	failing    bool
	endpoints  []string
	transports []*fakeTransport
}

func (d *fakeDialer) Dial(ctx context.Context, endpoint string) (Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.endpoints = append(d.endpoints, endpoint)
	if d.failing {
		return nil, errors.New("connection refused")
	}

	transport := newFakeTransport()
	d.transports = append(d.transports, transport)

	return transport, nil
}

func (d *fakeDialer) setFailing(failing bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.failing = failing
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.endpoints)
}

func (d *fakeDialer) transport(i int) *fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()

	if i >= len(d.transports) {
		return nil
	}

	return d.transports[i]
}

func (d *fakeDialer) connections() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.transports)
}
