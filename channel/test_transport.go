package channel

import (
	"io"
	"slices"
	"strings"
	"sync"
)

// TestTransport is a test helper that simulates a blocking transport using channels.
// This is needed because the Client's reader goroutine continuously reads from the
// transport, and we need reads to block until data is available (like a real serial
// port would).
type TestTransport struct {
	mu       sync.Mutex
	readChan chan []byte
	closed   bool
	written  []string

	// Respond, when set, is called with every command written to the
	// transport. A non-empty return value is fed back as modem output.
	Respond func(command string) string
}

// NewTestTransport creates a new test transport for testing.
// Exported for use in tests.
func NewTestTransport() *TestTransport {
	return &TestTransport{
		readChan: make(chan []byte, 64),
	}
}

func (t *TestTransport) Write(p []byte) (n int, err error) {
	command := strings.TrimSpace(string(p))
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, io.ErrClosedPipe
	}
	t.written = append(t.written, command)
	respond := t.Respond
	t.mu.Unlock()

	if respond != nil {
		if out := respond(command); out != "" {
			t.SendData(out)
		}
	}
	return len(p), nil
}

func (t *TestTransport) Read(p []byte) (n int, err error) {
	data, ok := <-t.readChan
	if !ok {
		return 0, io.EOF
	}
	return copy(p, data), nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

// SendData queues data to be read by the transport.
// This simulates receiving data from the modem.
func (t *TestTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- []byte(data)
	}
}

// Written returns the commands written so far, without line terminators.
func (t *TestTransport) Written() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.written)
}
