// Package channel implements the command/response boundary to an NB-NTN
// modem: one AT command in flight at a time, with unsolicited lines queued
// for later retrieval.
package channel

//go:generate mockgen -source=channel.go -destination=mock_channel.go -package=channel

import (
	"context"
	"io"
	"strings"
	"time"

	"i4.energy/across/ntnmodem/at"
)

// DefaultPrefixes are the leading characters of unsolicited lines.
var DefaultPrefixes = []string{at.UrcStandardPrefix, at.UrcVendorPrefix}

// Channel is a half-duplex AT command channel.
//
// Implementations must reject overlapping calls with ErrBusy rather than
// queueing them.
type Channel interface {
	// Send writes command and waits up to timeout for its final result.
	// A missing result is reported as at.ResultTimeout with a nil error.
	// The returned error is reserved for conditions that end the session
	// (ErrDisconnected, ErrClosed) and for ErrBusy.
	Send(ctx context.Context, command string, timeout time.Duration) (at.ResultCode, error)

	// ReadResponse returns and consumes the buffered response lines that
	// start with prefix, joined by newlines. An empty prefix matches every
	// line. The boolean is false when nothing matched.
	ReadResponse(prefix string) (string, bool)

	// PollUnsolicited reports whether an unsolicited line starting with one
	// of prefixes is available, waiting at most wait. A matching line is
	// moved into the response buffer and can be read with ReadResponse.
	PollUnsolicited(ctx context.Context, prefixes []string, wait time.Duration) (bool, error)

	// Close releases the underlying transport.
	Close() error
}

// Transport represents an established, bidirectional byte stream to a modem.
//
// A Transport is assumed to be already connected and ready for use. It provides
// the low-level I/O primitives required to send AT commands and receive responses.
// Typical implementations include serial ports, TCP connections to emulators,
// or in-memory fakes used for testing.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a Transport to a modem.
//
// Dialer abstracts how the modem connection is created (for example, via a
// serial port, TCP-based emulator, or test double) and is intended to be used
// during modem construction only. Once a Transport is obtained, the Dialer is
// no longer needed.
type Dialer interface {
	// Dial is responsible for creating and returning a connected Transport. It may
	// perform blocking operations and should respect cancellation and deadlines
	// provided by the context. Dial returns an error if the transport cannot be
	// established.
	Dial(ctx context.Context) (Transport, error)
}

func hasAnyPrefix(line string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}
