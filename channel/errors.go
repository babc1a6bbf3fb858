package channel

import "errors"

var (
	// ErrBusy is returned when an operation is attempted while another one
	// holds the channel.
	//
	// The channel carries one command at a time. Callers that share a
	// channel between goroutines must serialize access themselves.
	ErrBusy = errors.New("channel busy")

	// ErrDisconnected is returned once the underlying transport has stopped
	// delivering data (EOF or read error).
	//
	// This is the only condition that ends a session. The channel cannot be
	// reused and must be closed by its owner.
	ErrDisconnected = errors.New("channel disconnected")

	// ErrClosed is returned when an operation is attempted on a closed
	// channel.
	ErrClosed = errors.New("channel closed")

	// ErrNoPortName is returned by SerialDialer when no port is configured.
	ErrNoPortName = errors.New("ntn: serial port name is required")

	// ErrNilContext is returned by SerialDialer when called with a nil context.
	ErrNilContext = errors.New("ntn: context is nil")
)
