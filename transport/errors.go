package transport

import "errors"

var (
	// ErrSendFailed is returned when the modem did not accept a payload.
	// Uplink loss is a normal network condition; callers are expected to
	// check for it on every send.
	ErrSendFailed = errors.New("transport: send failed")

	// ErrNoMessage is returned when a receive produced no payload.
	ErrNoMessage = errors.New("transport: no message")

	// ErrInvalidEndpoint is returned for a server that is neither an IP
	// literal nor a valid hostname, or a port outside 1..65535.
	ErrInvalidEndpoint = errors.New("transport: invalid endpoint")

	// ErrNoSocketDriver is returned by socket operations when the modem
	// variant provides no socket support.
	ErrNoSocketDriver = errors.New("transport: no socket driver")

	// ErrSocketClosed is returned when a socket operation needs an open
	// socket and none exists for the context id.
	ErrSocketClosed = errors.New("transport: socket not open")
)
