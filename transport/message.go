// Package transport moves application payloads through the modem, either
// over the control plane (NIDD) or through vendor UDP sockets.
package transport

import (
	"i4.energy/across/ntnmodem/telemetry"
)

// DefaultCid is the PDN context used when none is given.
const DefaultCid = 1

// MoMessage describes a payload handed to the modem for uplink.
type MoMessage struct {
	Payload   []byte
	Transport telemetry.PdpType
	Size      int
	Server    string
	Port      int
	Cid       int
}

// MtMessage describes a payload received from the network.
type MtMessage struct {
	Payload   []byte
	Transport telemetry.PdpType
	Size      int
	Server    string
	Port      int
	Cid       int
}

// SocketStatus is the state of the socket bound to a context id.
type SocketStatus struct {
	Cid      int
	Open     bool
	ID       int
	Endpoint Endpoint
}

func cidOrDefault(cid int) int {
	if cid <= 0 {
		return DefaultCid
	}
	return cid
}
