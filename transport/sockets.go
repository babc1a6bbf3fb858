package transport

//go:generate mockgen -source=sockets.go -destination=mock_sockets.go -package=transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"i4.energy/across/ntnmodem/channel"
	"i4.energy/across/ntnmodem/telemetry"
)

// DefaultReceiveSize is the number of bytes requested per socket read.
const DefaultReceiveSize = 256

// Socket identifies an open vendor socket.
type Socket struct {
	Cid int
	// ID is the vendor socket handle returned by SocketDriver.Open.
	ID       int
	Endpoint Endpoint
}

// SocketDriver is the vendor specific socket command set. Drivers are
// stateless; Sockets keeps track of what is open.
type SocketDriver interface {
	// Open creates a UDP socket on cid towards ep and returns its handle.
	Open(ctx context.Context, ch channel.Channel, cid int, ep Endpoint) (int, error)
	Send(ctx context.Context, ch channel.Channel, s Socket, payload []byte) error
	// Receive reads pending downlink data. line is the data notification
	// that triggered the read and may be empty.
	Receive(ctx context.Context, ch channel.Channel, s Socket, line string, size int) ([]byte, error)
	Close(ctx context.Context, ch channel.Channel, s Socket) error
	// EnableURC turns on data notifications for sockets.
	EnableURC(ctx context.Context, ch channel.Channel) error
}

// SendOptions controls a socket send.
type SendOptions struct {
	Cid int
	// Endpoint is used to open a socket when none is open for Cid. When
	// zero the default endpoint of the manager applies.
	Endpoint Endpoint
	// CloseAfter closes the socket once the payload was handed over.
	CloseAfter bool
}

// Sockets manages the lifecycle of UDP sockets: at most one socket per
// context id, opened on demand and closed by the caller.
type Sockets struct {
	channel channel.Channel
	driver  SocketDriver
	logger  *slog.Logger

	mu       sync.Mutex
	open     map[int]Socket
	fallback Endpoint
}

func NewSockets(ch channel.Channel, driver SocketDriver, logger *slog.Logger) *Sockets {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sockets{
		channel: ch,
		driver:  driver,
		logger:  logger.With("component", "sockets"),
		open:    make(map[int]Socket),
	}
}

// Supported reports whether a socket driver is available.
func (s *Sockets) Supported() bool {
	return s.driver != nil
}

// SetDefaultEndpoint sets the endpoint used by sends that carry none.
func (s *Sockets) SetDefaultEndpoint(ep Endpoint) error {
	if err := ep.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.fallback = ep
	s.mu.Unlock()
	return nil
}

// DefaultEndpoint returns the endpoint used by sends that carry none.
func (s *Sockets) DefaultEndpoint() Endpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallback
}

// EnableURC turns on socket data notifications.
func (s *Sockets) EnableURC(ctx context.Context) error {
	if s.driver == nil {
		return ErrNoSocketDriver
	}
	return s.driver.EnableURC(ctx, s.channel)
}

// Open opens a socket on cid towards ep. An open socket to the same
// endpoint is reused; one to another endpoint is closed first.
func (s *Sockets) Open(ctx context.Context, cid int, ep Endpoint) error {
	_, err := s.ensureOpen(ctx, cidOrDefault(cid), ep)
	return err
}

func (s *Sockets) ensureOpen(ctx context.Context, cid int, ep Endpoint) (Socket, error) {
	if s.driver == nil {
		return Socket{}, ErrNoSocketDriver
	}
	if err := ep.Validate(); err != nil {
		return Socket{}, err
	}

	s.mu.Lock()
	current, ok := s.open[cid]
	s.mu.Unlock()
	if ok {
		if current.Endpoint == ep {
			return current, nil
		}
		s.logger.Info("Replacing socket", "cid", cid, "from", current.Endpoint, "to", ep)
		if err := s.closeSocket(ctx, current); err != nil {
			return Socket{}, err
		}
	}

	id, err := s.driver.Open(ctx, s.channel, cid, ep)
	if err != nil {
		s.logger.Error("Failed to open socket", "cid", cid, "endpoint", ep, "error", err)
		return Socket{}, err
	}
	sock := Socket{Cid: cid, ID: id, Endpoint: ep}

	s.mu.Lock()
	s.open[cid] = sock
	s.mu.Unlock()
	s.logger.Info("Socket opened", "cid", cid, "id", id, "endpoint", ep)
	return sock, nil
}

// Close closes the socket of cid. Closing a socket that is not open is a
// no-op.
func (s *Sockets) Close(ctx context.Context, cid int) error {
	if s.driver == nil {
		return ErrNoSocketDriver
	}
	cid = cidOrDefault(cid)
	s.mu.Lock()
	sock, ok := s.open[cid]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.closeSocket(ctx, sock)
}

func (s *Sockets) closeSocket(ctx context.Context, sock Socket) error {
	if err := s.driver.Close(ctx, s.channel, sock); err != nil {
		s.logger.Error("Failed to close socket", "cid", sock.Cid, "id", sock.ID, "error", err)
		return err
	}
	s.mu.Lock()
	delete(s.open, sock.Cid)
	s.mu.Unlock()
	s.logger.Info("Socket closed", "cid", sock.Cid, "id", sock.ID)
	return nil
}

// Status reports the socket state of cid.
func (s *Sockets) Status(cid int) SocketStatus {
	cid = cidOrDefault(cid)
	s.mu.Lock()
	defer s.mu.Unlock()
	sock, ok := s.open[cid]
	if !ok {
		return SocketStatus{Cid: cid}
	}
	return SocketStatus{Cid: cid, Open: true, ID: sock.ID, Endpoint: sock.Endpoint}
}

// Send hands payload to the socket of opts.Cid, opening one when needed.
func (s *Sockets) Send(ctx context.Context, payload []byte, opts SendOptions) (MoMessage, error) {
	if s.driver == nil {
		return MoMessage{}, ErrNoSocketDriver
	}
	cid := cidOrDefault(opts.Cid)

	ep := opts.Endpoint
	if ep.IsZero() {
		s.mu.Lock()
		if sock, ok := s.open[cid]; ok {
			ep = sock.Endpoint
		} else {
			ep = s.fallback
		}
		s.mu.Unlock()
	}

	sock, err := s.ensureOpen(ctx, cid, ep)
	if err != nil {
		return MoMessage{}, err
	}

	if err := s.driver.Send(ctx, s.channel, sock, payload); err != nil {
		s.logger.Warn("UDP uplink rejected", "cid", cid, "size", len(payload), "error", err)
		return MoMessage{}, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	s.logger.Debug("UDP uplink sent", "cid", cid, "size", len(payload), "endpoint", sock.Endpoint)

	if opts.CloseAfter {
		if err := s.closeSocket(ctx, sock); err != nil {
			return MoMessage{}, err
		}
	}

	return MoMessage{
		Payload:   payload,
		Transport: telemetry.PdpIP,
		Size:      len(payload),
		Server:    sock.Endpoint.Host,
		Port:      sock.Endpoint.Port,
		Cid:       cid,
	}, nil
}

// Receive reads downlink data from the socket of cid. size defaults to
// DefaultReceiveSize.
func (s *Sockets) Receive(ctx context.Context, cid int, line string, size int) (MtMessage, error) {
	if s.driver == nil {
		return MtMessage{}, ErrNoSocketDriver
	}
	cid = cidOrDefault(cid)
	if size <= 0 {
		size = DefaultReceiveSize
	}

	s.mu.Lock()
	sock, ok := s.open[cid]
	s.mu.Unlock()
	if !ok {
		return MtMessage{}, ErrSocketClosed
	}

	payload, err := s.driver.Receive(ctx, s.channel, sock, line, size)
	if err != nil {
		return MtMessage{}, err
	}
	if len(payload) == 0 {
		return MtMessage{}, ErrNoMessage
	}
	return MtMessage{
		Payload:   payload,
		Transport: telemetry.PdpIP,
		Size:      len(payload),
		Server:    sock.Endpoint.Host,
		Port:      sock.Endpoint.Port,
		Cid:       cid,
	}, nil
}
