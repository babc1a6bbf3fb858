// Package modem is the facade over an NB-NTN modem: identity and variant
// resolution, NTN attach, telemetry queries and message transport.
package modem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"i4.energy/across/ntnmodem/at"
	"i4.energy/across/ntnmodem/channel"
	"i4.energy/across/ntnmodem/initseq"
	"i4.energy/across/ntnmodem/telemetry"
	"i4.energy/across/ntnmodem/transport"
	"i4.energy/across/ntnmodem/urc"
	"i4.energy/across/ntnmodem/variant"
)

// infoTimeout bounds the ATI query during New.
const infoTimeout = 3 * time.Second

// Modem represents one NB-NTN modem session. The identity and variant are
// resolved once by New and do not change for the lifetime of the Modem.
//
// Only one operation runs at a time: a call made while another is in
// progress fails with channel.ErrBusy rather than waiting. Applications
// that poll events and send messages concurrently must serialize the
// calls themselves.
type Modem struct {
	channel channel.Channel
	config  Config
	logger  *slog.Logger
	session uuid.UUID

	info     string
	identity variant.Identity
	variant  variant.Variant

	events  *urc.Dispatcher
	engine  *initseq.Engine
	nidd    *transport.Connectionless
	sockets *transport.Sockets

	// op is the non-reentrant operation guard.
	op sync.Mutex

	mu       sync.Mutex
	apn      string
	pdpType  telemetry.PdpType
	endpoint transport.Endpoint
	closed   bool
}

// New opens the channel described by config, checks that the modem
// responds and resolves its identity and variant.
//
// A modem that matches no registered variant is driven with the generic
// variant; the mismatch is logged as a warning.
func New(ctx context.Context, config Config) (*Modem, error) {
	if config.dialer == nil && config.channel == nil {
		return nil, ErrNoDialer
	}
	config.setDefaults()

	session := uuid.New()
	logger := config.logger.With("component", "modem", "session", session.String())

	ch := config.channel
	if ch == nil {
		t, err := config.dialer.Dial(ctx)
		if err != nil {
			return nil, fmt.Errorf("dial modem: %w", err)
		}
		ch = channel.NewClient(t, logger)
	}

	m := &Modem{
		channel:  ch,
		config:   config,
		logger:   logger,
		session:  session,
		apn:      config.apn,
		pdpType:  config.pdpType,
		endpoint: transport.Endpoint{Host: config.udpServer, Port: config.udpPort},
	}

	if err := m.identify(ctx); err != nil {
		ch.Close()
		return nil, err
	}

	v, err := config.registry.Resolve(m.identity)
	if err != nil {
		logger.Warn("Using generic modem behaviour", "identity", m.identity.String(), "error", err)
	}
	m.variant = v

	m.events = urc.NewDispatcher(ch, urc.Options{
		Table:    urc.DefaultTable().With(v.Overrides.Urc...),
		Prefixes: eventPrefixes(v.Overrides.Urc),
		Clock:    config.clock,
		Logger:   logger,
	})
	m.engine = &initseq.Engine{
		Channel: ch,
		Events:  m.events,
		Clock:   config.clock,
		Logger:  logger.With("component", "initseq"),
		GPIO:    config.gpio,
	}
	m.nidd = transport.NewConnectionless(ch, logger)
	m.nidd.Timeout = config.atTimeout
	m.sockets = transport.NewSockets(ch, v.Overrides.Sockets, logger)
	if err := m.applyEndpoint(); err != nil {
		ch.Close()
		return nil, err
	}

	logger.Info("Modem connected",
		"manufacturer", m.identity.Manufacturer,
		"model", m.identity.Model,
		"chipset", m.identity.Chipset,
		"variant", v.Name)
	return m, nil
}

// identify checks the modem answers and reads its ATI text.
func (m *Modem) identify(ctx context.Context) error {
	result, err := m.channel.Send(ctx, at.CmdAt, m.config.atTimeout)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotResponding, err)
	}
	if result != at.ResultOK {
		return fmt.Errorf("%w: AT returned %s", ErrNotResponding, result)
	}

	if result, err := m.channel.Send(ctx, at.CmdEchoOff, m.config.atTimeout); err != nil {
		return err
	} else if result != at.ResultOK {
		m.logger.Warn("Could not disable echo", "result", result)
	}

	result, err = m.channel.Send(ctx, at.CmdInfo, infoTimeout)
	if err != nil {
		return err
	}
	if result != at.ResultOK {
		return fmt.Errorf("%w: ATI returned %s", ErrCommandFailed, result)
	}
	m.info, _ = m.channel.ReadResponse("")
	m.identity = variant.ResolveIdentity(m.info)
	return nil
}

// eventPrefixes returns the poll prefixes needed for rules. Rules whose
// prefix does not start with + or % (Quectel's RDY) need their own.
func eventPrefixes(rules []urc.Rule) []string {
	prefixes := append([]string(nil), channel.DefaultPrefixes...)
	for _, r := range rules {
		if r.Prefix != "" && !strings.HasPrefix(r.Prefix, at.UrcStandardPrefix) && !strings.HasPrefix(r.Prefix, at.UrcVendorPrefix) {
			prefixes = append(prefixes, r.Prefix)
		}
	}
	return prefixes
}

// Session returns the id logged with every record of this session.
func (m *Modem) Session() uuid.UUID {
	return m.session
}

// Info returns the ATI text read by New.
func (m *Modem) Info() string {
	return m.info
}

// Identity returns the resolved identity.
func (m *Modem) Identity() variant.Identity {
	return m.identity
}

// Variant returns the name of the selected variant.
func (m *Modem) Variant() string {
	return m.variant.Name
}

// Events returns the dispatcher of unsolicited events, for registering
// handlers.
func (m *Modem) Events() *urc.Dispatcher {
	return m.events
}

// Close closes the channel. After calling Close the modem cannot be
// reused.
func (m *Modem) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrAlreadyClosed
	}
	m.closed = true
	m.mu.Unlock()

	m.logger.Info("Modem closed")
	err := m.channel.Close()
	if errors.Is(err, channel.ErrClosed) {
		return nil
	}
	return err
}

// acquire takes the operation guard.
func (m *Modem) acquire() (func(), error) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return nil, ErrAlreadyClosed
	}
	if !m.op.TryLock() {
		return nil, channel.ErrBusy
	}
	return m.op.Unlock, nil
}

// exec sends cmd and fails unless the result is OK.
func (m *Modem) exec(ctx context.Context, cmd string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = m.config.atTimeout
	}
	result, err := m.channel.Send(ctx, cmd, timeout)
	if err != nil {
		if errors.Is(err, channel.ErrDisconnected) {
			m.logger.Error("Modem disconnected", "command", cmd)
		}
		return err
	}
	if result != at.ResultOK {
		m.logger.Error("Command failed", "command", cmd, "result", result)
		return fmt.Errorf("%w: %s returned %s", ErrCommandFailed, cmd, result)
	}
	return nil
}

// query sends cmd and returns the response lines starting with prefix.
func (m *Modem) query(ctx context.Context, cmd, prefix string, timeout time.Duration) (string, error) {
	if err := m.exec(ctx, cmd, timeout); err != nil {
		return "", err
	}
	resp, ok := m.channel.ReadResponse(prefix)
	if !ok {
		return "", fmt.Errorf("%w: %s returned no %q response", ErrCommandFailed, cmd, prefix)
	}
	return resp, nil
}

// Exec sends an arbitrary command and returns its result and response.
func (m *Modem) Exec(ctx context.Context, cmd string, timeout time.Duration) (at.ResultCode, string, error) {
	release, err := m.acquire()
	if err != nil {
		return at.ResultUnknown, "", err
	}
	defer release()

	result, err := m.channel.Send(ctx, cmd, timeout)
	if err != nil {
		return result, "", err
	}
	resp, _ := m.channel.ReadResponse("")
	return result, resp, nil
}
