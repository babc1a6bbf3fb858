package modem

import (
	"context"
	"fmt"
	"time"

	"i4.energy/across/ntnmodem/at"
	"i4.energy/across/ntnmodem/initseq"
	"i4.energy/across/ntnmodem/telemetry"
	"i4.energy/across/ntnmodem/transport"
	"i4.energy/across/ntnmodem/urc"
)

// InitializeNTN waits for the SIM to become ready, entering the configured
// PIN if asked, then runs seq, or the variant's attach sequence when seq is
// nil, with the current PDN type and APN. A failed step is returned as an
// *initseq.StepError and logged.
func (m *Modem) InitializeNTN(ctx context.Context, seq initseq.Sequence) error {
	release, err := m.acquire()
	if err != nil {
		return err
	}
	defer release()

	if err := m.unlockSIM(ctx); err != nil {
		m.logger.Error("SIM not ready", "error", err)
		return err
	}

	if seq == nil {
		seq = m.variant.InitSequence()
	}
	m.mu.Lock()
	params := initseq.Params{PdpType: m.pdpType, APN: m.apn}
	m.mu.Unlock()

	m.logger.Info("Initializing NTN", "variant", m.variant.Name, "steps", len(seq), "pdp_type", params.PdpType)
	if err := m.engine.Run(ctx, seq, params); err != nil {
		m.logger.Error("NTN initialization failed", "error", err)
		return err
	}
	m.logger.Info("NTN initialized")
	return nil
}

// AwaitRegistration waits until the modem registers with the home or a
// roaming network. A zero timeout waits without bound. On timeout the last
// known registration is returned with ErrNotRegistered.
func (m *Modem) AwaitRegistration(ctx context.Context, timeout time.Duration) (telemetry.RegInfo, error) {
	release, err := m.acquire()
	if err != nil {
		return telemetry.RegInfo{State: telemetry.RegUnknown}, err
	}
	defer release()

	info, err := m.regInfo(ctx)
	if err != nil {
		return info, err
	}
	if info.Registered() {
		return info, nil
	}

	clock := m.config.clock
	start := clock.Now()
	for timeout == 0 || clock.Since(start) < timeout {
		var remaining time.Duration
		if timeout > 0 {
			remaining = timeout - clock.Since(start)
		}
		line, err := m.events.Await(ctx, at.UrcRegistration, remaining)
		if err != nil {
			return info, err
		}
		if line == "" {
			break
		}
		info = telemetry.DecodeRegInfo(line, false)
		m.logger.Info("Registration changed", "state", info.State, "tac", info.TrackingArea, "cell", info.CellID)
		if info.Registered() {
			return info, nil
		}
	}
	return info, fmt.Errorf("%w: %s after %s", ErrNotRegistered, info.State, timeout)
}

// NextEvent returns the oldest unsolicited event, polling the channel for
// up to wait when none is queued. The boolean is false when no event
// arrived.
func (m *Modem) NextEvent(ctx context.Context, wait time.Duration) (urc.Event, bool, error) {
	if ev, ok := m.events.Next(); ok {
		return ev, true, nil
	}
	release, err := m.acquire()
	if err != nil {
		return urc.Event{}, false, err
	}
	defer release()

	if _, err := m.events.Poll(ctx, wait); err != nil {
		return urc.Event{}, false, err
	}
	ev, ok := m.events.Next()
	return ev, ok, nil
}

// Receive reads the downlink payload announced by ev. Socket events of
// variants that deliver data out of band trigger a read on DefaultCid.
func (m *Modem) Receive(ctx context.Context, ev urc.Event) (transport.MtMessage, error) {
	switch ev.Kind {
	case urc.KindConnectionlessData:
		return m.ReceiveNIDD(ev.Line)
	case urc.KindSocketData:
		return m.ReceiveUDP(ctx, transport.DefaultCid, ev.Line, 0)
	default:
		return transport.MtMessage{}, fmt.Errorf("%w: %s event carries no data", transport.ErrNoMessage, ev.Kind)
	}
}

// SendNIDD sends payload over the control plane on context cid. A
// transport.ErrSendFailed error means the modem refused the payload.
func (m *Modem) SendNIDD(ctx context.Context, payload []byte, cid int) (transport.MoMessage, error) {
	release, err := m.acquire()
	if err != nil {
		return transport.MoMessage{}, err
	}
	defer release()
	return m.nidd.Send(ctx, payload, cid)
}

// ReceiveNIDD extracts the payload of a +CRTDCP event line.
func (m *Modem) ReceiveNIDD(line string) (transport.MtMessage, error) {
	return m.nidd.Receive(line)
}

// EnableNIDDURC turns unsolicited NIDD downlink reporting on or off.
func (m *Modem) EnableNIDDURC(ctx context.Context, enable bool) error {
	release, err := m.acquire()
	if err != nil {
		return err
	}
	defer release()
	return m.nidd.EnableURC(ctx, enable)
}

// SendUDP sends payload on a UDP socket, opening one when needed. The
// socket stays open unless opts.CloseAfter is set.
func (m *Modem) SendUDP(ctx context.Context, payload []byte, opts transport.SendOptions) (transport.MoMessage, error) {
	release, err := m.acquire()
	if err != nil {
		return transport.MoMessage{}, err
	}
	defer release()
	return m.sockets.Send(ctx, payload, opts)
}

// ReceiveUDP reads up to size bytes of downlink data from the socket of
// cid. line is the notification that announced the data, if any.
func (m *Modem) ReceiveUDP(ctx context.Context, cid int, line string, size int) (transport.MtMessage, error) {
	release, err := m.acquire()
	if err != nil {
		return transport.MtMessage{}, err
	}
	defer release()
	return m.sockets.Receive(ctx, cid, line, size)
}

// OpenSocket opens a UDP socket on cid towards ep.
func (m *Modem) OpenSocket(ctx context.Context, cid int, ep transport.Endpoint) error {
	release, err := m.acquire()
	if err != nil {
		return err
	}
	defer release()
	return m.sockets.Open(ctx, cid, ep)
}

// CloseSocket closes the socket of cid, if any.
func (m *Modem) CloseSocket(ctx context.Context, cid int) error {
	release, err := m.acquire()
	if err != nil {
		return err
	}
	defer release()
	return m.sockets.Close(ctx, cid)
}

// SocketStatus returns the state of the socket of cid.
func (m *Modem) SocketStatus(cid int) transport.SocketStatus {
	return m.sockets.Status(cid)
}

// EnableUDPURC turns on socket data notifications.
func (m *Modem) EnableUDPURC(ctx context.Context) error {
	release, err := m.acquire()
	if err != nil {
		return err
	}
	defer release()
	return m.sockets.EnableURC(ctx)
}
