package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"i4.energy/across/ntnmodem/channel"
	"i4.energy/across/ntnmodem/modem"
	"i4.energy/across/ntnmodem/telemetry"
	"i4.energy/across/ntnmodem/transport"
	"i4.energy/across/ntnmodem/urc"
)

const (
	defaultPollInterval   = time.Second
	defaultSignalInterval = 5 * time.Minute
)

// Uplink is a payload submitted for transmission.
type Uplink struct {
	Payload []byte
	// UDP selects the socket transport instead of NIDD.
	UDP bool
}

type uplinkJob struct {
	uplink Uplink
	reply  chan uplinkResult
}

type uplinkResult struct {
	message transport.MoMessage
	err     error
}

// Status is the state reported by the gateway.
type Status struct {
	Variant      string    `json:"variant"`
	Identity     string    `json:"identity"`
	Registration string    `json:"registration"`
	TrackingArea string    `json:"tracking_area,omitempty"`
	CellID       string    `json:"cell_id,omitempty"`
	RSRP         *int      `json:"rsrp,omitempty"`
	RSRQ         *float64  `json:"rsrq,omitempty"`
	SINR         *float64  `json:"sinr,omitempty"`
	Quality      string    `json:"quality"`
	Uplinks      int       `json:"uplinks"`
	Downlinks    int       `json:"downlinks"`
	LastDownlink []byte    `json:"last_downlink,omitempty"`
	Updated      time.Time `json:"updated"`
}

// Gateway owns the modem session: it is the only goroutine issuing
// commands. Unsolicited events are polled, uplinks submitted by the HTTP
// server are queued, and a status uplink is sent every TransmitInterval.
type Gateway struct {
	Modem  *modem.Modem
	Logger *slog.Logger

	PollInterval     time.Duration
	SignalInterval   time.Duration
	TransmitInterval time.Duration
	// StatusPayload builds the periodic uplink.
	StatusPayload func(Status) []byte

	once  sync.Once
	queue chan uplinkJob

	mu     sync.Mutex
	status Status
}

func (g *Gateway) init() {
	g.once.Do(func() {
		g.queue = make(chan uplinkJob, 16)
		if g.Logger == nil {
			g.Logger = slog.New(slog.DiscardHandler)
		}
		if g.PollInterval <= 0 {
			g.PollInterval = defaultPollInterval
		}
		if g.SignalInterval <= 0 {
			g.SignalInterval = defaultSignalInterval
		}
		if g.StatusPayload == nil {
			g.StatusPayload = func(Status) []byte { return []byte("TEST") }
		}
		g.status = Status{
			Variant:      g.Modem.Variant(),
			Identity:     g.Modem.Identity().String(),
			Registration: telemetry.RegUnknown.String(),
			Quality:      telemetry.QualityNone.String(),
		}
	})
}

// Status returns a copy of the last known state.
func (g *Gateway) Status() Status {
	g.init()
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// Send queues u and waits for the modem to accept it.
func (g *Gateway) Send(ctx context.Context, u Uplink) (transport.MoMessage, error) {
	g.init()
	job := uplinkJob{uplink: u, reply: make(chan uplinkResult, 1)}
	select {
	case g.queue <- job:
	case <-ctx.Done():
		return transport.MoMessage{}, ctx.Err()
	}
	select {
	case res := <-job.reply:
		return res.message, res.err
	case <-ctx.Done():
		return transport.MoMessage{}, ctx.Err()
	}
}

// Run drives the session until ctx is done or the channel disconnects.
func (g *Gateway) Run(ctx context.Context) error {
	g.init()

	poll := time.NewTicker(g.PollInterval)
	defer poll.Stop()
	sig := time.NewTicker(g.SignalInterval)
	defer sig.Stop()
	var transmit <-chan time.Time
	if g.TransmitInterval > 0 {
		t := time.NewTicker(g.TransmitInterval)
		defer t.Stop()
		transmit = t.C
	}

	if err := g.refresh(ctx); errors.Is(err, channel.ErrDisconnected) {
		return err
	}
	for {
		var err error
		select {
		case <-ctx.Done():
			return nil
		case job := <-g.queue:
			msg, sendErr := g.send(ctx, job.uplink)
			job.reply <- uplinkResult{message: msg, err: sendErr}
			err = sendErr
		case <-poll.C:
			err = g.drainEvents(ctx)
		case <-sig.C:
			err = g.refresh(ctx)
		case <-transmit:
			err = g.transmitStatus(ctx)
		}
		if errors.Is(err, channel.ErrDisconnected) {
			g.Logger.Error("Modem disconnected, stopping session")
			return err
		}
	}
}

func (g *Gateway) send(ctx context.Context, u Uplink) (transport.MoMessage, error) {
	var (
		msg transport.MoMessage
		err error
	)
	if u.UDP {
		msg, err = g.Modem.SendUDP(ctx, u.Payload, transport.SendOptions{})
	} else {
		msg, err = g.Modem.SendNIDD(ctx, u.Payload, transport.DefaultCid)
	}
	if err != nil {
		g.Logger.Warn("Problem sending uplink", "size", len(u.Payload), "udp", u.UDP, "error", err)
		return msg, err
	}
	g.Logger.Info("Sent uplink", "size", msg.Size, "transport", msg.Transport)
	g.mu.Lock()
	g.status.Uplinks++
	g.mu.Unlock()
	return msg, nil
}

func (g *Gateway) drainEvents(ctx context.Context) error {
	for {
		ev, ok, err := g.Modem.NextEvent(ctx, 0)
		if err != nil || !ok {
			return err
		}
		if err := g.handle(ctx, ev); err != nil {
			return err
		}
	}
}

func (g *Gateway) handle(ctx context.Context, ev urc.Event) error {
	switch ev.Kind {
	case urc.KindRegistration:
		info := telemetry.DecodeRegInfo(ev.Line, false)
		if info.Registered() {
			g.Logger.Info("Modem registered", "state", info.State, "tac", info.TrackingArea, "cell", info.CellID)
		} else {
			g.Logger.Warn("Modem not registered", "state", info.State)
		}
		g.setRegistration(info)
	case urc.KindConnectionlessData, urc.KindSocketData:
		msg, err := g.Modem.Receive(ctx, ev)
		if errors.Is(err, transport.ErrNoMessage) {
			g.Logger.Debug("Data event without payload", "urc", ev.Line)
			return nil
		}
		if err != nil {
			return err
		}
		g.Logger.Info("Received downlink", "size", msg.Size, "transport", msg.Transport)
		g.mu.Lock()
		g.status.Downlinks++
		g.status.LastDownlink = msg.Payload
		g.mu.Unlock()
	case urc.KindBoot:
		g.Logger.Warn("Modem restarted", "urc", ev.Line)
	default:
		g.Logger.Debug("Unhandled event", "urc", ev.Line)
	}
	return nil
}

func (g *Gateway) refresh(ctx context.Context) error {
	reg, err := g.Modem.RegInfo(ctx)
	if err != nil {
		g.Logger.Warn("Registration query failed", "error", err)
		return err
	}
	g.setRegistration(reg)

	sig, err := g.Modem.SigInfo(ctx)
	if err != nil {
		g.Logger.Warn("Signal query failed", "error", err)
		return err
	}
	quality := telemetry.QualityNone
	if sig.SINR != nil {
		quality = telemetry.QualityFromSINR(*sig.SINR)
	}
	g.mu.Lock()
	g.status.RSRP = sig.RSRP
	g.status.RSRQ = sig.RSRQ
	g.status.SINR = sig.SINR
	g.status.Quality = quality.String()
	g.status.Updated = time.Now()
	g.mu.Unlock()
	g.Logger.Info("Signal", "registration", reg.State, "quality", quality)
	return nil
}

func (g *Gateway) setRegistration(info telemetry.RegInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status.Registration = info.State.String()
	g.status.TrackingArea = info.TrackingArea
	g.status.CellID = info.CellID
}

func (g *Gateway) transmitStatus(ctx context.Context) error {
	reg, err := g.Modem.RegInfo(ctx)
	if err != nil {
		return err
	}
	g.setRegistration(reg)
	if !reg.Registered() {
		g.Logger.Warn("Cannot send uplink, modem not registered", "retry_in", g.TransmitInterval)
		return nil
	}
	_, err = g.send(ctx, Uplink{Payload: g.StatusPayload(g.Status()), UDP: g.Modem.PdpType() != telemetry.PdpNonIP})
	return err
}
