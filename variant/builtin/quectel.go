package builtin

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"i4.energy/across/ntnmodem/at"
	"i4.energy/across/ntnmodem/channel"
	"i4.energy/across/ntnmodem/initseq"
	"i4.energy/across/ntnmodem/transport"
	"i4.energy/across/ntnmodem/urc"
	"i4.energy/across/ntnmodem/variant"
)

const (
	BG95Name   = "quectel-bg95"
	CC660DName = "quectel-cc660d"
)

const (
	quectelSleep    = "+QSCLK:"
	quectelRead     = "+QIRD:"
	quectelLocation = "+QGPSLOC:"
	// Connect ids 0..11 are available per module.
	quectelConnectIDs = 12
)

func quectelOverrides() variant.Overrides {
	return variant.Overrides{
		Sleep:   quectelSleepControl{},
		Sockets: QuectelSockets{},
		Urc: []urc.Rule{
			{Prefix: at.UrcQuectelSocket, Kind: urc.KindSocketData},
			{Prefix: at.UrcQuectelReady, Kind: urc.KindBoot},
		},
		DebugCommands: []string{"AT+QSCLK?", "AT+QIACT?"},
	}
}

// QuectelBG95 returns the BG95 variant.
func QuectelBG95() variant.Variant {
	o := quectelOverrides()
	o.Location = bg95Location{}
	o.DebugCommands = append(o.DebugCommands, `AT+QCFG="iotopmode"`, `AT+QCFG="nwscanseq"`)
	return variant.Variant{
		Name:      BG95Name,
		Sequence:  func() initseq.Sequence { return quectelSequence(true) },
		Overrides: o,
	}
}

// QuectelCC660D returns the CC660D variant.
func QuectelCC660D() variant.Variant {
	return variant.Variant{
		Name:      CC660DName,
		Sequence:  func() initseq.Sequence { return quectelSequence(false) },
		Overrides: quectelOverrides(),
	}
}

func quectelSequence(nbiotOnly bool) initseq.Sequence {
	seq := initseq.Sequence{
		{
			Command:   at.CmdRadioOff,
			Expect:    at.ResultOK,
			Timeout:   30 * time.Second,
			Rationale: "stop radio for configuration",
		},
		{
			Command:   at.CmdVerboseErrors,
			Expect:    at.ResultOK,
			Rationale: "enable verbose error codes",
		},
	}
	if nbiotOnly {
		seq = append(seq,
			initseq.Step{
				Command:   `AT+QCFG="iotopmode",1,1`,
				Expect:    at.ResultOK,
				Rationale: "restrict radio access to NB-IoT",
			},
			initseq.Step{
				Command:   `AT+QCFG="nwscanseq",03,1`,
				Expect:    at.ResultOK,
				Rationale: "scan NB-IoT first",
			},
		)
	}
	return append(seq,
		initseq.Step{
			Command:   `AT+QICFG="dataformat",1,1`,
			Expect:    at.ResultOK,
			Rationale: "hex encoded socket data",
		},
		initseq.Step{
			Command:   `AT+CGDCONT=1,"<pdn_type>","<apn>"`,
			Expect:    at.ResultOK,
			Timeout:   5 * time.Second,
			Rationale: "configure APN and PDN type",
		},
		initseq.Step{
			Command:   "AT+CEREG=5",
			Expect:    at.ResultOK,
			Rationale: "enable detailed registration URCs including PSM",
		},
		initseq.Step{
			Command:   at.CmdRadioOn,
			Expect:    at.ResultOK,
			Timeout:   30 * time.Second,
			Retry:     &initseq.Retry{Count: 1, Delay: 5 * time.Second},
			Rationale: "enable radio",
		},
	)
}

type quectelSleepControl struct{}

func (quectelSleepControl) SleepMode(ctx context.Context, ch channel.Channel) (variant.SleepMode, error) {
	resp, err := query(ctx, ch, "AT+QSCLK?", quectelSleep)
	if err != nil {
		return variant.SleepDisabled, err
	}
	fields := at.Fields(resp, quectelSleep)
	if len(fields) > 0 && fields[0] == "1" {
		return variant.SleepLight, nil
	}
	return variant.SleepDisabled, nil
}

func (quectelSleepControl) SetSleepMode(ctx context.Context, ch channel.Channel, mode variant.SleepMode) error {
	switch mode {
	case variant.SleepDisabled:
		return exec(ctx, ch, "AT+QSCLK=0", 0)
	case variant.SleepLight:
		return exec(ctx, ch, "AT+QSCLK=1", 0)
	default:
		return fmt.Errorf("%w: sleep mode %s", variant.ErrUnsupported, mode)
	}
}

func (quectelSleepControl) IsAsleep(ctx context.Context, ch channel.Channel) (bool, error) {
	return unresponsive(ctx, ch)
}

type bg95Location struct{}

func (bg95Location) Location(ctx context.Context, ch channel.Channel) (variant.Location, error) {
	resp, err := query(ctx, ch, "AT+QGPSLOC=2", quectelLocation)
	if err != nil {
		return variant.Location{}, err
	}
	// +QGPSLOC: <utc>,<lat>,<lon>,<hdop>,<alt>,<fix>,...
	fields := at.Fields(resp, quectelLocation)
	if len(fields) < 5 {
		return variant.Location{}, fmt.Errorf("short location %q", resp)
	}
	var loc variant.Location
	for _, f := range []struct {
		dst *float64
		src string
	}{
		{&loc.Latitude, fields[1]},
		{&loc.Longitude, fields[2]},
		{&loc.Altitude, fields[4]},
	} {
		v, err := strconv.ParseFloat(f.src, 64)
		if err != nil {
			return variant.Location{}, fmt.Errorf("parse location %q: %w", resp, err)
		}
		*f.dst = v
	}
	return loc, nil
}

func (bg95Location) SetLocation(context.Context, channel.Channel, variant.Location) error {
	return fmt.Errorf("%w: BG95 reports its own GNSS fix", variant.ErrUnsupported)
}

// QuectelSockets drives UDP sockets with the QIOPEN command family. Socket
// data is exchanged hex encoded.
type QuectelSockets struct{}

func connectID(cid int) int {
	return (cid - 1) % quectelConnectIDs
}

func (QuectelSockets) Open(ctx context.Context, ch channel.Channel, cid int, ep transport.Endpoint) (int, error) {
	id := connectID(cid)
	cmd := fmt.Sprintf(`AT+QIOPEN=%d,%d,"UDP","%s",%d,0,0`, cid, id, ep.Host, ep.Port)
	if err := exec(ctx, ch, cmd, 5*time.Second); err != nil {
		return 0, err
	}
	return id, nil
}

func (QuectelSockets) Send(ctx context.Context, ch channel.Channel, s transport.Socket, payload []byte) error {
	return exec(ctx, ch, fmt.Sprintf(`AT+QISENDEX=%d,"%s"`, s.ID, hex.EncodeToString(payload)), 10*time.Second)
}

func (QuectelSockets) Receive(ctx context.Context, ch channel.Channel, s transport.Socket, _ string, size int) ([]byte, error) {
	resp, err := query(ctx, ch, fmt.Sprintf("AT+QIRD=%d,%d", s.ID, size), "")
	if err != nil {
		return nil, err
	}
	// +QIRD: <len> followed by the data line.
	lines := strings.Split(resp, "\n")
	for i, l := range lines {
		if !strings.HasPrefix(l, quectelRead) {
			continue
		}
		fields := at.Fields(l, quectelRead)
		if len(fields) == 0 || fields[0] == "0" || i+1 >= len(lines) {
			return nil, nil
		}
		return hex.DecodeString(strings.TrimSpace(lines[i+1]))
	}
	return nil, nil
}

func (QuectelSockets) Close(ctx context.Context, ch channel.Channel, s transport.Socket) error {
	return exec(ctx, ch, fmt.Sprintf("AT+QICLOSE=%d", s.ID), 10*time.Second)
}

// EnableURC is a no-op: +QIURC "recv" notifications are always reported in
// buffer access mode.
func (QuectelSockets) EnableURC(context.Context, channel.Channel) error {
	return nil
}
