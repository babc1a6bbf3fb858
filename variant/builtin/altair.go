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

// AltairName names the variant for ALT1250 based modems (Murata Type1SC,
// Sierra HL781x).
const AltairName = "altair"

const (
	altairSocketCmd  = "%SOCKETCMD:"
	altairSocketData = "%SOCKETDATA:"
	altairSleepCfg   = "pm.conf.sleep_mode"
	altairBand       = 255
)

// Altair returns the ALT1250 variant.
func Altair() variant.Variant {
	return variant.Variant{
		Name:     AltairName,
		Sequence: altairSequence,
		Overrides: variant.Overrides{
			Sleep:   altairSleep{},
			Bands:   altairBands{},
			Sockets: AltairSockets{},
			Urc: []urc.Rule{
				{Prefix: at.UrcAltairSocket, Kind: urc.KindSocketData},
				{Prefix: at.UrcAltairBoot, Kind: urc.KindBoot},
			},
			DebugCommands: []string{
				`AT%RATACT?`,
				`AT%GETACFG="` + altairSleepCfg + `"`,
				`AT%GETCFG="BAND"`,
				`AT%PCONI`,
			},
		},
	}
}

func altairSequence() initseq.Sequence {
	return initseq.Sequence{
		{
			Command:   at.CmdRadioOff,
			Expect:    at.ResultOK,
			Timeout:   30 * time.Second,
			Rationale: "stop radio for configuration",
		},
		{
			Command:   `AT%SETACFG="radiom.config.multi_rat_enable","true"`,
			Expect:    at.ResultOK,
			Timeout:   5 * time.Second,
			Rationale: "enable multi-RAT capability",
		},
		{
			Command:   `AT%SETACFG="radiom.config.preferred_rat_list","none"`,
			Expect:    at.ResultOK,
			Rationale: "disable preferred RAT list",
		},
		{
			Command:   `AT%SETACFG="radiom.config.auto_preference_mode","none"`,
			Expect:    at.ResultOK,
			Rationale: "disable automatic RAT switching",
		},
		{
			Command:   "ATZ",
			Expect:    at.ResultOK,
			Event:     &initseq.Event{Pattern: "%BOOTEV:0", Timeout: 60 * time.Second},
			Rationale: "reset for configured parameter use",
		},
		{
			Command:   `AT%RATACT="NBNTN",1`,
			Expect:    at.ResultOK,
			Timeout:   10 * time.Second,
			Rationale: "enable NBNTN RAT",
		},
		{
			Command:   `AT%SETACFG="modem_apps.Mode.AutoConnectMode","true"`,
			Expect:    at.ResultOK,
			Rationale: "enable auto-connect mode",
		},
		{
			Command:   `AT+CGDCONT=1,"<pdn_type>","<apn>"`,
			Expect:    at.ResultOK,
			Timeout:   5 * time.Second,
			Rationale: "configure APN and PDN type",
		},
		{
			Command:   "AT+CEREG=5",
			Expect:    at.ResultOK,
			Rationale: "enable detailed registration URCs including PSM",
		},
		{
			Command:   at.CmdRadioOn,
			Expect:    at.ResultOK,
			Timeout:   30 * time.Second,
			Retry:     &initseq.Retry{Count: 1},
			Rationale: "enable radio",
		},
	}
}

type altairSleep struct{}

var altairSleepModes = map[variant.SleepMode]string{
	variant.SleepDisabled: "disable",
	variant.SleepLight:    "ls",
	variant.SleepDeep:     "dh0",
}

func (altairSleep) SleepMode(ctx context.Context, ch channel.Channel) (variant.SleepMode, error) {
	resp, err := query(ctx, ch, `AT%GETACFG="`+altairSleepCfg+`"`, "")
	if err != nil {
		return variant.SleepDisabled, err
	}
	value := strings.Trim(strings.TrimSpace(resp[strings.LastIndex(resp, ":")+1:]), `"`)
	for mode, v := range altairSleepModes {
		if v == value {
			return mode, nil
		}
	}
	return variant.SleepDisabled, fmt.Errorf("unknown sleep mode %q", value)
}

func (altairSleep) SetSleepMode(ctx context.Context, ch channel.Channel, mode variant.SleepMode) error {
	v, ok := altairSleepModes[mode]
	if !ok {
		return fmt.Errorf("%w: sleep mode %s", variant.ErrUnsupported, mode)
	}
	return exec(ctx, ch, fmt.Sprintf(`AT%%SETACFG="%s","%s"`, altairSleepCfg, v), 0)
}

func (altairSleep) IsAsleep(ctx context.Context, ch channel.Channel) (bool, error) {
	return unresponsive(ctx, ch)
}

type altairBands struct{}

func (altairBands) UseLBand(ctx context.Context, ch channel.Channel) error {
	return exec(ctx, ch, fmt.Sprintf(`AT%%SETCFG="BAND","%d"`, altairBand), 0)
}

func (altairBands) Band(ctx context.Context, ch channel.Channel) (int, error) {
	resp, err := query(ctx, ch, `AT%GETCFG="BAND"`, "")
	if err != nil {
		return 0, err
	}
	fields := strings.Split(resp[strings.LastIndex(resp, ":")+1:], ",")
	band, err := strconv.Atoi(strings.Trim(strings.TrimSpace(fields[len(fields)-1]), `"`))
	if err != nil {
		return 0, fmt.Errorf("parse band %q: %w", resp, err)
	}
	return band, nil
}

func (altairBands) Frequency(ctx context.Context, ch channel.Channel) (int, error) {
	resp, err := query(ctx, ch, `AT%PCONI`, "%PCONI:")
	if err != nil {
		return 0, err
	}
	fields := strings.Split(strings.TrimPrefix(resp, "%PCONI:"), ",")
	earfcn, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return 0, fmt.Errorf("parse frequency %q: %w", resp, err)
	}
	return earfcn, nil
}

// AltairSockets drives UDP sockets with %SOCKETCMD and %SOCKETDATA.
type AltairSockets struct{}

func (AltairSockets) Open(ctx context.Context, ch channel.Channel, cid int, ep transport.Endpoint) (int, error) {
	cmd := fmt.Sprintf(`AT%%SOCKETCMD="ALLOCATE",%d,"UDP","OPEN","%s",%d`, cid, ep.Host, ep.Port)
	resp, err := query(ctx, ch, cmd, altairSocketCmd)
	if err != nil {
		return 0, err
	}
	fields := at.Fields(resp, altairSocketCmd)
	if len(fields) == 0 {
		return 0, fmt.Errorf("no socket id in %q", resp)
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("parse socket id %q: %w", resp, err)
	}
	if err := exec(ctx, ch, fmt.Sprintf(`AT%%SOCKETCMD="ACTIVATE",%d`, id), 10*time.Second); err != nil {
		return 0, err
	}
	return id, nil
}

func (AltairSockets) Send(ctx context.Context, ch channel.Channel, s transport.Socket, payload []byte) error {
	cmd := fmt.Sprintf(`AT%%SOCKETDATA="SEND",%d,%d,"%s"`, s.ID, len(payload), hex.EncodeToString(payload))
	return exec(ctx, ch, cmd, 10*time.Second)
}

func (AltairSockets) Receive(ctx context.Context, ch channel.Channel, s transport.Socket, _ string, size int) ([]byte, error) {
	resp, err := query(ctx, ch, fmt.Sprintf(`AT%%SOCKETDATA="RECEIVE",%d,%d`, s.ID, size), altairSocketData)
	if err != nil {
		return nil, err
	}
	// %SOCKETDATA:<id>,<len>,<more>,"<hex>"
	fields := at.Fields(resp, altairSocketData)
	if len(fields) < 4 || fields[3] == "" {
		return nil, nil
	}
	return hex.DecodeString(fields[3])
}

func (AltairSockets) Close(ctx context.Context, ch channel.Channel, s transport.Socket) error {
	return exec(ctx, ch, fmt.Sprintf(`AT%%SOCKETCMD="DELETE",%d`, s.ID), 0)
}

func (AltairSockets) EnableURC(ctx context.Context, ch channel.Channel) error {
	return exec(ctx, ch, "AT%SOCKETEV=1,1", 0)
}
