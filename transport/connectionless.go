package transport

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"i4.energy/across/ntnmodem/at"
	"i4.energy/across/ntnmodem/channel"
	"i4.energy/across/ntnmodem/telemetry"
)

// Connectionless sends and receives control plane (NIDD) payloads.
type Connectionless struct {
	channel channel.Channel
	logger  *slog.Logger

	// Timeout bounds each command. Zero selects channel.DefaultTimeout.
	Timeout time.Duration
}

func NewConnectionless(ch channel.Channel, logger *slog.Logger) *Connectionless {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Connectionless{channel: ch, logger: logger.With("component", "nidd")}
}

// Send submits payload on context cid (DefaultCid when not positive). The
// network gives no delivery confirmation; a nil error only means the modem
// accepted the payload.
func (c *Connectionless) Send(ctx context.Context, payload []byte, cid int) (MoMessage, error) {
	cid = cidOrDefault(cid)
	cmd := fmt.Sprintf(`AT+CSODCP=%d,%d,"%s"`, cid, len(payload), hex.EncodeToString(payload))

	result, err := c.channel.Send(ctx, cmd, c.Timeout)
	if err != nil {
		return MoMessage{}, err
	}
	if result != at.ResultOK {
		c.logger.Warn("NIDD uplink rejected", "cid", cid, "size", len(payload), "result", result)
		return MoMessage{}, fmt.Errorf("%w: %s", ErrSendFailed, result)
	}

	c.logger.Debug("NIDD uplink sent", "cid", cid, "size", len(payload))
	return MoMessage{
		Payload:   payload,
		Transport: telemetry.PdpNonIP,
		Size:      len(payload),
		Cid:       cid,
	}, nil
}

// Receive extracts the downlink payload of a +CRTDCP event line.
func (c *Connectionless) Receive(line string) (MtMessage, error) {
	payload := telemetry.DecodeNiddPayload(line)
	if payload == nil {
		c.logger.Warn("No NIDD payload in event", "urc", line)
		return MtMessage{}, ErrNoMessage
	}
	msg := MtMessage{
		Payload:   payload,
		Transport: telemetry.PdpNonIP,
		Size:      len(payload),
		Cid:       DefaultCid,
	}
	if cid, ok := telemetry.DecodeNiddContext(line); ok {
		msg.Cid = cid
	}
	return msg, nil
}

// EnableURC turns unsolicited reporting of NIDD downlink on or off.
func (c *Connectionless) EnableURC(ctx context.Context, enable bool) error {
	mode := 0
	if enable {
		mode = 1
	}
	result, err := c.channel.Send(ctx, fmt.Sprintf("AT+CRTDCP=%d", mode), c.Timeout)
	if err != nil {
		return err
	}
	if result != at.ResultOK {
		return fmt.Errorf("%w: AT+CRTDCP=%d returned %s", ErrSendFailed, mode, result)
	}
	return nil
}
