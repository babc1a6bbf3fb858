package modem

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"i4.energy/across/ntnmodem/at"
	"i4.energy/across/ntnmodem/channel"
)

// PollConfig defines how SIM readiness is polled.
type PollConfig struct {
	// Interval is the time between polling attempts
	Interval time.Duration
	// Timeout is the maximum time to wait for the SIM
	Timeout time.Duration
	// MaxRetries is the maximum number of polling attempts
	MaxRetries int
}

func (p PollConfig) withDefaults() PollConfig {
	if p.Interval <= 0 {
		p.Interval = 500 * time.Millisecond
	}
	if p.Timeout <= 0 {
		p.Timeout = 30 * time.Second
	}
	if p.MaxRetries <= 0 {
		p.MaxRetries = int(p.Timeout / p.Interval)
	}
	return p
}

// simStatus returns the SIM state reported by AT+CPIN?, for example
// READY or SIM PIN.
func (m *Modem) simStatus(ctx context.Context) (string, error) {
	resp, err := m.query(ctx, at.CmdSimStatus, at.RespSim, 0)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.TrimPrefix(resp, at.RespSim)), nil
}

// unlockSIM brings the SIM to READY, entering the configured PIN when
// the SIM asks for one.
func (m *Modem) unlockSIM(ctx context.Context) error {
	status, err := m.simStatus(ctx)
	if errors.Is(err, channel.ErrDisconnected) {
		return err
	}
	switch {
	case err != nil:
		// Some modules answer ERROR until the SIM has booted.
		m.logger.Debug("SIM status unavailable, polling", "error", err)
		return m.waitForSIMReady(ctx)

	case status == at.SimReady:
		return nil

	case status == at.SimPin:
		if m.config.simPIN == "" {
			return ErrSIMPinRequired
		}
		// Sent directly so a failed entry does not log the PIN.
		m.logger.Info("Entering SIM PIN")
		result, err := m.channel.Send(ctx, fmt.Sprintf(at.CmdSimPin, m.config.simPIN), m.config.atTimeout)
		if err != nil {
			return fmt.Errorf("enter SIM PIN: %w", err)
		}
		if result != at.ResultOK {
			return fmt.Errorf("%w: SIM PIN entry returned %s", ErrCommandFailed, result)
		}
		return m.waitForSIMReady(ctx)

	default:
		return fmt.Errorf("%w: unsupported SIM state %q", ErrSIMNotReady, status)
	}
}

// waitForSIMReady polls the SIM status until it reports READY.
func (m *Modem) waitForSIMReady(ctx context.Context) error {
	poll := m.config.simPoll
	for range poll.MaxRetries {
		if err := m.config.clock.Sleep(ctx, poll.Interval); err != nil {
			return fmt.Errorf("%w: %w", ErrSIMNotReady, err)
		}
		status, err := m.simStatus(ctx)
		if err != nil {
			if errors.Is(err, channel.ErrDisconnected) {
				return fmt.Errorf("SIM status check failed: %w", err)
			}
			continue
		}
		if status == at.SimReady {
			m.logger.Info("SIM ready")
			return nil
		}
	}
	return fmt.Errorf("%w after %d retries", ErrSIMNotReady, poll.MaxRetries)
}
