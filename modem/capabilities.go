package modem

import (
	"context"
	"fmt"

	"i4.energy/across/ntnmodem/variant"
)

func unsupported(what string, v variant.Variant) error {
	return fmt.Errorf("%w: %s on %s", ErrUnsupported, what, v.Name)
}

// SleepMode returns the configured sleep mode.
func (m *Modem) SleepMode(ctx context.Context) (variant.SleepMode, error) {
	sc := m.variant.Overrides.Sleep
	if sc == nil {
		return variant.SleepDisabled, unsupported("sleep control", m.variant)
	}
	release, err := m.acquire()
	if err != nil {
		return variant.SleepDisabled, err
	}
	defer release()
	return sc.SleepMode(ctx, m.channel)
}

// SetSleepMode configures the sleep mode.
func (m *Modem) SetSleepMode(ctx context.Context, mode variant.SleepMode) error {
	sc := m.variant.Overrides.Sleep
	if sc == nil {
		return unsupported("sleep control", m.variant)
	}
	release, err := m.acquire()
	if err != nil {
		return err
	}
	defer release()

	if err := sc.SetSleepMode(ctx, m.channel, mode); err != nil {
		return err
	}
	m.logger.Info("Sleep mode set", "mode", mode)
	return nil
}

// IsAsleep reports whether the modem is in a sleep state.
func (m *Modem) IsAsleep(ctx context.Context) (bool, error) {
	sc := m.variant.Overrides.Sleep
	if sc == nil {
		return false, unsupported("sleep control", m.variant)
	}
	release, err := m.acquire()
	if err != nil {
		return false, err
	}
	defer release()
	return sc.IsAsleep(ctx, m.channel)
}

// Location returns the position reported by the modem.
func (m *Modem) Location(ctx context.Context) (variant.Location, error) {
	ls := m.variant.Overrides.Location
	if ls == nil {
		return variant.Location{}, unsupported("location", m.variant)
	}
	release, err := m.acquire()
	if err != nil {
		return variant.Location{}, err
	}
	defer release()
	return ls.Location(ctx, m.channel)
}

// SetLocation supplies a position to modems that need one for NTN timing
// advance.
func (m *Modem) SetLocation(ctx context.Context, loc variant.Location) error {
	ls := m.variant.Overrides.Location
	if ls == nil {
		return unsupported("location", m.variant)
	}
	release, err := m.acquire()
	if err != nil {
		return err
	}
	defer release()
	return ls.SetLocation(ctx, m.channel, loc)
}

// UseLBand restricts network scans to the L-band.
func (m *Modem) UseLBand(ctx context.Context) error {
	bc := m.variant.Overrides.Bands
	if bc == nil {
		return unsupported("band control", m.variant)
	}
	release, err := m.acquire()
	if err != nil {
		return err
	}
	defer release()
	return bc.UseLBand(ctx, m.channel)
}

// Band returns the band in use.
func (m *Modem) Band(ctx context.Context) (int, error) {
	bc := m.variant.Overrides.Bands
	if bc == nil {
		return 0, unsupported("band control", m.variant)
	}
	release, err := m.acquire()
	if err != nil {
		return 0, err
	}
	defer release()
	return bc.Band(ctx, m.channel)
}

// Frequency returns the EARFCN of the serving cell.
func (m *Modem) Frequency(ctx context.Context) (int, error) {
	bc := m.variant.Overrides.Bands
	if bc == nil {
		return 0, unsupported("band control", m.variant)
	}
	release, err := m.acquire()
	if err != nil {
		return 0, err
	}
	defer release()
	return bc.Frequency(ctx, m.channel)
}
