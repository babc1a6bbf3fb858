package variant

import (
	"context"

	"i4.energy/across/ntnmodem/channel"
)

// SleepMode is the low power mode the modem may enter while idle.
type SleepMode int

const (
	SleepDisabled SleepMode = iota
	SleepLight
	SleepDeep
)

func (m SleepMode) String() string {
	switch m {
	case SleepLight:
		return "light"
	case SleepDeep:
		return "deep"
	default:
		return "disabled"
	}
}

// Location is a fixed position of the terminal, in decimal degrees and
// metres.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// SleepControl manages the vendor sleep configuration.
type SleepControl interface {
	SleepMode(ctx context.Context, ch channel.Channel) (SleepMode, error)
	SetSleepMode(ctx context.Context, ch channel.Channel, mode SleepMode) error
	IsAsleep(ctx context.Context, ch channel.Channel) (bool, error)
}

// LocationSource reads or sets the position the modem reports to the
// network. NTN attach needs it to compensate for satellite doppler.
type LocationSource interface {
	Location(ctx context.Context, ch channel.Channel) (Location, error)
	SetLocation(ctx context.Context, ch channel.Channel, loc Location) error
}

// BandControl restricts the radio to NTN bands.
type BandControl interface {
	// UseLBand locks the radio to the L-band (3GPP band 255).
	UseLBand(ctx context.Context, ch channel.Channel) error
	Band(ctx context.Context, ch channel.Channel) (int, error)
	// Frequency returns the EARFCN of the serving cell.
	Frequency(ctx context.Context, ch channel.Channel) (int, error)
}
