package modem

import (
	"errors"
	"fmt"

	"i4.energy/across/ntnmodem/variant"
)

var (
	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer (or an already open
	// channel) is required in order to talk to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrAlreadyClosed is returned when Close is called on a Modem that has
	// already been closed.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrNotResponding is returned by New when the modem does not answer
	// the initial AT.
	ErrNotResponding = errors.New("modem not responding")

	// ErrInvalidConfig is the InvalidConfiguration error. Values rejected
	// with it are never sent to the modem. The concrete error is a
	// *ConfigError naming the field.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrCommandFailed is returned when a query or setter did not get OK.
	//
	// The wrapping error names the command and the result code. Timeouts
	// are reported the same way; the channel stays usable.
	ErrCommandFailed = errors.New("command failed")

	// ErrNotRegistered is returned by AwaitRegistration when the modem did
	// not register with the home or a roaming network in time.
	ErrNotRegistered = errors.New("not registered")

	// ErrSIMPinRequired is returned by InitializeNTN when the SIM asks for
	// a PIN and none was configured.
	//
	// Callers may prompt the user for a PIN and retry with WithSimPIN.
	ErrSIMPinRequired = errors.New("SIM PIN required")

	// ErrSIMNotReady is returned when the SIM did not report READY within
	// the poll timeout, or reported a state that cannot be unlocked.
	ErrSIMNotReady = errors.New("SIM not ready")

	// ErrUnsupported is returned by operations the modem variant does not
	// provide, for example sleep control on the generic variant.
	ErrUnsupported = variant.ErrUnsupported
)

// ConfigError describes a rejected configuration value.
type ConfigError struct {
	Field   string
	Value   any
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}
