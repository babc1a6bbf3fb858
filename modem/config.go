package modem

import (
	"log/slog"
	"time"

	"i4.energy/across/ntnmodem/channel"
	"i4.energy/across/ntnmodem/telemetry"
	"i4.energy/across/ntnmodem/timeutil"
	"i4.energy/across/ntnmodem/transport"
	"i4.energy/across/ntnmodem/variant"
)

// Config holds the settings of a Modem. Build it with a ConfigBuilder.
type Config struct {
	dialer    channel.Dialer
	channel   channel.Channel
	registry  *variant.Registry
	logger    *slog.Logger
	clock     timeutil.Clock
	gpio      func(time.Duration)
	atTimeout time.Duration
	simPIN    string
	simPoll   PollConfig

	apn       string
	pdpType   telemetry.PdpType
	udpServer string
	udpPort   int
}

func (c *Config) validate() error {
	if c.dialer == nil && c.channel == nil {
		return ErrNoDialer
	}
	if err := validateAPN(c.apn); err != nil {
		return err
	}
	if c.udpServer != "" && !transport.ValidHost(c.udpServer) {
		return &ConfigError{Field: "udp server", Value: c.udpServer, Message: "not an IP address or hostname"}
	}
	if c.udpPort != 0 && !transport.ValidPort(c.udpPort) {
		return &ConfigError{Field: "udp port", Value: c.udpPort, Message: "out of range"}
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	c.clock = timeutil.Or(c.clock)
	if c.atTimeout == 0 {
		c.atTimeout = channel.DefaultTimeout
	}
	if c.pdpType == telemetry.PdpUnknown {
		c.pdpType = telemetry.PdpNonIP
	}
	c.simPoll = c.simPoll.withDefaults()
}

// ConfigBuilder assembles a Config.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

// WithDialer sets the dialer that opens the modem transport.
func (b *ConfigBuilder) WithDialer(d channel.Dialer) *ConfigBuilder {
	b.config.dialer = d
	return b
}

// WithChannel uses an already open channel instead of dialing.
func (b *ConfigBuilder) WithChannel(ch channel.Channel) *ConfigBuilder {
	b.config.channel = ch
	return b
}

// WithRegistry sets the variants to resolve against. Without one the
// generic variant is used.
func (b *ConfigBuilder) WithRegistry(r *variant.Registry) *ConfigBuilder {
	b.config.registry = r
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.logger = l
	return b
}

func (b *ConfigBuilder) WithClock(c timeutil.Clock) *ConfigBuilder {
	b.config.clock = c
	return b
}

// WithGPIO sets the hook driving hardware steps of init sequences.
func (b *ConfigBuilder) WithGPIO(fn func(time.Duration)) *ConfigBuilder {
	b.config.gpio = fn
	return b
}

// WithATTimeout sets the timeout of queries and setters.
func (b *ConfigBuilder) WithATTimeout(d time.Duration) *ConfigBuilder {
	b.config.atTimeout = d
	return b
}

// WithSimPIN sets the PIN entered when the SIM asks for one.
func (b *ConfigBuilder) WithSimPIN(pin string) *ConfigBuilder {
	b.config.simPIN = pin
	return b
}

// WithSimPoll sets how long InitializeNTN waits for the SIM to become
// ready.
func (b *ConfigBuilder) WithSimPoll(p PollConfig) *ConfigBuilder {
	b.config.simPoll = p
	return b
}

func (b *ConfigBuilder) WithAPN(apn string) *ConfigBuilder {
	b.config.apn = apn
	return b
}

// WithPdpType sets the PDN type. Defaults to NON-IP.
func (b *ConfigBuilder) WithPdpType(t telemetry.PdpType) *ConfigBuilder {
	b.config.pdpType = t
	return b
}

// WithUDPServer sets the default endpoint of socket sends.
func (b *ConfigBuilder) WithUDPServer(host string, port int) *ConfigBuilder {
	b.config.udpServer = host
	b.config.udpPort = port
	return b
}

// Build validates and returns the Config.
func (b *ConfigBuilder) Build() (Config, error) {
	c := b.config
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	c.setDefaults()
	return c, nil
}
