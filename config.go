package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

// Config holds the application configuration
type Config struct {
	// BindAddress is the address the server listens on (e.g. "0.0.0.0:8080")
	BindAddress string
	// SerialPort is the path to the modem's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string
	// BaudRate is the baud rate for serial communication with the modem (e.g. 115200)
	BaudRate int
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string
	// SimPIN is the PIN entered when the SIM is locked
	SimPIN string
	// APN is the access point name of the NTN subscription
	APN string
	// PdnType is the PDN type to attach with ("NON-IP", "IP", ...)
	PdnType string
	// UDPServer and UDPPort are the default destination of UDP uplinks
	UDPServer string
	UDPPort   int
	// InitFile optionally replaces the attach sequence of the modem variant
	InitFile string
	// VariantDir holds YAML variant files loaded at startup
	VariantDir string
	// InitNTN runs the attach sequence at startup
	InitNTN bool
	// TransmitInterval is the period of the status uplink; zero disables it
	TransmitInterval time.Duration
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:8080"
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 115200
		c.LogLevel = "info"
		c.PdnType = "NON-IP"
		c.InitNTN = true
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		for key, apply := range envKeys {
			if v := os.Getenv(key); v != "" {
				if err := apply(c, v); err != nil {
					return fmt.Errorf("%s: %w", key, err)
				}
			}
		}
		return nil
	}
}

// WithFlags loads configuration from command-line flags that were set
func WithFlags(fSet *pflag.FlagSet) ConfigOption {
	return func(c *Config) error {
		var err error
		fSet.Visit(func(f *pflag.Flag) {
			apply, ok := flagKeys[f.Name]
			if !ok || err != nil {
				return
			}
			if e := apply(c, f.Value.String()); e != nil {
				err = fmt.Errorf("--%s: %w", f.Name, e)
			}
		})
		return err
	}
}

// RegisterFlags defines the configuration flags on fSet.
func RegisterFlags(fSet *pflag.FlagSet) {
	fSet.String("serial-port", "/dev/ttyUSB0", "Serial port to connect to the modem")
	fSet.Int("baud-rate", 115200, "Baud rate for serial communication")
	fSet.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	fSet.String("log-level", "info", "Log level (debug, info, warn, error)")
	fSet.String("sim-pin", "", "SIM PIN, if the SIM is locked")
	fSet.String("apn", "", "Access point name of the NTN subscription")
	fSet.String("pdn-type", "NON-IP", "PDN type (NON-IP, IP, IPV6, IPV4V6)")
	fSet.String("udp-server", "", "Default UDP server for socket uplinks")
	fSet.Int("udp-port", 0, "Default UDP port for socket uplinks")
	fSet.String("init-file", "", "YAML attach sequence replacing the variant's own")
	fSet.String("variant-dir", "", "Directory of YAML modem variants")
	fSet.Bool("init-ntn", true, "Run the attach sequence at startup")
	fSet.Duration("transmit-interval", 0, "Period of the status uplink (0 disables)")
}

type setter func(*Config, string) error

func stringSetter(field func(*Config) *string) setter {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func intSetter(field func(*Config) *int) setter {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

var flagKeys = map[string]setter{
	"bind-address": stringSetter(func(c *Config) *string { return &c.BindAddress }),
	"serial-port":  stringSetter(func(c *Config) *string { return &c.SerialPort }),
	"baud-rate":    intSetter(func(c *Config) *int { return &c.BaudRate }),
	"log-level":    stringSetter(func(c *Config) *string { return &c.LogLevel }),
	"sim-pin":      stringSetter(func(c *Config) *string { return &c.SimPIN }),
	"apn":          stringSetter(func(c *Config) *string { return &c.APN }),
	"pdn-type":     stringSetter(func(c *Config) *string { return &c.PdnType }),
	"udp-server":   stringSetter(func(c *Config) *string { return &c.UDPServer }),
	"udp-port":     intSetter(func(c *Config) *int { return &c.UDPPort }),
	"init-file":    stringSetter(func(c *Config) *string { return &c.InitFile }),
	"variant-dir":  stringSetter(func(c *Config) *string { return &c.VariantDir }),
	"init-ntn": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.InitNTN = b
		return nil
	},
	"transmit-interval": func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.TransmitInterval = d
		return nil
	},
}

var envKeys = map[string]setter{
	"BIND_ADDRESS":      flagKeys["bind-address"],
	"SERIAL_PORT":       flagKeys["serial-port"],
	"BAUD_RATE":         flagKeys["baud-rate"],
	"LOG_LEVEL":         flagKeys["log-level"],
	"SIM_PIN":           flagKeys["sim-pin"],
	"APN":               flagKeys["apn"],
	"PDN_TYPE":          flagKeys["pdn-type"],
	"UDP_SERVER":        flagKeys["udp-server"],
	"UDP_PORT":          flagKeys["udp-port"],
	"INIT_FILE":         flagKeys["init-file"],
	"VARIANT_DIR":       flagKeys["variant-dir"],
	"INIT_NTN":          flagKeys["init-ntn"],
	"TRANSMIT_INTERVAL": flagKeys["transmit-interval"],
}
