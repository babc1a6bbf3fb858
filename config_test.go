package main

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		config, err := LoadConfig(WithDefaults())
		require.NoError(t, err)

		want := &Config{
			BindAddress: "0.0.0.0:8080",
			SerialPort:  "/dev/ttyUSB0",
			BaudRate:    115200,
			LogLevel:    "info",
			PdnType:     "NON-IP",
			InitNTN:     true,
		}
		if diff := cmp.Diff(want, config); diff != "" {
			t.Errorf("config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Environment overrides defaults", func(t *testing.T) {
		t.Setenv("SERIAL_PORT", "/dev/ttyACM1")
		t.Setenv("BAUD_RATE", "9600")
		t.Setenv("APN", "viasat.poc")
		t.Setenv("SIM_PIN", "1234")
		t.Setenv("INIT_NTN", "false")
		t.Setenv("TRANSMIT_INTERVAL", "15m")

		config, err := LoadConfig(WithDefaults(), WithEnv())
		require.NoError(t, err)
		assert.Equal(t, "/dev/ttyACM1", config.SerialPort)
		assert.Equal(t, 9600, config.BaudRate)
		assert.Equal(t, "viasat.poc", config.APN)
		assert.Equal(t, "1234", config.SimPIN)
		assert.False(t, config.InitNTN)
		assert.Equal(t, 15*time.Minute, config.TransmitInterval)
		assert.Equal(t, "0.0.0.0:8080", config.BindAddress)
	})

	t.Run("Flags override environment", func(t *testing.T) {
		t.Setenv("UDP_SERVER", "198.51.100.1")
		t.Setenv("UDP_PORT", "5683")

		fSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
		RegisterFlags(fSet)
		require.NoError(t, fSet.Parse([]string{"--udp-server=ntn.example.com", "--pdn-type", "IP", "--log-level=debug"}))

		config, err := LoadConfig(WithDefaults(), WithEnv(), WithFlags(fSet))
		require.NoError(t, err)
		assert.Equal(t, "ntn.example.com", config.UDPServer)
		assert.Equal(t, 5683, config.UDPPort)
		assert.Equal(t, "IP", config.PdnType)
		assert.Equal(t, "debug", config.LogLevel)
		// Unset flags keep their earlier value.
		assert.Equal(t, "/dev/ttyUSB0", config.SerialPort)
	})

	t.Run("Invalid values", func(t *testing.T) {
		t.Setenv("UDP_PORT", "five")

		_, err := LoadConfig(WithDefaults(), WithEnv())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "UDP_PORT")
	})
}
