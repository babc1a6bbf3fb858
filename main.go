package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"i4.energy/across/ntnmodem/channel"
	"i4.energy/across/ntnmodem/initseq"
	"i4.energy/across/ntnmodem/modem"
	"i4.energy/across/ntnmodem/telemetry"
	"i4.energy/across/ntnmodem/variant/builtin"
	"i4.energy/across/ntnmodem/variant/loader"
)

const registrationTimeout = 5 * time.Minute

func main() {
	RegisterFlags(pflag.CommandLine)
	pflag.Parse()

	config, err := LoadConfig(WithDefaults(), WithEnv(), WithFlags(pflag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	if err := run(config, logger); err != nil {
		logger.Error("Gateway stopped", "error", err)
		os.Exit(1)
	}
}

func run(config *Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := builtin.NewRegistry()
	if config.VariantDir != "" {
		names, err := loader.LoadDir(registry, config.VariantDir, logger.With("component", "loader"))
		if err != nil {
			return fmt.Errorf("loading variants: %w", err)
		}
		logger.Info("Loaded modem variants", "dir", config.VariantDir, "variants", names)
	}

	pdpType := telemetry.ParsePdpType(config.PdnType)
	if pdpType == telemetry.PdpUnknown {
		return fmt.Errorf("unknown PDN type %q", config.PdnType)
	}
	modemConfig, err := modem.NewConfigBuilder().
		WithDialer(channel.SerialDialer{
			PortName: config.SerialPort,
			Options:  channel.PortOptions{BaudRate: config.BaudRate},
		}).
		WithRegistry(registry).
		WithLogger(logger).
		WithSimPIN(config.SimPIN).
		WithAPN(config.APN).
		WithPdpType(pdpType).
		WithUDPServer(config.UDPServer, config.UDPPort).
		Build()
	if err != nil {
		return fmt.Errorf("creating modem config: %w", err)
	}

	m, err := modem.New(ctx, modemConfig)
	if err != nil {
		return fmt.Errorf("creating modem: %w", err)
	}
	defer func() {
		logger.Info("Closing modem connection")
		if err := m.Close(); err != nil {
			logger.Error("Failed to close modem", "error", err)
		}
	}()

	logger.Info("Starting NTN gateway", "variant", m.Variant(), "session", m.Session())

	if config.InitNTN {
		if err := attach(ctx, m, config, logger); err != nil {
			return err
		}
	}

	gateway := &Gateway{
		Modem:            m,
		Logger:           logger.With("component", "gateway"),
		TransmitInterval: config.TransmitInterval,
	}
	httpServer := &http.Server{
		Addr: config.BindAddress,
		Handler: &Server{
			Logger:  logger.With("component", "server"),
			Gateway: gateway,
		},
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return gateway.Run(gCtx)
	})
	g.Go(func() error {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Closing HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// attach runs the attach sequence and waits for network registration.
func attach(ctx context.Context, m *modem.Modem, config *Config, logger *slog.Logger) error {
	var seq initseq.Sequence
	if config.InitFile != "" {
		s, err := initseq.Load(config.InitFile)
		if err != nil {
			return fmt.Errorf("loading attach sequence: %w", err)
		}
		seq = s
	}

	if err := m.InitializeNTN(ctx, seq); err != nil {
		return fmt.Errorf("attaching to NTN: %w", err)
	}
	if err := m.SetRegConfig(ctx, 5); err != nil {
		logger.Warn("Failed to enable registration reports", "error", err)
	}
	if m.PdpType() == telemetry.PdpNonIP {
		if err := m.EnableNIDDURC(ctx, true); err != nil {
			logger.Warn("Failed to enable NIDD reports", "error", err)
		}
	} else if err := m.EnableUDPURC(ctx); err != nil {
		logger.Warn("Failed to enable socket reports", "error", err)
	}

	reg, err := m.AwaitRegistration(ctx, registrationTimeout)
	if errors.Is(err, modem.ErrNotRegistered) {
		logger.Warn("Modem not registered yet, continuing", "state", reg.State, "waited", registrationTimeout)
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("Modem registered", "state", reg.State, "tac", reg.TrackingArea, "cell", reg.CellID)
	return nil
}
