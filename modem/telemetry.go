package modem

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"i4.energy/across/ntnmodem/at"
	"i4.energy/across/ntnmodem/telemetry"
)

const (
	// radioTimeout bounds AT+CFUN while reconfiguring a context.
	radioTimeout = 30 * time.Second
	imsiTimeout  = 5 * time.Second
	debugTimeout = 15 * time.Second
)

// debugCommands are the 3GPP TS 27.007 queries logged by ReportDebug.
var debugCommands = []string{
	at.CmdInfo,
	at.CmdFirmware,
	at.CmdIMSI,
	at.CmdIMEI,
	at.CmdFunctionality,
	at.CmdRegistration,
	at.CmdContexts,
	at.CmdAddresses,
	at.CmdPsm,
	at.CmdEdrx,
	at.CmdEdrxGranted,
	at.CmdNiddReporting,
	at.CmdConnection,
	at.CmdSignal,
}

// RegInfo queries the registration status.
func (m *Modem) RegInfo(ctx context.Context) (telemetry.RegInfo, error) {
	release, err := m.acquire()
	if err != nil {
		return telemetry.RegInfo{State: telemetry.RegUnknown}, err
	}
	defer release()
	return m.regInfo(ctx)
}

func (m *Modem) regInfo(ctx context.Context) (telemetry.RegInfo, error) {
	resp, err := m.query(ctx, at.CmdRegistration, at.UrcRegistration, 0)
	if err != nil {
		return telemetry.RegInfo{State: telemetry.RegUnknown}, err
	}
	return telemetry.DecodeRegInfo(resp, true), nil
}

// RegConfig returns the +CEREG reporting level.
func (m *Modem) RegConfig(ctx context.Context) (int, error) {
	release, err := m.acquire()
	if err != nil {
		return 0, err
	}
	defer release()

	resp, err := m.query(ctx, at.CmdRegistration, at.UrcRegistration, 0)
	if err != nil {
		return 0, err
	}
	n, ok := telemetry.DecodeRegConfig(resp)
	if !ok {
		return 0, fmt.Errorf("%w: no reporting level in %q", ErrCommandFailed, resp)
	}
	return n, nil
}

// SetRegConfig sets the +CEREG reporting level, 0 to 5.
func (m *Modem) SetRegConfig(ctx context.Context, level int) error {
	if level < 0 || level > 5 {
		return &ConfigError{Field: "registration reporting", Value: level, Message: "must be 0 to 5"}
	}
	release, err := m.acquire()
	if err != nil {
		return err
	}
	defer release()
	return m.exec(ctx, fmt.Sprintf("AT+CEREG=%d", level), 0)
}

// SigInfo queries the extended signal quality.
func (m *Modem) SigInfo(ctx context.Context) (telemetry.SigInfo, error) {
	release, err := m.acquire()
	if err != nil {
		return telemetry.SigInfo{}, err
	}
	defer release()
	return m.sigInfo(ctx)
}

func (m *Modem) sigInfo(ctx context.Context) (telemetry.SigInfo, error) {
	resp, err := m.query(ctx, at.CmdSignal, at.UrcSignalQuality, 0)
	if err != nil {
		return telemetry.SigInfo{}, err
	}
	return telemetry.DecodeSigInfo(resp), nil
}

// SignalQuality returns signal bars derived from SINR. Without a SINR the
// quality is QualityNone.
func (m *Modem) SignalQuality(ctx context.Context) (telemetry.SignalQuality, error) {
	info, err := m.SigInfo(ctx)
	if err != nil {
		return telemetry.QualityNone, err
	}
	if info.SINR == nil {
		return telemetry.QualityNone, nil
	}
	return telemetry.QualityFromSINR(*info.SINR), nil
}

// Contexts returns the configured packet data contexts.
func (m *Modem) Contexts(ctx context.Context) ([]telemetry.PdpContext, error) {
	release, err := m.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return m.contexts(ctx)
}

func (m *Modem) contexts(ctx context.Context) ([]telemetry.PdpContext, error) {
	if err := m.exec(ctx, at.CmdContexts, 0); err != nil {
		return nil, err
	}
	resp, _ := m.channel.ReadResponse(at.RespContext)
	return telemetry.DecodePdpContexts(resp), nil
}

// SetContext configures a packet data context. The radio is switched off
// while the context changes; a context already configured as requested is
// left untouched.
func (m *Modem) SetContext(ctx context.Context, c telemetry.PdpContext) error {
	if err := validateAPN(c.APN); err != nil {
		return err
	}
	if c.Type == telemetry.PdpUnknown {
		return &ConfigError{Field: "pdp type", Value: c.Type, Message: "unknown type"}
	}
	if c.ID <= 0 {
		c.ID = 1
	}
	release, err := m.acquire()
	if err != nil {
		return err
	}
	defer release()

	current, err := m.contexts(ctx)
	if err != nil {
		return err
	}
	for _, existing := range current {
		if existing.ID == c.ID && existing.Type == c.Type && existing.APN == c.APN {
			m.logger.Debug("Context already configured", "cid", c.ID)
			return nil
		}
	}

	if err := m.exec(ctx, at.CmdRadioOff, radioTimeout); err != nil {
		return fmt.Errorf("disable radio: %w", err)
	}
	if err := m.exec(ctx, c.Command(), 0); err != nil {
		return err
	}
	if err := m.exec(ctx, at.CmdRadioOn, radioTimeout); err != nil {
		return fmt.Errorf("enable radio: %w", err)
	}
	m.logger.Info("Context configured", "cid", c.ID, "type", c.Type, "apn", c.APN)
	return nil
}

// IPAddress returns the address assigned to the first context, or "" when
// none is assigned.
func (m *Modem) IPAddress(ctx context.Context) (string, error) {
	contexts, err := m.Contexts(ctx)
	if err != nil {
		return "", err
	}
	if len(contexts) == 0 {
		return "", nil
	}
	return contexts[0].Address, nil
}

// PsmConfig returns the requested power save mode settings.
func (m *Modem) PsmConfig(ctx context.Context) (telemetry.PsmConfig, error) {
	release, err := m.acquire()
	if err != nil {
		return telemetry.PsmConfig{}, err
	}
	defer release()

	resp, err := m.query(ctx, at.CmdPsm, at.RespPsm, 0)
	if err != nil {
		return telemetry.PsmConfig{}, err
	}
	return telemetry.DecodePsmConfig(resp), nil
}

// SetPsmConfig requests power save mode settings. A disabled config turns
// PSM off.
func (m *Modem) SetPsmConfig(ctx context.Context, c telemetry.PsmConfig) error {
	if c.Enabled && (!isBitmask(c.PeriodicTimer) || !isBitmask(c.ActiveTimer)) {
		return &ConfigError{Field: "psm timers", Value: c, Message: "timers must be 8-bit bitmasks"}
	}
	release, err := m.acquire()
	if err != nil {
		return err
	}
	defer release()
	return m.exec(ctx, c.Command(), 0)
}

// EdrxConfig returns the requested eDRX settings.
func (m *Modem) EdrxConfig(ctx context.Context) (telemetry.EdrxConfig, error) {
	release, err := m.acquire()
	if err != nil {
		return telemetry.EdrxConfig{}, err
	}
	defer release()

	resp, err := m.query(ctx, at.CmdEdrx, at.RespEdrx, 0)
	if err != nil {
		return telemetry.EdrxConfig{}, err
	}
	return telemetry.DecodeEdrxRequested(resp), nil
}

// SetEdrxConfig requests an eDRX cycle. An empty cycle turns eDRX off.
func (m *Modem) SetEdrxConfig(ctx context.Context, c telemetry.EdrxConfig) error {
	if c.Cycle != "" && !isNibble(c.Cycle) {
		return &ConfigError{Field: "edrx cycle", Value: c.Cycle, Message: "must be a 4-bit bitmask"}
	}
	release, err := m.acquire()
	if err != nil {
		return err
	}
	defer release()
	return m.exec(ctx, c.Command(), 0)
}

// EdrxGranted returns the eDRX parameters granted by the network.
func (m *Modem) EdrxGranted(ctx context.Context) (telemetry.EdrxConfig, error) {
	release, err := m.acquire()
	if err != nil {
		return telemetry.EdrxConfig{}, err
	}
	defer release()

	resp, err := m.query(ctx, at.CmdEdrxGranted, at.RespEdrxGranted, 0)
	if err != nil {
		return telemetry.EdrxConfig{}, err
	}
	return telemetry.DecodeEdrxGranted(resp), nil
}

// IMSI returns the subscriber identity of the SIM.
func (m *Modem) IMSI(ctx context.Context) (string, error) {
	return m.plainQuery(ctx, at.CmdIMSI, imsiTimeout)
}

// IMEI returns the equipment identity.
func (m *Modem) IMEI(ctx context.Context) (string, error) {
	release, err := m.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	resp, err := m.query(ctx, at.CmdIMEI, at.RespIMEI, 0)
	if err != nil {
		return "", err
	}
	fields := at.Fields(resp, at.RespIMEI)
	if len(fields) == 0 || fields[0] == "" {
		return "", fmt.Errorf("%w: empty IMEI", ErrCommandFailed)
	}
	return fields[0], nil
}

// FirmwareVersion returns the firmware revision text.
func (m *Modem) FirmwareVersion(ctx context.Context) (string, error) {
	return m.plainQuery(ctx, at.CmdFirmware, 0)
}

// plainQuery returns the unprefixed response of cmd.
func (m *Modem) plainQuery(ctx context.Context, cmd string, timeout time.Duration) (string, error) {
	release, err := m.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	if err := m.exec(ctx, cmd, timeout); err != nil {
		return "", err
	}
	resp, _ := m.channel.ReadResponse("")
	resp = strings.TrimSpace(resp)
	if resp == "" {
		return "", fmt.Errorf("%w: %s returned no response", ErrCommandFailed, cmd)
	}
	return resp, nil
}

// ErrorMode returns the +CMEE error reporting mode.
func (m *Modem) ErrorMode(ctx context.Context) (int, error) {
	release, err := m.acquire()
	if err != nil {
		return 0, err
	}
	defer release()

	resp, err := m.query(ctx, at.CmdErrorMode, at.RespErrorMode, 0)
	if err != nil {
		return 0, err
	}
	fields := at.Fields(resp, at.RespErrorMode)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty error mode", ErrCommandFailed)
	}
	mode, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("%w: error mode %q", ErrCommandFailed, fields[0])
	}
	return mode, nil
}

// LastError returns the extended error report of the last failed call or
// network procedure.
func (m *Modem) LastError(ctx context.Context) (string, error) {
	release, err := m.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	resp, err := m.query(ctx, at.CmdLastError, at.RespLastError, 0)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.TrimPrefix(resp, at.RespLastError)), nil
}

// SetErrorMode sets the +CMEE error reporting mode, 0 to 2.
func (m *Modem) SetErrorMode(ctx context.Context, mode int) error {
	if mode < 0 || mode > 2 {
		return &ConfigError{Field: "error mode", Value: mode, Message: "must be 0 to 2"}
	}
	release, err := m.acquire()
	if err != nil {
		return err
	}
	defer release()
	return m.exec(ctx, fmt.Sprintf("AT+CMEE=%d", mode), 0)
}

// RRCConnected reports whether a radio signalling connection is up.
func (m *Modem) RRCConnected(ctx context.Context) (bool, error) {
	release, err := m.acquire()
	if err != nil {
		return false, err
	}
	defer release()

	resp, err := m.query(ctx, at.CmdConnection, at.RespConnection, 0)
	if err != nil {
		return false, err
	}
	fields := at.Fields(resp, at.RespConnection)
	return len(fields) > 1 && fields[1] == "1", nil
}

// ReportDebug logs the result of the standard diagnostic queries, the
// variant's own queries and extra. Failed queries are logged and skipped.
func (m *Modem) ReportDebug(ctx context.Context, extra ...string) error {
	release, err := m.acquire()
	if err != nil {
		return err
	}
	defer release()

	commands := append(append(append([]string(nil), debugCommands...), m.variant.Overrides.DebugCommands...), extra...)
	for _, cmd := range commands {
		result, err := m.channel.Send(ctx, cmd, debugTimeout)
		if err != nil {
			return err
		}
		resp, _ := m.channel.ReadResponse("")
		if result != at.ResultOK {
			m.logger.Error("Debug query failed", "command", cmd, "result", result)
			continue
		}
		m.logger.Info("Debug query", "command", cmd, "response", resp)
	}
	return nil
}

func isBitmask(s string) bool {
	return len(s) == 8 && strings.Trim(s, "01") == ""
}

func isNibble(s string) bool {
	return len(s) == 4 && strings.Trim(s, "01") == ""
}
