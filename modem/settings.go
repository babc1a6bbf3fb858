package modem

import (
	"strings"

	"i4.energy/across/ntnmodem/telemetry"
	"i4.energy/across/ntnmodem/transport"
)

// maxAPNLength is the 3GPP TS 23.003 limit of an access point name.
const maxAPNLength = 100

// validateAPN accepts an empty APN or dot separated labels of letters,
// digits and hyphens. Quotes, commas and spaces would corrupt AT+CGDCONT.
func validateAPN(apn string) error {
	if apn == "" {
		return nil
	}
	if len(apn) > maxAPNLength {
		return &ConfigError{Field: "apn", Value: apn, Message: "longer than 100 characters"}
	}
	for label := range strings.SplitSeq(apn, ".") {
		if label == "" {
			return &ConfigError{Field: "apn", Value: apn, Message: "empty label"}
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return &ConfigError{Field: "apn", Value: apn, Message: "label starts or ends with a hyphen"}
		}
		for _, r := range label {
			if !isAPNChar(r) {
				return &ConfigError{Field: "apn", Value: apn, Message: "invalid character " + string(r)}
			}
		}
	}
	return nil
}

func isAPNChar(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-'
}

// APN returns the access point name used by init sequences.
func (m *Modem) APN() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apn
}

// SetAPN changes the access point name used by later init sequences. The
// modem is not reconfigured.
func (m *Modem) SetAPN(apn string) error {
	if err := validateAPN(apn); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apn = apn
	return nil
}

// PdpType returns the PDN type used by init sequences.
func (m *Modem) PdpType() telemetry.PdpType {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pdpType
}

// SetPdpType changes the PDN type used by later init sequences.
func (m *Modem) SetPdpType(t telemetry.PdpType) error {
	if t == telemetry.PdpUnknown {
		return &ConfigError{Field: "pdp type", Value: t, Message: "unknown type"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pdpType = t
	return nil
}

// UDPServer returns the default endpoint of socket sends. Either half
// may be unset.
func (m *Modem) UDPServer() transport.Endpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endpoint
}

// SetUDPServer sets the host of the default endpoint. The host must be an
// IP literal or a valid hostname.
func (m *Modem) SetUDPServer(host string) error {
	if !transport.ValidHost(host) {
		return &ConfigError{Field: "udp server", Value: host, Message: "not an IP address or hostname"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpoint.Host = host
	return m.applyEndpoint()
}

// SetUDPPort sets the port of the default endpoint.
func (m *Modem) SetUDPPort(port int) error {
	if !transport.ValidPort(port) {
		return &ConfigError{Field: "udp port", Value: port, Message: "out of range"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpoint.Port = port
	return m.applyEndpoint()
}

// applyEndpoint hands the endpoint to the sockets once both halves are
// known. m.mu must be held.
func (m *Modem) applyEndpoint() error {
	if m.endpoint.Host == "" || m.endpoint.Port == 0 {
		return nil
	}
	return m.sockets.SetDefaultEndpoint(m.endpoint)
}
