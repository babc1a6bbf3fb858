// Package telemetry decodes the structured text responses of an NB-NTN modem
// into typed records.
//
// Decoding never fails: a field that is missing, empty or carries its
// "not known" sentinel is left absent (nil pointer or empty string).
package telemetry

import (
	"fmt"
	"strings"
)

// RegistrationState is the EPS registration status reported by +CEREG.
type RegistrationState int

const (
	RegNotRegistered RegistrationState = 0
	RegHome          RegistrationState = 1
	RegSearching     RegistrationState = 2
	RegDenied        RegistrationState = 3
	RegUnknown       RegistrationState = 4
	RegRoaming       RegistrationState = 5
	RegEmergency     RegistrationState = 8
)

var registrationNames = map[RegistrationState]string{
	RegNotRegistered: "NOT_REGISTERED",
	RegHome:          "HOME",
	RegSearching:     "SEARCHING",
	RegDenied:        "DENIED",
	RegUnknown:       "UNKNOWN",
	RegRoaming:       "ROAMING",
	RegEmergency:     "EMERGENCY",
}

func (s RegistrationState) String() string {
	if n, ok := registrationNames[s]; ok {
		return n
	}
	return fmt.Sprintf("RegistrationState(%d)", int(s))
}

// Registered reports whether the state allows data exchange.
func (s RegistrationState) Registered() bool {
	return s == RegHome || s == RegRoaming
}

// RegInfo is the decoded registration status.
type RegInfo struct {
	State RegistrationState
	// TrackingArea is the hex tracking area code.
	TrackingArea string
	// CellID is the hex E-UTRAN cell id.
	CellID      string
	CauseType   *int
	RejectCause *int
	// ActiveTimer is the raw T3324 bitmask granted by the network.
	ActiveTimer string
	// PeriodicTimer is the raw T3412 extended bitmask granted by the network.
	PeriodicTimer string
}

// Registered reports whether the modem is attached to the home or a roaming
// network.
func (r RegInfo) Registered() bool {
	return r.State.Registered()
}

// SigInfo holds radio signal measurements. Every field is independently
// optional.
type SigInfo struct {
	// RSSI in dBm.
	RSSI *int
	// BER is the estimated bit error rate in percent.
	BER *float64
	// RSRQ in dB.
	RSRQ *float64
	// RSRP in dBm.
	RSRP *int
	// SINR in dB, derived from RSRQ when defined.
	SINR *float64
}

// PdpType is the transport type of a packet data context.
type PdpType int

const (
	PdpUnknown PdpType = iota
	PdpIP
	PdpNonIP
	PdpIPv6
	PdpIPv4v6
)

var pdpNames = map[PdpType]string{
	PdpIP:     "IP",
	PdpNonIP:  "NON_IP",
	PdpIPv6:   "IPV6",
	PdpIPv4v6: "IPV4V6",
}

func (p PdpType) String() string {
	if n, ok := pdpNames[p]; ok {
		return n
	}
	return "UNKNOWN"
}

// Token is the context type as written in AT+CGDCONT ("NON-IP" for PdpNonIP).
func (p PdpType) Token() string {
	return strings.ReplaceAll(p.String(), "_", "-")
}

// ParsePdpType normalizes s by upper-casing and mapping '-' to '_' before
// looking up the type. Unrecognized names yield PdpUnknown.
func ParsePdpType(s string) PdpType {
	n := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_")
	for t, name := range pdpNames {
		if name == n {
			return t
		}
	}
	return PdpUnknown
}

// PdpContext is one configured packet data context.
type PdpContext struct {
	ID      int
	Type    PdpType
	APN     string
	Address string
}

// Command renders the AT+CGDCONT command that configures c. The APN
// parameter is left out when empty.
func (c PdpContext) Command() string {
	id := c.ID
	if id <= 0 {
		id = 1
	}
	if c.APN == "" {
		return fmt.Sprintf(`AT+CGDCONT=%d,"%s"`, id, c.Type.Token())
	}
	return fmt.Sprintf(`AT+CGDCONT=%d,"%s","%s"`, id, c.Type.Token(), c.APN)
}

// PsmConfig holds the power save mode timer bitmasks as reported by +CPSMS.
// The 8-bit strings are kept in their encoded form.
type PsmConfig struct {
	Enabled       bool
	PeriodicTimer string
	ActiveTimer   string
}

// Command renders the AT+CPSMS command that requests c.
func (c PsmConfig) Command() string {
	if !c.Enabled {
		return "AT+CPSMS=0"
	}
	return fmt.Sprintf(`AT+CPSMS=1,,,"%s","%s"`, c.PeriodicTimer, c.ActiveTimer)
}

// EdrxConfig holds the eDRX cycle and paging time window bitmasks.
type EdrxConfig struct {
	Cycle string
	// PagingWindow is only reported by +CEDRXRDP.
	PagingWindow string
}

// Command renders the AT+CEDRXS command that requests c for the NB-IoT
// access technology. An empty cycle disables eDRX.
func (c EdrxConfig) Command() string {
	if c.Cycle == "" {
		return "AT+CEDRXS=0"
	}
	return fmt.Sprintf(`AT+CEDRXS=2,5,"%s"`, c.Cycle)
}

// SignalQuality is a coarse 0..5 bar indicator derived from SINR.
type SignalQuality int

const (
	QualityNone SignalQuality = iota
	QualityWeak
	QualityLow
	QualityMid
	QualityGood
	QualityStrong
	// QualityWarning flags an implausible measurement.
	QualityWarning
)

func (q SignalQuality) String() string {
	switch q {
	case QualityNone:
		return "NONE"
	case QualityWeak:
		return "WEAK"
	case QualityLow:
		return "LOW"
	case QualityMid:
		return "MID"
	case QualityGood:
		return "GOOD"
	case QualityStrong:
		return "STRONG"
	case QualityWarning:
		return "WARNING"
	}
	return fmt.Sprintf("SignalQuality(%d)", int(q))
}
