package telemetry

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"

	"i4.energy/across/ntnmodem/at"
)

// Bit error rate in percent per RxQual index (3GPP TS 45.008).
var rxQualPercent = [8]float64{0.14, 0.28, 0.57, 1.13, 2.26, 4.53, 9.05, 18.1}

// SINR thresholds in dB for the signal bars.
const (
	sinrInvalid = 30.0
	sinrBars5   = 9.0
	sinrBars4   = 6.0
	sinrBars3   = 3.0
	sinrBars2   = 0.0
	sinrBars1   = -3.0
)

// RSRQ range in dB used for the SINR estimate.
const (
	rsrqMin      = -19.5
	rsrqMax      = -3.0
	rsrqZeroSINR = -14.5
)

// firstLine returns the first line of resp starting with prefix. When no line
// carries the prefix the first non-empty line is used, so bare payloads
// ("2,1") decode the same as prefixed ones.
func firstLine(resp, prefix string) string {
	var fallback string
	for l := range strings.Lines(resp) {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if strings.HasPrefix(l, prefix) {
			return l
		}
		if fallback == "" {
			fallback = l
		}
	}
	return fallback
}

func field(fields []string, i int) (string, bool) {
	if i >= len(fields) || fields[i] == "" {
		return "", false
	}
	return fields[i], true
}

func intField(fields []string, i int) (int, bool) {
	s, ok := field(fields, i)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

func floatField(fields []string, i int) (float64, bool) {
	s, ok := field(fields, i)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// DecodeRegInfo decodes a +CEREG response or event.
//
// A queried response (AT+CEREG?) carries the reporting configuration as its
// first field; queried must be set by the caller in that case so the field
// is discarded before decoding. Events never carry it.
func DecodeRegInfo(resp string, queried bool) RegInfo {
	info := RegInfo{State: RegUnknown}
	fields := at.Fields(firstLine(resp, at.UrcRegistration), at.UrcRegistration)
	if queried && len(fields) > 0 {
		fields = fields[1:]
	}
	if v, ok := intField(fields, 0); ok {
		if _, known := registrationNames[RegistrationState(v)]; known {
			info.State = RegistrationState(v)
		}
	}
	info.TrackingArea, _ = field(fields, 1)
	info.CellID, _ = field(fields, 2)
	if v, ok := intField(fields, 4); ok {
		info.CauseType = &v
	}
	if v, ok := intField(fields, 5); ok {
		info.RejectCause = &v
	}
	info.ActiveTimer, _ = field(fields, 6)
	info.PeriodicTimer, _ = field(fields, 7)
	return info
}

// DecodeRegConfig returns the reporting configuration of a queried +CEREG
// response.
func DecodeRegConfig(resp string) (int, bool) {
	return intField(at.Fields(firstLine(resp, at.UrcRegistration), at.UrcRegistration), 0)
}

// DecodeSigInfo decodes a +CESQ response.
func DecodeSigInfo(resp string) SigInfo {
	var info SigInfo
	fields := at.Fields(firstLine(resp, at.UrcSignalQuality), at.UrcSignalQuality)
	if v, ok := intField(fields, 0); ok && v != 99 {
		rssi := v - 110
		info.RSSI = &rssi
	}
	if v, ok := intField(fields, 1); ok && v >= 0 && v <= 7 {
		ber := rxQualPercent[v]
		info.BER = &ber
	}
	if v, ok := floatField(fields, 4); ok && v != 255 {
		rsrq := v*0.5 - 19.5
		info.RSRQ = &rsrq
		sinr := SINRFromRSRQ(rsrq)
		info.SINR = &sinr
	}
	if v, ok := intField(fields, 5); ok && v != 255 {
		rsrp := v - 140
		info.RSRP = &rsrp
	}
	return info
}

// SINRFromRSRQ estimates SINR in dB from RSRQ in dB. RSRQ is clamped to
// the reported range [-19.5, -3] and mapped linearly so that -14.5 dB is 0 dB
// SINR, giving -10 dB at the bottom and 23 dB at the top of the range.
func SINRFromRSRQ(rsrq float64) float64 {
	rsrq = min(max(rsrq, rsrqMin), rsrqMax)
	sinr := 2 * (rsrq - rsrqZeroSINR)
	return math.Round(sinr*10) / 10
}

// QualityFromSINR maps SINR in dB to signal bars.
func QualityFromSINR(sinr float64) SignalQuality {
	switch {
	case sinr >= sinrInvalid:
		return QualityWarning
	case sinr >= sinrBars5:
		return QualityStrong
	case sinr >= sinrBars4:
		return QualityGood
	case sinr >= sinrBars3:
		return QualityMid
	case sinr >= sinrBars2:
		return QualityLow
	case sinr >= sinrBars1:
		return QualityWeak
	default:
		return QualityNone
	}
}

// DecodePdpContexts decodes a multi-line +CGDCONT response into one
// PdpContext per line, in order.
func DecodePdpContexts(resp string) []PdpContext {
	var contexts []PdpContext
	for l := range strings.Lines(resp) {
		l = strings.TrimSpace(l)
		if !strings.HasPrefix(l, at.RespContext) {
			continue
		}
		fields := at.Fields(l, at.RespContext)
		var ctx PdpContext
		if v, ok := intField(fields, 0); ok {
			ctx.ID = v
		}
		if s, ok := field(fields, 1); ok {
			ctx.Type = ParsePdpType(s)
		}
		ctx.APN, _ = field(fields, 2)
		ctx.Address, _ = field(fields, 3)
		contexts = append(contexts, ctx)
	}
	return contexts
}

// DecodePsmConfig decodes a +CPSMS response.
func DecodePsmConfig(resp string) PsmConfig {
	var cfg PsmConfig
	fields := at.Fields(firstLine(resp, at.RespPsm), at.RespPsm)
	if v, ok := intField(fields, 0); ok {
		cfg.Enabled = v == 1
	}
	cfg.PeriodicTimer, _ = field(fields, 3)
	cfg.ActiveTimer, _ = field(fields, 4)
	return cfg
}

// DecodeEdrxRequested decodes a +CEDRXS response.
func DecodeEdrxRequested(resp string) EdrxConfig {
	var cfg EdrxConfig
	fields := at.Fields(firstLine(resp, at.RespEdrx), at.RespEdrx)
	cfg.Cycle, _ = field(fields, 1)
	return cfg
}

// DecodeEdrxGranted decodes a +CEDRXRDP response.
func DecodeEdrxGranted(resp string) EdrxConfig {
	var cfg EdrxConfig
	fields := at.Fields(firstLine(resp, at.RespEdrxGranted), at.RespEdrxGranted)
	cfg.Cycle, _ = field(fields, 2)
	cfg.PagingWindow, _ = field(fields, 3)
	return cfg
}

// DecodeNiddPayload extracts the payload of a +CRTDCP event. It returns nil
// when the payload is absent or not valid hex.
func DecodeNiddPayload(resp string) []byte {
	fields := at.Fields(firstLine(resp, at.UrcNiddData), at.UrcNiddData)
	s, ok := field(fields, 2)
	if !ok {
		return nil
	}
	payload, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return payload
}

// DecodeNiddContext returns the context id of a +CRTDCP event.
func DecodeNiddContext(resp string) (int, bool) {
	return intField(at.Fields(firstLine(resp, at.UrcNiddData), at.UrcNiddData), 0)
}
