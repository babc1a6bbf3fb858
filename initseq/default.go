package initseq

import (
	"time"

	"i4.energy/across/ntnmodem/at"
)

// Default returns the generic 3GPP NTN attach sequence used when the modem
// variant does not provide its own.
func Default() Sequence {
	return Sequence{
		{
			Command:   at.CmdRadioOff,
			Expect:    at.ResultOK,
			Timeout:   30 * time.Second,
			Rationale: "disable radio during configuration",
		},
		{
			Command:   at.CmdVerboseErrors,
			Expect:    at.ResultOK,
			Rationale: "enable verbose error codes",
		},
		{
			Command:   `AT+CGDCONT=1,"<pdn_type>","<apn>"`,
			Expect:    at.ResultOK,
			Rationale: "configure PDN context",
		},
		{
			Command:   "AT+CEREG=5",
			Expect:    at.ResultOK,
			Rationale: "enable verbose registration reporting",
		},
		{
			Command:   at.CmdRadioOn,
			Expect:    at.ResultOK,
			Timeout:   30 * time.Second,
			Retry:     &Retry{Count: 1, Delay: 5 * time.Second},
			Rationale: "enable radio",
		},
	}
}
