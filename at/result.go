package at

import "strings"

// ResultCode is the final result of one command exchange.
type ResultCode int

const (
	ResultUnknown ResultCode = iota
	ResultOK
	ResultError
	ResultCmeError
	ResultCmsError
	ResultNoCarrier
	// ResultTimeout is reported when no final result arrived within the
	// command timeout.
	ResultTimeout
)

var resultNames = map[ResultCode]string{
	ResultUnknown:   "UNKNOWN",
	ResultOK:        "OK",
	ResultError:     "ERROR",
	ResultCmeError:  "CME_ERROR",
	ResultCmsError:  "CMS_ERROR",
	ResultNoCarrier: "NO_CARRIER",
	ResultTimeout:   "TIMEOUT",
}

func (r ResultCode) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return resultNames[ResultUnknown]
}

// ParseResult maps a final result line to its ResultCode.
func ParseResult(line string) ResultCode {
	switch {
	case line == OK, line == SendOK:
		return ResultOK
	case line == ERROR, line == SendFail:
		return ResultError
	case line == NoCarrier:
		return ResultNoCarrier
	case strings.HasPrefix(line, CmeError):
		return ResultCmeError
	case strings.HasPrefix(line, CmsError):
		return ResultCmsError
	default:
		return ResultUnknown
	}
}

// ParseResultName is the inverse of ResultCode.String. Matching ignores case
// and accepts spaces in place of underscores ("CME ERROR").
func ParseResultName(name string) (ResultCode, bool) {
	n := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(name)), " ", "_")
	for code, s := range resultNames {
		if s == n {
			return code, true
		}
	}
	return ResultUnknown, false
}
