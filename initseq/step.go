// Package initseq runs ordered, retryable modem configuration sequences.
package initseq

import (
	"strings"
	"time"

	"i4.energy/across/ntnmodem/at"
	"i4.energy/across/ntnmodem/telemetry"
)

// Placeholders recognized in step commands.
const (
	PlaceholderPdnType = "<pdn_type>"
	PlaceholderAPN     = "<apn>"
)

// Retry bounds the additional attempts of a failing step.
type Retry struct {
	// Count is the number of attempts after the first one.
	Count int
	// Delay is the pause between attempts.
	Delay time.Duration
}

// Event is an unsolicited line a step waits for after its command.
type Event struct {
	// Pattern is the literal prefix the line must start with.
	Pattern string
	// Timeout of zero waits without bound.
	Timeout time.Duration
}

// Hardware is a step that drives a pin instead of sending a command.
type Hardware struct {
	// Duration is how long to hold the action before continuing.
	Duration time.Duration
	// Action performs the side effect. When nil the engine's GPIO hook is
	// used.
	Action func(time.Duration)
}

// Step is one entry of a Sequence.
type Step struct {
	Command string
	// Expect is the result the command must return. at.ResultUnknown
	// means the result is not checked.
	Expect  at.ResultCode
	Timeout time.Duration
	// Delay is a pause before the step runs.
	Delay     time.Duration
	Retry     *Retry
	Event     *Event
	Hardware  *Hardware
	Rationale string
}

// Valid reports whether the step can be executed. A hardware step is
// always valid; any other step needs a command and an expected result or
// event. An event needs a pattern, since an empty one matches any line.
func (s Step) Valid() bool {
	if s.Hardware != nil {
		return true
	}
	if s.Event != nil && s.Event.Pattern == "" {
		return false
	}
	return s.Command != "" && (s.Expect != at.ResultUnknown || s.Event != nil)
}

// Sequence is an ordered list of steps.
type Sequence []Step

// Params carries the values substituted into step commands.
type Params struct {
	PdpType telemetry.PdpType
	APN     string
}

// Substitute replaces the placeholders of command. Without an APN the
// whole APN parameter is removed rather than sent empty.
func (p Params) Substitute(command string) string {
	if strings.Contains(command, PlaceholderPdnType) {
		command = strings.ReplaceAll(command, PlaceholderPdnType, p.PdpType.Token())
	}
	if strings.Contains(command, PlaceholderAPN) {
		if p.APN != "" {
			command = strings.ReplaceAll(command, PlaceholderAPN, p.APN)
		} else {
			command = strings.ReplaceAll(command, `,"`+PlaceholderAPN+`"`, "")
			command = strings.ReplaceAll(command, ","+PlaceholderAPN, "")
			command = strings.ReplaceAll(command, PlaceholderAPN, "")
		}
	}
	return command
}
