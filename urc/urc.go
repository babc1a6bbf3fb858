// Package urc classifies unsolicited modem lines and routes them to
// handlers or a queue.
package urc

import (
	"fmt"
	"strings"
	"time"

	"i4.energy/across/ntnmodem/at"
)

// Kind is the category of an unsolicited line.
type Kind int

const (
	KindUnknown Kind = iota
	KindRegistration
	KindConnectionlessData
	KindSocketData
	// KindBoot marks vendor restart notifications.
	KindBoot
)

func (k Kind) String() string {
	switch k {
	case KindRegistration:
		return "registration"
	case KindConnectionlessData:
		return "connectionless-data"
	case KindSocketData:
		return "socket-data"
	case KindBoot:
		return "boot"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k := KindUnknown; k <= KindBoot; k++ {
		if k.String() == strings.ToLower(strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown event kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Rule maps a line prefix to a Kind.
type Rule struct {
	Prefix string `yaml:"prefix" json:"prefix"`
	Kind   Kind   `yaml:"kind" json:"kind"`
}

// Table is an ordered set of classification rules. The longest matching
// prefix wins.
type Table []Rule

// DefaultTable holds the 3GPP rules every modem shares.
func DefaultTable() Table {
	return Table{
		{Prefix: at.UrcRegistration, Kind: KindRegistration},
		{Prefix: at.UrcNiddData, Kind: KindConnectionlessData},
	}
}

// With returns a copy of t extended by rules.
func (t Table) With(rules ...Rule) Table {
	out := make(Table, 0, len(t)+len(rules))
	out = append(out, t...)
	return append(out, rules...)
}

// Classify returns the Kind of line. Lines that match no rule are
// KindUnknown.
func (t Table) Classify(line string) Kind {
	kind, best := KindUnknown, 0
	for _, r := range t {
		if r.Prefix != "" && len(r.Prefix) > best && strings.HasPrefix(line, r.Prefix) {
			kind, best = r.Kind, len(r.Prefix)
		}
	}
	return kind
}

// Event is one classified unsolicited line.
type Event struct {
	Kind     Kind
	Line     string
	Received time.Time
}
