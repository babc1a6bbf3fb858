// Package variant resolves the identity of a modem and selects the
// vendor behaviour that goes with it.
package variant

import (
	"fmt"
	"strings"
)

type Manufacturer int

const (
	ManufacturerUnknown Manufacturer = iota
	Quectel
	Murata
	Sierra
)

type Model int

const (
	ModelUnknown Model = iota
	BG95
	CC660D
	TYPE1SC
	HL781X
)

type Chipset int

const (
	ChipsetUnknown Chipset = iota
	ALT1250
	MDM9205
)

var manufacturerNames = []string{"unknown", "quectel", "murata", "sierra"}
var modelNames = []string{"unknown", "bg95", "cc660d", "type1sc", "hl781x"}
var chipsetNames = []string{"unknown", "alt1250", "mdm9205"}

func name(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return names[0]
	}
	return names[i]
}

func parse(names []string, what, s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", what, s)
}

func (m Manufacturer) String() string { return name(manufacturerNames, int(m)) }
func (m Model) String() string        { return name(modelNames, int(m)) }
func (c Chipset) String() string      { return name(chipsetNames, int(c)) }

func (m Manufacturer) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
func (m Model) MarshalText() ([]byte, error)        { return []byte(m.String()), nil }
func (c Chipset) MarshalText() ([]byte, error)      { return []byte(c.String()), nil }

func (m *Manufacturer) UnmarshalText(b []byte) error {
	i, err := parse(manufacturerNames, "manufacturer", string(b))
	*m = Manufacturer(i)
	return err
}

func (m *Model) UnmarshalText(b []byte) error {
	i, err := parse(modelNames, "model", string(b))
	*m = Model(i)
	return err
}

func (c *Chipset) UnmarshalText(b []byte) error {
	i, err := parse(chipsetNames, "chipset", string(b))
	*c = Chipset(i)
	return err
}

// Identity is what a modem reports about itself.
type Identity struct {
	Manufacturer Manufacturer
	Model        Model
	Chipset      Chipset
}

func (id Identity) String() string {
	return fmt.Sprintf("%s/%s/%s", id.Manufacturer, id.Model, id.Chipset)
}

// Known reports whether the model was recognized.
func (id Identity) Known() bool {
	return id.Model != ModelUnknown
}

// ResolveIdentity derives the identity from the free text answer to ATI.
// Text that matches no known modem yields the zero Identity.
func ResolveIdentity(info string) Identity {
	lower := strings.ToLower(info)
	switch {
	case strings.Contains(lower, "quectel"):
		switch {
		case strings.Contains(lower, "cc660"):
			return Identity{Manufacturer: Quectel, Model: CC660D}
		case strings.Contains(lower, "bg95"):
			return Identity{Manufacturer: Quectel, Model: BG95, Chipset: MDM9205}
		}
		return Identity{Manufacturer: Quectel}
	case strings.Contains(lower, "murata"):
		if strings.Contains(lower, "1sc") {
			return Identity{Manufacturer: Murata, Model: TYPE1SC, Chipset: ALT1250}
		}
		return Identity{Manufacturer: Murata}
	case strings.Contains(info, "HL781"):
		return Identity{Manufacturer: Sierra, Model: HL781X, Chipset: ALT1250}
	}
	return Identity{}
}
