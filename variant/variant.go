package variant

import (
	"fmt"
	"slices"
	"sync"

	"i4.energy/across/ntnmodem/initseq"
	"i4.energy/across/ntnmodem/transport"
	"i4.energy/across/ntnmodem/urc"
)

// DefaultName is the name of the generic 3GPP variant.
const DefaultName = "generic"

// Overrides are the vendor specific behaviours of a variant. A nil
// capability means the variant does not provide it.
type Overrides struct {
	Sleep    SleepControl
	Location LocationSource
	Bands    BandControl
	Sockets  transport.SocketDriver
	// Urc extends the default event classification.
	Urc []urc.Rule
	// DebugCommands are queried in addition to the 3GPP set when
	// reporting debug information.
	DebugCommands []string
}

// Variant is the behaviour set selected for a modem identity.
type Variant struct {
	Name string
	// Sequence builds the attach sequence. Nil selects initseq.Default.
	Sequence  func() initseq.Sequence
	Overrides Overrides
}

// InitSequence returns a fresh attach sequence for the variant.
func (v Variant) InitSequence() initseq.Sequence {
	if v.Sequence == nil {
		return initseq.Default()
	}
	return v.Sequence()
}

// Default returns the generic variant: the 3GPP attach sequence and no
// vendor capabilities.
func Default() Variant {
	return Variant{Name: DefaultName, Sequence: initseq.Default}
}

// Match selects the identities a variant applies to.
type Match func(Identity) bool

// MatchModel matches any of models.
func MatchModel(models ...Model) Match {
	return func(id Identity) bool {
		return slices.Contains(models, id.Model)
	}
}

// MatchManufacturer matches every model of m.
func MatchManufacturer(m Manufacturer) Match {
	return func(id Identity) bool {
		return id.Manufacturer == m
	}
}

// MatchChipset matches every modem built on c.
func MatchChipset(c Chipset) Match {
	return func(id Identity) bool {
		return id.Chipset == c
	}
}

type entry struct {
	match   Match
	variant Variant
}

// Registry holds the known variants. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds v for the identities accepted by match. Later
// registrations take precedence, so loaded variants can replace built-in
// ones.
func (r *Registry) Register(match Match, v Variant) error {
	if match == nil {
		return fmt.Errorf("%w: %q has no match", ErrInvalidVariant, v.Name)
	}
	if v.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidVariant)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry{match: match, variant: v})
	return nil
}

// Lookup returns the most recently registered variant matching id.
func (r *Registry) Lookup(id Identity) (Variant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].match(id) {
			return r.entries[i].variant, true
		}
	}
	return Variant{}, false
}

// Get returns the most recently registered variant called name.
func (r *Registry) Get(name string) (Variant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].variant.Name == name {
			return r.entries[i].variant, true
		}
	}
	return Variant{}, false
}

// Names lists the registered variants in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.variant.Name
	}
	return names
}

// Resolve returns the variant for id. When none matches it returns the
// default variant together with ErrUnsupportedVariant, which callers
// should log and otherwise ignore.
func (r *Registry) Resolve(id Identity) (Variant, error) {
	if r != nil {
		if v, ok := r.Lookup(id); ok {
			return v, nil
		}
	}
	return Default(), fmt.Errorf("%w: %s", ErrUnsupportedVariant, id)
}
