// Package loader registers modem variants described in YAML files.
//
// A variant file names the identities it applies to, the attach sequence
// and optional event rules. Vendor capabilities cannot be expressed in a
// file; a variant may instead inherit them from a registered variant named
// by base.
//
//	name: acme-type1sc
//	base: altair
//	match:
//	  model: type1sc
//	init:
//	  - cmd: AT+CFUN=0
//	    res: OK
//	    timeout: 30
//	urc:
//	  - prefix: "%ACMEEV:"
//	    kind: boot
//	debug:
//	  - AT%ACME?
package loader

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
	"i4.energy/across/ntnmodem/initseq"
	"i4.energy/across/ntnmodem/urc"
	"i4.energy/across/ntnmodem/variant"
)

// ErrInvalidFile is returned for variant files that cannot be registered.
var ErrInvalidFile = errors.New("invalid variant file")

// MatchSpec selects identities. Unset fields match anything, but at least
// one field must be set.
type MatchSpec struct {
	Manufacturer *variant.Manufacturer `yaml:"manufacturer,omitempty"`
	Model        *variant.Model        `yaml:"model,omitempty"`
	Chipset      *variant.Chipset      `yaml:"chipset,omitempty"`
}

// Match returns the predicate described by m.
func (m MatchSpec) Match() (variant.Match, error) {
	if m.Manufacturer == nil && m.Model == nil && m.Chipset == nil {
		return nil, fmt.Errorf("%w: empty match", ErrInvalidFile)
	}
	return func(id variant.Identity) bool {
		return (m.Manufacturer == nil || *m.Manufacturer == id.Manufacturer) &&
			(m.Model == nil || *m.Model == id.Model) &&
			(m.Chipset == nil || *m.Chipset == id.Chipset)
	}, nil
}

// File is the content of one variant file.
type File struct {
	Name  string           `yaml:"name"`
	Base  string           `yaml:"base,omitempty"`
	Match MatchSpec        `yaml:"match"`
	Init  []initseq.Record `yaml:"init,omitempty"`
	Urc   []urc.Rule       `yaml:"urc,omitempty"`
	Debug []string         `yaml:"debug,omitempty"`
}

// Decode parses a variant file.
func Decode(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	if f.Name == "" {
		return File{}, fmt.Errorf("%w: missing name", ErrInvalidFile)
	}
	return f, nil
}

// Variant builds the variant described by f. A base variant is looked up
// in r.
func (f File) Variant(r *variant.Registry) (variant.Match, variant.Variant, error) {
	match, err := f.Match.Match()
	if err != nil {
		return nil, variant.Variant{}, fmt.Errorf("%s: %w", f.Name, err)
	}

	v := variant.Variant{Name: f.Name}
	if f.Base != "" {
		base, ok := r.Get(f.Base)
		if !ok {
			return nil, variant.Variant{}, fmt.Errorf("%w: %s: unknown base %q", ErrInvalidFile, f.Name, f.Base)
		}
		v.Sequence = base.Sequence
		v.Overrides = base.Overrides
		v.Overrides.Urc = slices.Clone(base.Overrides.Urc)
		v.Overrides.DebugCommands = slices.Clone(base.Overrides.DebugCommands)
	}

	if len(f.Init) > 0 {
		seq, err := initseq.FromRecords(f.Init)
		if err != nil {
			return nil, variant.Variant{}, fmt.Errorf("%w: %s: %w", ErrInvalidFile, f.Name, err)
		}
		v.Sequence = func() initseq.Sequence { return slices.Clone(seq) }
	}
	v.Overrides.Urc = append(v.Overrides.Urc, f.Urc...)
	v.Overrides.DebugCommands = append(v.Overrides.DebugCommands, f.Debug...)
	return match, v, nil
}

// LoadFile registers the variant described in path.
func LoadFile(r *variant.Registry, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read variant: %w", err)
	}
	f, err := Decode(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	match, v, err := f.Variant(r)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	if err := r.Register(match, v); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return v.Name, nil
}

// LoadDir registers every .yaml and .yml file in dir, in name order. Files
// that fail are skipped; their errors are joined in the returned error.
func LoadDir(r *variant.Registry, dir string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("component", "loader")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read variant dir: %w", err)
	}

	var names []string
	var errs []error
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		name, err := LoadFile(r, path)
		if err != nil {
			logger.Error("Failed to load variant", "path", path, "error", err)
			errs = append(errs, err)
			continue
		}
		logger.Info("Loaded variant", "variant", name, "path", path)
		names = append(names, name)
	}
	return names, errors.Join(errs...)
}
