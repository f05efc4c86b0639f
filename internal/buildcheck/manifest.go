// Package buildcheck verifies, at image build time and at startup, that the
// binary links the pinned Telegram client library and that the library still
// exposes the API surface the bot relies on.
package buildcheck

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

var ErrNotRequired = errors.New("module not required by manifest")

// Manifest is a parsed go.mod.
type Manifest struct {
	Path   string
	Module string

	requires map[string]string
	replaces map[string]module.Version
}

func ParseManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifestBytes(path, data)
}

func ParseManifestBytes(path string, data []byte) (*Manifest, error) {
	f, err := modfile.Parse(path, data, nil)
	if err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m := &Manifest{
		Path:     path,
		requires: make(map[string]string, len(f.Require)),
		replaces: make(map[string]module.Version, len(f.Replace)),
	}
	if f.Module != nil {
		m.Module = f.Module.Mod.Path
	}
	for _, r := range f.Require {
		m.requires[r.Mod.Path] = r.Mod.Version
	}
	for _, r := range f.Replace {
		// A versioned replace only applies to that version.
		if r.Old.Version != "" && m.requires[r.Old.Path] != r.Old.Version {
			continue
		}
		m.replaces[r.Old.Path] = r.New
	}
	return m, nil
}

// Require returns the version the manifest pins for modPath, after replace
// directives. A replacement by a local directory has no version and reports
// ok with an empty string.
func (m *Manifest) Require(modPath string) (string, bool) {
	v, ok := m.requires[modPath]
	if !ok {
		return "", false
	}
	if rep, replaced := m.replaces[modPath]; replaced {
		return rep.Version, true
	}
	return v, true
}
