// SPDX-License-Identifier: MPL-2.0

package storage

import (
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"pkgr-cli/pkg/pkgdef"
)

// toolsetsDirName is the per-root directory holding toolset files.
const toolsetsDirName = ".toolsets"

// ToolsetTag marks synthetic packages that came from toolset files.
const ToolsetTag = "toolset"

// defaultToolsetVersion is used when a toolset omits its version.
var defaultToolsetVersion = pkgdef.Version{Major: 1}

// toolsetSpec is one TOML section of a toolset file. The section name
// is the toolset's base name.
type toolsetSpec struct {
	Version     string   `toml:"version"`
	Description string   `toml:"description"`
	Requires    []string `toml:"requires"`
	Tags        []string `toml:"tags"`
}

// indexToolsets reads one .toolsets/*.toml file and inserts each
// section as a synthetic package. Toolsets have no environment of
// their own; they exist to pull in requirements.
func (st *Storage) indexToolsets(path string, opts Options) {
	data, err := os.ReadFile(path)
	if err != nil {
		st.warn(path, err)
		return
	}

	var specs map[string]toolsetSpec
	if err := toml.Unmarshal(data, &specs); err != nil {
		st.warn(path, err)
		return
	}

	// TOML map order is not stable; insert sections sorted by name.
	for _, name := range sortedKeys(specs) {
		spec := specs[name]
		pkg, err := spec.realise(name, path)
		if err != nil {
			st.warn(path, err)
			continue
		}
		st.insert(pkg, opts)
	}
}

func (spec toolsetSpec) realise(name, path string) (*pkgdef.Package, error) {
	if name == "" {
		return nil, fmt.Errorf("toolset with empty name")
	}
	version := defaultToolsetVersion
	if spec.Version != "" {
		parsed, err := pkgdef.ParseVersion(spec.Version)
		if err != nil {
			return nil, fmt.Errorf("toolset %s: %w", name, err)
		}
		version = parsed
	}
	if _, err := pkgdef.ParseDepSpecs(spec.Requires); err != nil {
		return nil, fmt.Errorf("toolset %s: %w", name, err)
	}

	pkg := pkgdef.NewPackage(name, version)
	pkg.Description = spec.Description
	pkg.Reqs = spec.Requires
	pkg.Tags = append(append([]string{}, spec.Tags...), ToolsetTag)
	pkg.Source = path
	return pkg, nil
}

func sortedKeys(m map[string]toolsetSpec) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
