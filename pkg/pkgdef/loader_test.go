// SPDX-License-Identifier: MPL-2.0

package pkgdef

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeDefinition(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefinitionFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing definition: %v", err)
	}
	return path
}

func TestLoadPackageField(t *testing.T) {
	t.Parallel()

	path := writeDefinition(t, `
package: {
	base:    "maya"
	version: "2026.1.0"
	reqs: ["python@3.11"]
	envs: [{
		name: "default"
		evars: [
			{name: "PATH", value: "{PKG_MAYA_ROOT}/bin"},
			{name: "MAYA_VERSION", value: "2026", action: "set"},
		]
	}]
	apps: [{name: "maya", path: "{PKG_MAYA_ROOT}/bin/maya"}]
	tags: ["dcc"]
}
`)

	pkg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if pkg.FullName() != "maya-2026.1.0" {
		t.Errorf("FullName() = %q", pkg.FullName())
	}
	if pkg.Source != path {
		t.Errorf("Source = %q, want %q", pkg.Source, path)
	}

	env, err := pkg.EnvByName("default")
	if err != nil {
		t.Fatalf("EnvByName: %v", err)
	}
	// Unspecified action takes the schema default.
	pathEvar, _ := env.Get("PATH")
	if pathEvar.Action != ActionAppend {
		t.Errorf("PATH action = %q, want append", pathEvar.Action)
	}
	ver, _ := env.Get("MAYA_VERSION")
	if ver.Action != ActionSet {
		t.Errorf("MAYA_VERSION action = %q, want set", ver.Action)
	}

	if _, err := pkg.AppByName("maya"); err != nil {
		t.Errorf("AppByName: %v", err)
	}
	if !pkg.HasTag("dcc") {
		t.Error("tag dcc missing")
	}
}

func TestLoadGetPackageField(t *testing.T) {
	t.Parallel()

	path := writeDefinition(t, `
_versions: ["3.5.0", "3.5.2"]

get_package: {
	base:    "redshift"
	version: _versions[1]
}
`)

	pkg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if pkg.FullName() != "redshift-3.5.2" {
		t.Errorf("FullName() = %q", pkg.FullName())
	}
}

func TestLoadBareTopLevel(t *testing.T) {
	t.Parallel()

	path := writeDefinition(t, `
base:    "houdini"
version: "20.5.0"
`)

	pkg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if pkg.FullName() != "houdini-20.5.0" {
		t.Errorf("FullName() = %q", pkg.FullName())
	}
}

func TestLoadInjectedTags(t *testing.T) {
	t.Parallel()

	path := writeDefinition(t, `
_os:  string @tag(os)
_dir: string @tag(dir)

package: {
	base:    "ocio"
	version: "2.3.0"
	envs: [{
		name: "default"
		evars: [
			{name: "OCIO_PLATFORM", value: _os, action: "set"},
			{name: "OCIO", value: _dir + "/config.ocio", action: "set"},
		]
	}]
}
`)

	pkg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	env, err := pkg.EnvByName("default")
	if err != nil {
		t.Fatalf("EnvByName: %v", err)
	}
	plat, _ := env.Get("OCIO_PLATFORM")
	if plat.Value != runtime.GOOS {
		t.Errorf("OCIO_PLATFORM = %q, want %q", plat.Value, runtime.GOOS)
	}
	ocio, _ := env.Get("OCIO")
	if want := filepath.Dir(path) + "/config.ocio"; ocio.Value != want {
		t.Errorf("OCIO = %q, want %q", ocio.Value, want)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		kind    LoadErrorKind
	}{
		{
			name:    "syntax error",
			content: `package: { base: `,
			kind:    LoadExecutionError,
		},
		{
			name:    "no package shape",
			content: `something_else: 42`,
			kind:    LoadMissingPackage,
		},
		{
			name: "schema violation",
			content: `
package: {
	base:    "maya"
	version: "2026.1"
}
`,
			kind: LoadInvalidReturn,
		},
		{
			name: "missing version",
			content: `
package: {
	base: "maya"
}
`,
			kind: LoadInvalidReturn,
		},
		{
			name: "bad requirement",
			content: `
package: {
	base:    "maya"
	version: "2026.1.0"
	reqs: ["python@nope"]
}
`,
			kind: LoadInvalidPackage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeDefinition(t, tt.content)
			_, err := Load(path)
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("error = %v, want *LoadError", err)
			}
			if le.Kind != tt.kind {
				t.Errorf("kind = %q, want %q", le.Kind, tt.kind)
			}
			if le.Path != path {
				t.Errorf("path = %q, want %q", le.Path, path)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), DefinitionFileName))
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("error = %v, want *LoadError", err)
	}
	if le.Kind != LoadFileNotFound {
		t.Errorf("kind = %q, want %q", le.Kind, LoadFileNotFound)
	}
}
