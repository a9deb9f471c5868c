// SPDX-License-Identifier: MPL-2.0

package pkgdef

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"

	"cuelang.org/go/cue"

	"pkgr-cli/pkg/cueutil"
)

// DefinitionFileName is the basename the repository scanner looks for.
const DefinitionFileName = "package.cue"

//go:embed pkgdef_schema.cue
var pkgdefSchema []byte

type (
	// LoadErrorKind classifies definition-file load failures.
	LoadErrorKind string

	// LoadError is returned by Load. During a bulk scan these become
	// warnings and never abort the scan; strict mode propagates them.
	LoadError struct {
		Kind LoadErrorKind
		Path string
		Err  error
	}

	// packageSpec is the decode target for the unified CUE value.
	packageSpec struct {
		Base        string   `json:"base"`
		Version     string   `json:"version"`
		Description string   `json:"description"`
		Reqs        []string `json:"reqs"`
		Envs        []Env    `json:"envs"`
		Apps        []App    `json:"apps"`
		Tags        []string `json:"tags"`
	}
)

// Load failure kinds.
const (
	// LoadFileNotFound: the definition file does not exist or is unreadable.
	LoadFileNotFound LoadErrorKind = "file_not_found"
	// LoadExecutionError: CUE compilation or evaluation failed.
	LoadExecutionError LoadErrorKind = "execution_error"
	// LoadMissingPackage: no recognised package shape in the file.
	LoadMissingPackage LoadErrorKind = "missing_package"
	// LoadInvalidReturn: the package value failed schema validation or decoding.
	LoadInvalidReturn LoadErrorKind = "invalid_return"
	// LoadInvalidPackage: the decoded package failed semantic validation.
	LoadInvalidPackage LoadErrorKind = "invalid_package"
)

var baseNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %s: %v", e.Path, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error { return e.Err }

// Load reads and realises a package definition file.
//
// The file is built in the shared CUE context with three injected tags
// usable via @tag attributes: os (runtime.GOOS), arch (runtime.GOARCH),
// and dir (the definition file's directory), which is how definitions
// express platform-conditional paths.
//
// Three shapes are accepted, dispatched in order:
//
//  1. a "package" field conforming to the package schema;
//  2. a "get_package" field whose evaluated value conforms (CUE
//     comprehensions make this the computed-value form);
//  3. the file's top level itself carrying the package fields.
//
// File I/O happens before the CUE evaluation lock is taken, so cache
// hits during a scan never contend on the runtime.
func Load(path string) (*Package, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &LoadError{Kind: LoadFileNotFound, Path: path, Err: err}
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, &LoadError{Kind: LoadFileNotFound, Path: abs, Err: err}
	}
	return LoadBytes(data, abs)
}

// LoadBytes realises a definition from bytes already read from path.
func LoadBytes(data []byte, path string) (*Package, error) {
	var spec packageSpec

	tags := []string{
		"os=" + runtime.GOOS,
		"arch=" + runtime.GOARCH,
		"dir=" + filepath.Dir(path),
	}

	err := cueutil.BuildFile(path, data, func(ctx *cue.Context, v cue.Value) error {
		schema := ctx.CompileBytes(pkgdefSchema)
		if schema.Err() != nil {
			return fmt.Errorf("internal error: failed to compile schema: %w", schema.Err())
		}
		schemaRoot := schema.LookupPath(cue.ParsePath("#Package"))
		if schemaRoot.Err() != nil {
			return fmt.Errorf("internal error: schema definition #Package not found: %w", schemaRoot.Err())
		}

		candidate, err := packageValue(v)
		if err != nil {
			if le, ok := err.(*LoadError); ok {
				le.Path = path
			}
			return err
		}

		unified := schemaRoot.Unify(candidate)
		if err := unified.Validate(cue.Concrete(true)); err != nil {
			return &LoadError{Kind: LoadInvalidReturn, Path: path, Err: cueutil.FormatError(err, path)}
		}
		if err := unified.Decode(&spec); err != nil {
			return &LoadError{Kind: LoadInvalidReturn, Path: path, Err: cueutil.FormatError(err, path)}
		}
		return nil
	}, cueutil.WithTags(tags...), cueutil.WithFilename(path))
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			return nil, le
		}
		return nil, &LoadError{Kind: LoadExecutionError, Path: path, Err: err}
	}

	return spec.realise(path)
}

// packageValue dispatches the three accepted file shapes.
func packageValue(v cue.Value) (cue.Value, error) {
	if pv := v.LookupPath(cue.ParsePath("package")); pv.Exists() {
		return pv, nil
	}
	if gv := v.LookupPath(cue.ParsePath("get_package")); gv.Exists() {
		return gv, nil
	}
	// Bare mapping: the top level must at least name a base.
	if bv := v.LookupPath(cue.ParsePath("base")); bv.Exists() {
		return v, nil
	}
	return cue.Value{}, &LoadError{
		Kind: LoadMissingPackage,
		Err:  fmt.Errorf("no package, get_package, or top-level package fields"),
	}
}

// realise validates the decoded spec and builds the typed Package.
func (s *packageSpec) realise(path string) (*Package, error) {
	if !baseNameRegex.MatchString(s.Base) {
		return nil, &LoadError{
			Kind: LoadInvalidPackage,
			Path: path,
			Err:  fmt.Errorf("base %q must match [A-Za-z_][A-Za-z0-9_]*", s.Base),
		}
	}
	version, err := ParseVersion(s.Version)
	if err != nil {
		return nil, &LoadError{Kind: LoadInvalidPackage, Path: path, Err: err}
	}
	if _, err := ParseDepSpecs(s.Reqs); err != nil {
		return nil, &LoadError{Kind: LoadInvalidPackage, Path: path, Err: err}
	}
	for _, env := range s.Envs {
		for _, ev := range env.Evars {
			if err := ev.Action.Validate(); err != nil {
				return nil, &LoadError{Kind: LoadInvalidPackage, Path: path, Err: err}
			}
		}
	}

	pkg := NewPackage(s.Base, version)
	pkg.Description = s.Description
	pkg.Reqs = s.Reqs
	pkg.Envs = s.Envs
	pkg.Apps = s.Apps
	pkg.Tags = s.Tags
	pkg.Source = path
	return pkg, nil
}
