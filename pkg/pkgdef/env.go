// SPDX-License-Identifier: MPL-2.0

package pkgdef

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEnvNotFound is the sentinel error wrapped by EnvNotFoundError.
	ErrEnvNotFound = errors.New("env not found")
)

type (
	// Env is a named, ordered collection of Evars. Order is significant:
	// append and insert actions accumulate relative to the evars already
	// folded in.
	Env struct {
		Name  string `json:"name"`
		Evars []Evar `json:"evars"`
	}

	// EnvNotFoundError is returned when a package has no env with the
	// requested name.
	EnvNotFoundError struct {
		Package string
		Env     string
	}

	// SolveOptions configures Env.Solve.
	SolveOptions struct {
		// MaxDepth bounds recursive expansion; zero means DefaultMaxDepth.
		MaxDepth int

		// OSFallback consults the process environment for tokens the
		// Env does not define. Defaults to true via DefaultSolveOptions.
		OSFallback bool

		// Strict fails with VariableNotFoundError on unknown tokens
		// instead of leaving the literal in place. Strict implies no
		// OS fallback except for Passthrough names.
		Strict bool

		// Passthrough names survive strict mode unexpanded.
		Passthrough []string
	}
)

// DefaultSolveOptions returns the options used by the CLI: depth 10,
// OS environment fallback on, lenient about unknown tokens.
func DefaultSolveOptions() SolveOptions {
	return SolveOptions{MaxDepth: DefaultMaxDepth, OSFallback: true}
}

// Error implements the error interface.
func (e *EnvNotFoundError) Error() string {
	return fmt.Sprintf("package %s has no env %q", e.Package, e.Env)
}

// Unwrap returns ErrEnvNotFound so callers can use errors.Is.
func (e *EnvNotFoundError) Unwrap() error { return ErrEnvNotFound }

// NewEnv creates an empty named environment.
func NewEnv(name string) Env {
	return Env{Name: name}
}

// Add appends an evar to the environment.
func (e *Env) Add(evar Evar) {
	e.Evars = append(e.Evars, evar)
}

// IsEmpty reports whether the environment holds no evars.
func (e Env) IsEmpty() bool { return len(e.Evars) == 0 }

// Get returns the first evar with the given name (case-insensitive).
func (e Env) Get(name string) (Evar, bool) {
	lower := strings.ToLower(name)
	for _, ev := range e.Evars {
		if strings.ToLower(ev.Name) == lower {
			return ev, true
		}
	}
	return Evar{}, false
}

// Names returns the distinct variable names in first-occurrence order.
func (e Env) Names() []string {
	seen := make(map[string]struct{}, len(e.Evars))
	var names []string
	for _, ev := range e.Evars {
		lower := strings.ToLower(ev.Name)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		names = append(names, ev.Name)
	}
	return names
}

// Merge returns a new Env holding e's evars followed by other's.
// The receiver's name is kept. Merge never compresses; callers compose
// several envs first and compress once.
func (e Env) Merge(other Env) Env {
	merged := Env{Name: e.Name, Evars: make([]Evar, 0, len(e.Evars)+len(other.Evars))}
	merged.Evars = append(merged.Evars, e.Evars...)
	merged.Evars = append(merged.Evars, other.Evars...)
	return merged
}

// Compress folds same-name evars together left to right using their
// action semantics. The result holds at most one evar per name, in
// first-occurrence order, each with a concrete value (ActionSet).
// Compress is idempotent.
func (e Env) Compress() Env {
	result := Env{Name: e.Name, Evars: make([]Evar, 0, len(e.Evars))}
	index := make(map[string]int, len(e.Evars))
	for _, ev := range e.Evars {
		lower := strings.ToLower(ev.Name)
		if i, ok := index[lower]; ok {
			result.Evars[i] = result.Evars[i].Merge(ev)
			continue
		}
		index[lower] = len(result.Evars)
		result.Evars = append(result.Evars, ev)
	}
	return result
}

// Solve compresses the environment and expands every {TOKEN} reference.
// Token lookup consults the compressed evars first (case-insensitive),
// then the process environment when OSFallback is enabled. Expansion is
// recursive with cycle detection.
func (e Env) Solve(opts SolveOptions) (Env, error) {
	compressed := e.Compress()
	lookup, eo := compressed.expander(opts)

	solved := Env{Name: e.Name, Evars: make([]Evar, 0, len(compressed.Evars))}
	for _, ev := range compressed.Evars {
		value, err := expandRecursive(ev.Value, lookup, eo)
		if err != nil {
			return Env{}, fmt.Errorf("solving %s: %w", ev.Name, err)
		}
		solved.Evars = append(solved.Evars, Evar{Name: ev.Name, Value: value, Action: ev.Action})
	}
	return solved, nil
}

// Expand resolves {TOKEN} references in an arbitrary string against
// this environment's evars, with the same lookup semantics as Solve.
// Used for app launch fields (path, args, cwd) that reference the
// composed environment.
func (e Env) Expand(value string, opts SolveOptions) (string, error) {
	lookup, eo := e.Compress().expander(opts)
	return expandRecursive(value, lookup, eo)
}

// expander builds the token lookup table and expansion options for a
// compressed env.
func (e Env) expander(opts SolveOptions) (map[string]string, expandOptions) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	lookup := make(map[string]string, len(e.Evars))
	for _, ev := range e.Evars {
		lookup[strings.ToLower(ev.Name)] = ev.Value
	}

	eo := expandOptions{
		maxDepth:   maxDepth,
		osFallback: opts.OSFallback && !opts.Strict,
		strict:     opts.Strict,
	}
	if len(opts.Passthrough) > 0 {
		eo.passthrough = make(map[string]struct{}, len(opts.Passthrough))
		for _, name := range opts.Passthrough {
			eo.passthrough[strings.ToLower(name)] = struct{}{}
		}
	}

	return lookup, eo
}

// ToMap returns the evars as a plain name-to-value map. On duplicate
// names the last evar wins; call Compress first for merged values.
func (e Env) ToMap() map[string]string {
	m := make(map[string]string, len(e.Evars))
	for _, ev := range e.Evars {
		m[ev.Name] = ev.Value
	}
	return m
}

// ToSh renders the environment as a POSIX shell script of export lines.
func (e Env) ToSh() string {
	lines := make([]string, 0, len(e.Evars))
	for _, ev := range e.Evars {
		escaped := strings.ReplaceAll(ev.Value, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		lines = append(lines, fmt.Sprintf("export %s=\"%s\"", ev.Name, escaped))
	}
	return strings.Join(lines, "\n")
}

// ToPs1 renders the environment as a PowerShell script.
func (e Env) ToPs1() string {
	lines := make([]string, 0, len(e.Evars))
	for _, ev := range e.Evars {
		escaped := strings.ReplaceAll(ev.Value, `"`, "`\"")
		lines = append(lines, fmt.Sprintf("$env:%s = \"%s\"", ev.Name, escaped))
	}
	return strings.Join(lines, "\n")
}

// ToCmd renders the environment as a Windows cmd.exe batch script.
// Lines are CRLF-joined as cmd.exe expects.
func (e Env) ToCmd() string {
	lines := make([]string, 0, len(e.Evars))
	for _, ev := range e.Evars {
		lines = append(lines, fmt.Sprintf("SET %s=%s", ev.Name, ev.Value))
	}
	return strings.Join(lines, "\r\n")
}
