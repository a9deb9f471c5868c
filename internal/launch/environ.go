// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"os"
	"path/filepath"
	"strings"

	"pkgr-cli/pkg/pkgdef"
)

// Environ renders the composed environment as NAME=value pairs for
// process spawning. With inheritOS, process variables the composed env
// does not define come first, so composed values always win.
func Environ(env pkgdef.Env, inheritOS bool) []string {
	var out []string

	if inheritOS {
		defined := make(map[string]struct{}, len(env.Evars))
		for _, ev := range env.Evars {
			defined[strings.ToLower(ev.Name)] = struct{}{}
		}
		for _, entry := range os.Environ() {
			name, _, ok := strings.Cut(entry, "=")
			if !ok {
				continue
			}
			if _, shadowed := defined[strings.ToLower(name)]; shadowed {
				continue
			}
			out = append(out, entry)
		}
	}

	for _, ev := range env.Evars {
		out = append(out, ev.Name+"="+ev.Value)
	}

	return out
}

// lookPath resolves a bare executable name against the composed env's
// PATH rather than the caller's. Names already carrying a path
// separator are returned unchanged.
func lookPath(env pkgdef.Env, name string) string {
	if strings.ContainsRune(name, os.PathSeparator) || filepath.IsAbs(name) {
		return name
	}

	pathVar, ok := env.Get("PATH")
	if !ok {
		return name
	}
	for _, dir := range filepath.SplitList(pathVar.Value) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return name
}
