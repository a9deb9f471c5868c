// SPDX-License-Identifier: MPL-2.0

package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"pkgr-cli/internal/cache"
	"pkgr-cli/pkg/pkgdef"
)

func writeDef(t *testing.T, root, base, version string, reqs ...string) string {
	t.Helper()
	dir := filepath.Join(root, base, version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "package: {\n\tbase:    %q\n\tversion: %q\n", base, version)
	if len(reqs) > 0 {
		b.WriteString("\treqs: [")
		for i, r := range reqs {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%q", r)
		}
		b.WriteString("]\n")
	}
	b.WriteString("}\n")
	path := filepath.Join(dir, pkgdef.DefinitionFileName)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func scan(t *testing.T, opts Options) *Storage {
	t.Helper()
	st, err := Scan(context.Background(), opts)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	return st
}

func snapshot(t *testing.T, st *Storage) []byte {
	t.Helper()
	data, err := json.Marshal(st.Packages())
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestScanIndexes(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeDef(t, root, "maya", "2025.3.0")
	writeDef(t, root, "maya", "2026.1.0")
	writeDef(t, root, "redshift", "3.5.2", "maya@2026")

	st := scan(t, Options{Roots: []string{root}})
	if st.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (warnings: %v)", st.Len(), st.Warnings())
	}
	if len(st.Warnings()) != 0 {
		t.Errorf("unexpected warnings: %v", st.Warnings())
	}

	if !st.Has("maya-2026.1.0") || !st.Has("MAYA-2026.1.0") {
		t.Error("Has should be case-insensitive")
	}
	latest, ok := st.Latest("maya")
	if !ok || latest.FullName() != "maya-2026.1.0" {
		t.Errorf("Latest(maya) = %v", latest)
	}
	versions := st.Versions("maya")
	if len(versions) != 2 || !versions[1].Less(versions[0]) {
		t.Errorf("Versions should be descending: %v", versions)
	}
	if got := st.Bases(); !reflect.DeepEqual(got, []string{"maya", "redshift"}) {
		t.Errorf("Bases() = %v", got)
	}
}

func TestScanDeterministic(t *testing.T) {
	t.Parallel()

	rootA, rootB := t.TempDir(), t.TempDir()
	for i := 0; i < 8; i++ {
		writeDef(t, rootA, fmt.Sprintf("pkg_%c", 'a'+i), "1.0.0")
		writeDef(t, rootB, fmt.Sprintf("pkg_%c", 'i'+i), "1.0.0")
	}

	opts := Options{Roots: []string{rootA, rootB}}
	first := snapshot(t, scan(t, opts))
	for i := 0; i < 3; i++ {
		if again := snapshot(t, scan(t, opts)); !bytes.Equal(first, again) {
			t.Fatal("consecutive scans disagree")
		}
	}
}

func TestScanCacheTransparency(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeDef(t, root, "maya", "2026.1.0")
	writeDef(t, root, "houdini", "20.5.0", "maya")

	cachePath := filepath.Join(t.TempDir(), cache.DefaultFileName)

	fresh := snapshot(t, scan(t, Options{Roots: []string{root}, Cache: cache.Load(cachePath)}))

	// Second scan is served from the populated cache.
	c := cache.Load(cachePath)
	if c.Len() != 2 {
		t.Fatalf("cache holds %d entries, want 2", c.Len())
	}
	cached := snapshot(t, scan(t, Options{Roots: []string{root}, Cache: c}))
	if !bytes.Equal(fresh, cached) {
		t.Error("cached scan differs from fresh scan")
	}
}

func TestScanCachedRescan(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	var paths []string
	for i := 0; i < 10; i++ {
		paths = append(paths, writeDef(t, root, fmt.Sprintf("pkg_%c", 'a'+i), "1.0.0"))
	}
	cachePath := filepath.Join(t.TempDir(), cache.DefaultFileName)

	st := scan(t, Options{Roots: []string{root}, Cache: cache.Load(cachePath)})
	if st.Len() != 10 {
		t.Fatalf("first scan Len() = %d", st.Len())
	}

	// Delete one definition and rewrite another with a new mtime.
	if err := os.Remove(paths[0]); err != nil {
		t.Fatal(err)
	}
	writeDef(t, root, "pkg_b", "2.0.0")
	newDef := filepath.Join(root, "pkg_b", "2.0.0", pkgdef.DefinitionFileName)
	if err := os.Chtimes(newDef, time.Now(), time.Now().Add(2*time.Second)); err != nil {
		t.Fatal(err)
	}

	c := cache.Load(cachePath)
	st = scan(t, Options{Roots: []string{root}, Cache: c})
	if st.Has("pkg_a-1.0.0") {
		t.Error("deleted package still indexed")
	}
	if !st.Has("pkg_b-2.0.0") {
		t.Error("new definition not picked up")
	}
	if st.Len() != 10 {
		t.Errorf("Len() = %d, want 10", st.Len())
	}
	// The deleted path must have been pruned from the saved cache.
	if c2 := cache.Load(cachePath); c2.Len() != 10 {
		t.Errorf("cache holds %d entries after prune, want 10", c2.Len())
	}
}

func TestScanFirstRootWins(t *testing.T) {
	t.Parallel()

	rootA, rootB := t.TempDir(), t.TempDir()
	pathA := writeDef(t, rootA, "maya", "2026.1.0")
	writeDef(t, rootB, "maya", "2026.1.0")

	st := scan(t, Options{Roots: []string{rootA, rootB}})
	pkg, ok := st.Get("maya-2026.1.0")
	if !ok || pkg.Source != pathA {
		t.Errorf("kept source = %q, want the first root's copy", pkg.Source)
	}
	if len(st.Warnings()) != 1 || !strings.Contains(st.Warnings()[0].String(), "duplicate") {
		t.Errorf("want one duplicate warning, got %v", st.Warnings())
	}
}

func TestScanWarnsAndContinues(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeDef(t, root, "maya", "2026.1.0")
	bad := filepath.Join(root, "broken")
	if err := os.MkdirAll(bad, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bad, pkgdef.DefinitionFileName), []byte("package: {"), 0o644); err != nil {
		t.Fatal(err)
	}

	st := scan(t, Options{Roots: []string{root}})
	if st.Len() != 1 {
		t.Errorf("Len() = %d, want 1", st.Len())
	}
	if len(st.Warnings()) != 1 {
		t.Errorf("warnings = %v, want exactly one", st.Warnings())
	}
}

func TestScanExcludes(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeDef(t, root, "maya", "2026.1.0")
	writeDef(t, root, "maya_beta", "2027.0.0")
	writeDef(t, root, "houdini", "20.5.0")

	st := scan(t, Options{Roots: []string{root}, Excludes: []string{"maya*"}})
	if st.Len() != 1 || !st.Has("houdini-20.5.0") {
		t.Errorf("excludes not applied: %v", st.Bases())
	}
}

func TestScanToolsets(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeDef(t, root, "maya", "2026.1.0")
	writeDef(t, root, "redshift", "3.5.2")

	tsDir := filepath.Join(root, toolsetsDirName)
	if err := os.MkdirAll(tsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	toml := `
[lookdev]
description = "Lookdev seat"
requires = ["maya@2026", "redshift"]
tags = ["dcc-seat"]

[lighting]
version = "2.0.0"
requires = ["maya"]
`
	if err := os.WriteFile(filepath.Join(tsDir, "show.toml"), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	st := scan(t, Options{Roots: []string{root}})
	if len(st.Warnings()) != 0 {
		t.Fatalf("warnings: %v", st.Warnings())
	}

	lookdev, ok := st.Get("lookdev-1.0.0")
	if !ok {
		t.Fatal("lookdev toolset missing (default version should be 1.0.0)")
	}
	if !lookdev.HasTag(ToolsetTag) || !lookdev.HasTag("dcc-seat") {
		t.Errorf("tags = %v", lookdev.Tags)
	}
	if lookdev.Description != "Lookdev seat" {
		t.Errorf("description = %q", lookdev.Description)
	}
	if !reflect.DeepEqual(lookdev.Reqs, []string{"maya@2026", "redshift"}) {
		t.Errorf("reqs = %v", lookdev.Reqs)
	}
	if !st.Has("lighting-2.0.0") {
		t.Error("lighting toolset missing")
	}
}

func TestRootsFromEnv(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	t.Setenv(LocationsEnvVar, dirA+string(os.PathListSeparator)+dirB)

	roots := Roots(nil, false)
	if len(roots) < 2 {
		t.Fatalf("roots = %v", roots)
	}
	if roots[0] != dirA || roots[1] != dirB {
		t.Errorf("env roots out of order: %v", roots)
	}

	// Explicit roots rank first.
	explicit := t.TempDir()
	roots = Roots([]string{explicit}, false)
	if roots[0] != explicit {
		t.Errorf("explicit root should come first: %v", roots)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeDef(t, root, "maya", "2025.3.0")
	writeDef(t, root, "maya", "2026.1.0")

	st := scan(t, Options{Roots: []string{root}})

	pkg, err := st.ResolveName("maya@2025")
	if err != nil {
		t.Fatalf("ResolveName: %v", err)
	}
	if pkg.FullName() != "maya-2025.3.0" {
		t.Errorf("resolved %s", pkg.FullName())
	}

	// Unknown base: suggestions.
	_, err = st.ResolveName("mya")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	var nfe *NotFoundError
	if !errors.As(err, &nfe) || len(nfe.Suggestions) == 0 || nfe.Suggestions[0] != "maya" {
		t.Errorf("suggestions = %+v", nfe)
	}

	// Known base, no version in range: available versions listed.
	_, err = st.ResolveName("maya@>=2027")
	if !errors.As(err, &nfe) || len(nfe.Available) != 2 {
		t.Errorf("available = %+v", nfe)
	}
	if !strings.Contains(err.Error(), "2026.1.0") {
		t.Errorf("error should list versions: %v", err)
	}
}
