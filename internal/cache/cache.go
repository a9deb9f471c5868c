// SPDX-License-Identifier: MPL-2.0

// Package cache persists definition-file parse results between scans,
// keyed by file path and modification time. A stale or corrupt cache is
// never an error: the scanner falls back to re-parsing and the next
// Save rewrites the file.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"pkgr-cli/pkg/pkgdef"
)

// FormatVersion is bumped whenever the on-disk layout changes. A cache
// written by a different version loads as empty.
const FormatVersion = 1

// DefaultFileName is the cache file basename used when the config does
// not override the location.
const DefaultFileName = "pkgr.cache"

type (
	// Entry pairs a parsed package with the definition file's mtime at
	// parse time.
	Entry struct {
		MTime   int64           `json:"mtime"`
		Package *pkgdef.Package `json:"package"`
	}

	// Cache is an mtime-keyed map from definition file path to parsed
	// package. Not safe for concurrent use; the scanner consults it
	// from a single goroutine.
	Cache struct {
		path    string
		entries map[string]Entry
		dirty   bool
	}

	// fileFormat is the serialised document.
	fileFormat struct {
		Version int              `json:"version"`
		Entries map[string]Entry `json:"entries"`
	}
)

// New returns an empty cache that will save to path.
func New(path string) *Cache {
	return &Cache{path: path, entries: make(map[string]Entry)}
}

// Load reads the cache at path. Loading is lenient: a missing file, a
// corrupt file, or an unknown format version all yield an empty cache,
// with a debug/warn log rather than an error.
func Load(path string) *Cache {
	c := New(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("unreadable scan cache, starting empty", "path", path, "error", err)
		}
		return c
	}

	var doc fileFormat
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("corrupt scan cache, starting empty", "path", path, "error", err)
		return c
	}
	if doc.Version != FormatVersion {
		slog.Debug("scan cache format mismatch, starting empty",
			"path", path, "found", doc.Version, "want", FormatVersion)
		return c
	}
	if doc.Entries != nil {
		c.entries = doc.Entries
	}
	return c
}

// Path returns the file this cache saves to.
func (c *Cache) Path() string { return c.path }

// Len returns the number of cached entries.
func (c *Cache) Len() int { return len(c.entries) }

// Dirty reports whether the cache has changed since Load or Save.
func (c *Cache) Dirty() bool { return c.dirty }

// Get returns the cached package for path if the stored mtime matches.
func (c *Cache) Get(path string, mtime time.Time) (*pkgdef.Package, bool) {
	entry, ok := c.entries[path]
	if !ok || entry.MTime != mtime.UnixNano() || entry.Package == nil {
		return nil, false
	}
	return entry.Package, true
}

// Put records a parse result for path at the given mtime.
func (c *Cache) Put(path string, mtime time.Time, pkg *pkgdef.Package) {
	c.entries[path] = Entry{MTime: mtime.UnixNano(), Package: pkg}
	c.dirty = true
}

// Prune drops entries whose path is not in keep and returns the number
// removed. The scanner calls this with the set of definition files it
// actually observed, so deleted packages age out of the cache.
func (c *Cache) Prune(keep map[string]struct{}) int {
	removed := 0
	for path := range c.entries {
		if _, ok := keep[path]; !ok {
			delete(c.entries, path)
			removed++
		}
	}
	if removed > 0 {
		c.dirty = true
	}
	return removed
}

// Save writes the cache atomically: serialise to a temp file in the
// same directory, then rename over the target. A half-written cache is
// therefore never observed by a concurrent reader.
func (c *Cache) Save() error {
	doc := fileFormat{Version: FormatVersion, Entries: c.entries}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serialising scan cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing scan cache: %w", err)
	}

	c.dirty = false
	slog.Debug("scan cache saved", "path", c.path, "entries", len(c.entries))
	return nil
}
