// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"testing"

	"pkgr-cli/pkg/pkgdef"
)

func TestVersionList(t *testing.T) {
	t.Parallel()

	// The storage index hands versions over newest-first; the display
	// must keep that order instead of reshuffling it.
	versions := []pkgdef.Version{
		{Major: 2026, Minor: 1},
		{Major: 2025, Minor: 3, Patch: 1},
		{Major: 9},
	}

	got := versionList(versions)
	want := "2026.1.0, 2025.3.1, 9.0.0"
	if got != want {
		t.Errorf("versionList() = %q, want %q", got, want)
	}

	if versionList(nil) != "" {
		t.Errorf("versionList(nil) = %q, want empty", versionList(nil))
	}
}
