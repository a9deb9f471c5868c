// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"
)

const parseTestSchema = `
#Settings: {
	name?:  string & !=""
	count?: int & >=0
}
`

type parseTestSettings struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	t.Run("valid data decodes", func(t *testing.T) {
		t.Parallel()

		result, err := ParseAndDecode[parseTestSettings](
			[]byte(parseTestSchema),
			[]byte(`name: "render", count: 4`),
			"#Settings",
			WithFilename("settings.cue"),
		)
		if err != nil {
			t.Fatalf("ParseAndDecode: %v", err)
		}
		if result.Value.Name != "render" || result.Value.Count != 4 {
			t.Errorf("decoded = %+v", *result.Value)
		}
		if !result.Unified.Exists() {
			t.Error("unified value should be available")
		}
	})

	t.Run("schema violation fails with filename", func(t *testing.T) {
		t.Parallel()

		_, err := ParseAndDecode[parseTestSettings](
			[]byte(parseTestSchema),
			[]byte(`count: -1`),
			"#Settings",
			WithFilename("settings.cue"),
		)
		if err == nil {
			t.Fatal("want validation error for negative count")
		}
		if !strings.Contains(err.Error(), "settings.cue") {
			t.Errorf("error should carry the filename, got: %v", err)
		}
	})

	t.Run("syntax error fails", func(t *testing.T) {
		t.Parallel()

		_, err := ParseAndDecode[parseTestSettings](
			[]byte(parseTestSchema),
			[]byte(`name: [unterminated`),
			"#Settings",
		)
		if err == nil {
			t.Fatal("want compile error")
		}
	})

	t.Run("oversized input rejected before evaluation", func(t *testing.T) {
		t.Parallel()

		_, err := ParseAndDecode[parseTestSettings](
			[]byte(parseTestSchema),
			[]byte(`name: "x"`),
			"#Settings",
			WithMaxFileSize(4),
		)
		if err == nil {
			t.Fatal("want file size error")
		}
	})
}

func TestParseAndDecodeStringNonConcrete(t *testing.T) {
	t.Parallel()

	// The config loader's shape: decode a partial document into a map
	// with optional fields left unset.
	result, err := ParseAndDecodeString[map[string]any](
		parseTestSchema,
		[]byte(`count: 2`),
		"#Settings",
		WithConcrete(false),
		WithFilename("config.cue"),
	)
	if err != nil {
		t.Fatalf("ParseAndDecodeString: %v", err)
	}

	m := *result.Value
	if m["count"] != 2 && m["count"] != int64(2) && m["count"] != float64(2) {
		t.Errorf("count = %v (%T)", m["count"], m["count"])
	}
	if _, ok := m["name"]; ok {
		t.Error("unset optional field should not decode")
	}
}
