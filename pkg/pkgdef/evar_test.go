// SPDX-License-Identifier: MPL-2.0

package pkgdef

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Action
		wantErr bool
	}{
		{input: "set", want: ActionSet},
		{input: "APPEND", want: ActionAppend},
		{input: "Insert", want: ActionInsert},
		{input: "", want: ActionAppend},
		{input: "replace", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseAction(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseAction(%q) succeeded, want error", tt.input)
			} else if !errors.Is(err, ErrInvalidAction) {
				t.Errorf("error %v should wrap ErrInvalidAction", err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAction(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAction(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestEvarMerge(t *testing.T) {
	t.Parallel()

	sep := PathListSeparator()

	tests := []struct {
		name  string
		base  Evar
		other Evar
		want  string
	}{
		{
			name:  "set overwrites",
			base:  SetEvar("PATH", "/old"),
			other: SetEvar("PATH", "/new"),
			want:  "/new",
		},
		{
			name:  "append joins at the end",
			base:  SetEvar("PATH", "/a"),
			other: AppendEvar("PATH", "/b"),
			want:  "/a" + sep + "/b",
		},
		{
			name:  "insert joins at the front",
			base:  SetEvar("PATH", "/a"),
			other: InsertEvar("PATH", "/b"),
			want:  "/b" + sep + "/a",
		},
		{
			name:  "append onto empty has no separator",
			base:  SetEvar("PATH", ""),
			other: AppendEvar("PATH", "/b"),
			want:  "/b",
		},
		{
			name:  "appending empty keeps the value",
			base:  SetEvar("PATH", "/a"),
			other: AppendEvar("PATH", ""),
			want:  "/a",
		},
		{
			name:  "insert onto empty has no separator",
			base:  SetEvar("PATH", ""),
			other: InsertEvar("PATH", "/b"),
			want:  "/b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			merged := tt.base.Merge(tt.other)
			if merged.Value != tt.want {
				t.Errorf("merged value = %q, want %q", merged.Value, tt.want)
			}
			if merged.Action != ActionSet {
				t.Errorf("merged action = %q, want set", merged.Action)
			}
		})
	}
}

func TestEvarTokens(t *testing.T) {
	t.Parallel()

	e := AppendEvar("PATH", "{ROOT}/bin/{LIB}")
	tokens := e.Tokens()
	if len(tokens) != 2 {
		t.Fatalf("Tokens() = %v, want 2 entries", tokens)
	}
	for _, name := range []string{"ROOT", "LIB"} {
		if _, ok := tokens[name]; !ok {
			t.Errorf("Tokens() missing %s", name)
		}
	}

	if !e.HasTokens() {
		t.Error("HasTokens() = false")
	}
	if SetEvar("X", "plain").HasTokens() {
		t.Error("plain value should have no tokens")
	}
}

func TestEvarJSON(t *testing.T) {
	t.Parallel()

	e := AppendEvar("PATH", "/bin")
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back Evar
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back != e {
		t.Errorf("round trip: got %+v, want %+v", back, e)
	}
}
