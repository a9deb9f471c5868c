// SPDX-License-Identifier: MPL-2.0

package pkgdef

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrInvalidAction is the sentinel error wrapped by InvalidActionError.
	ErrInvalidAction = errors.New("invalid action")
)

type (
	// Action determines how an Evar merges onto an existing value.
	Action string

	// InvalidActionError is returned when an action string is not one of
	// "set", "append", or "insert".
	InvalidActionError struct {
		Value string
	}

	// Evar is a single environment variable record. Values may contain
	// {TOKEN} references expanded during Env.Solve. Names merge
	// case-insensitively; the first spelling wins for display.
	Evar struct {
		Name   string `json:"name"`
		Value  string `json:"value"`
		Action Action `json:"action"`
	}
)

// Merge actions.
const (
	// ActionSet replaces the accumulated value entirely.
	ActionSet Action = "set"
	// ActionAppend adds to the end, joined by the path list separator.
	ActionAppend Action = "append"
	// ActionInsert adds to the front, joined by the path list separator.
	ActionInsert Action = "insert"
)

// Error implements the error interface.
func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action %q (must be set, append, or insert)", e.Value)
}

// Unwrap returns ErrInvalidAction so callers can use errors.Is.
func (e *InvalidActionError) Unwrap() error { return ErrInvalidAction }

// ParseAction parses an action string, case-insensitively. The empty
// string defaults to append, matching the definition-file schema.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ActionAppend):
		return ActionAppend, nil
	case string(ActionSet):
		return ActionSet, nil
	case string(ActionInsert):
		return ActionInsert, nil
	default:
		return "", &InvalidActionError{Value: s}
	}
}

// Validate returns nil if the Action is one of the three known values.
func (a Action) Validate() error {
	switch a {
	case ActionSet, ActionAppend, ActionInsert:
		return nil
	default:
		return &InvalidActionError{Value: string(a)}
	}
}

// PathListSeparator returns the separator used when merging list-like
// values. PKG_PATH_SEP overrides the platform default (";" on Windows,
// ":" elsewhere), which matters under MSYS2 and Git Bash.
func PathListSeparator() string {
	if sep := os.Getenv("PKG_PATH_SEP"); sep != "" {
		return sep
	}
	return string(os.PathListSeparator)
}

// NewEvar creates an Evar with the given action.
func NewEvar(name, value string, action Action) Evar {
	return Evar{Name: name, Value: value, Action: action}
}

// SetEvar creates an Evar with ActionSet.
func SetEvar(name, value string) Evar { return NewEvar(name, value, ActionSet) }

// AppendEvar creates an Evar with ActionAppend.
func AppendEvar(name, value string) Evar { return NewEvar(name, value, ActionAppend) }

// InsertEvar creates an Evar with ActionInsert.
func InsertEvar(name, value string) Evar { return NewEvar(name, value, ActionInsert) }

// Merge combines other onto e according to other's action and returns
// the merged record. Both evars must share a name (case-insensitive).
// The result's action is ActionSet: the value is now concrete.
//
// Empty sides collapse rather than producing dangling separators:
// appending "B" onto "" yields "B", not ":B".
func (e Evar) Merge(other Evar) Evar {
	var value string
	switch other.Action {
	case ActionSet:
		value = other.Value
	case ActionInsert:
		value = joinPathList(other.Value, e.Value)
	default: // ActionAppend
		value = joinPathList(e.Value, other.Value)
	}
	return Evar{Name: e.Name, Value: value, Action: ActionSet}
}

func joinPathList(first, second string) string {
	switch {
	case first == "":
		return second
	case second == "":
		return first
	default:
		return first + PathListSeparator() + second
	}
}

// Tokens returns the set of {TOKEN} names referenced by the value.
func (e Evar) Tokens() map[string]struct{} {
	return extractTokens(e.Value)
}

// HasTokens reports whether the value contains any {TOKEN} reference.
func (e Evar) HasTokens() bool {
	return strings.Contains(e.Value, "{") && strings.Contains(e.Value, "}")
}

// String formats the evar for display.
func (e Evar) String() string {
	return fmt.Sprintf("%s=%s (%s)", e.Name, e.Value, e.Action)
}
