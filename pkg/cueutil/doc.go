// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE parsing utilities.
//
// The package consolidates the 3-step CUE parsing pattern used by the
// definition-file loader and the config package:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify with schema
//  3. Validate and decode to Go struct
//
// All CUE evaluation shares one process-wide context guarded by a lock;
// see Locked. Callers perform file I/O outside the lock so a warm-cache
// scan never serialises on it.
//
// ParseAndDecode covers the plain compile-unify-decode case (the config
// loader); BuildFile additionally injects @tag values for definition
// files that branch on os/arch/dir.
//
// # Usage
//
//	//go:embed config_schema.cue
//	var schemaText string
//
//	result, err := cueutil.ParseAndDecodeString[map[string]any](
//	    schemaText,
//	    userFileBytes,
//	    "#Config",
//	    cueutil.WithConcrete(false),
//	    cueutil.WithFilename("config.cue"),
//	)
//	if err != nil {
//	    return err  // Error includes CUE path for debugging
//	}
package cueutil
