// SPDX-License-Identifier: MPL-2.0

// Package pkgdef provides the core data model for package definitions:
// versions, dependency constraints, environment variables with merge
// actions, named environments with token expansion, and the Package
// record produced by the definition-file loader.
//
// # Model
//
//   - Version: a (major, minor, patch) triple with tuple ordering.
//   - Constraint / DepSpec: textual requirements like "redshift@>=3.5,<4.0".
//   - Evar: a single environment variable with a merge action
//     (set, append, insert).
//   - Env: a named, ordered collection of Evars supporting merge,
//     compress, and recursive {TOKEN} expansion.
//   - Package: immutable metadata (base, version, reqs, envs, apps, tags)
//     plus solver-populated resolved dependencies.
//
// # Definition files
//
// Packages are described by package.cue files validated against an
// embedded CUE schema. See Load for the accepted file shapes.
package pkgdef
