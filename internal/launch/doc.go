// SPDX-License-Identifier: MPL-2.0

// Package launch spawns applications and shell commands inside a
// composed package environment.
//
// Applications declared by packages are executed directly, with their
// path, arguments, and working directory token-expanded against the
// composed environment. Ad-hoc command lines run through the embedded
// mvdan/sh interpreter, so behavior is identical on every platform.
// A subshell mode hands the composed environment to the user's own
// shell for interactive sessions.
package launch
