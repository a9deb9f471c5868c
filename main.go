// SPDX-License-Identifier: MPL-2.0

package main

import cmd "pkgr-cli/cmd/pkgr"

func main() {
	cmd.Execute()
}
