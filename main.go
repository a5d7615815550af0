// SPDX-License-Identifier: MPL-2.0

package main

import cmd "meltano-cli/cmd/meltano"

func main() {
	cmd.Execute()
}
