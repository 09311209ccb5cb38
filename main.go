// SPDX-License-Identifier: AGPL-3.0-only
package main

import "github.com/fluffyriot/statsync/internal/cli"

func main() {
	cli.Execute()
}
