// SPDX-License-Identifier: MIT
package main

import "github.com/skaphos/stackkeeper/cmd/stackkeeper"

// execute is overridable in tests.
var execute = stackkeeper.Execute

func main() {
	execute()
}
