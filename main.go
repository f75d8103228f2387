// SPDX-License-Identifier: MIT
package main

import "github.com/skaphos/branchkeeper/cmd/branchkeeper"

var execute = branchkeeper.Execute

func main() {
	execute()
}
