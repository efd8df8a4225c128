// Copyright (c) Mondoo, Inc.
// SPDX-License-Identifier: BUSL-1.1

package main

import "go.mondoo.com/npmscan/apps/npmscan/cmd"

func main() {
	cmd.Execute()
}
