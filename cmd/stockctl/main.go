// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command stockctl is the operator CLI for the Stockroom API.
package main

import "github.com/taibuivan/stockroom/cmd/stockctl/cmd"

func main() {
	cmd.Execute()
}
